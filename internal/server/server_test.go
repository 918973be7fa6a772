package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/opencode-ai/socdemo/internal/db"
	"github.com/opencode-ai/socdemo/internal/models"
	"github.com/opencode-ai/socdemo/internal/scenarios"
	"github.com/opencode-ai/socdemo/internal/sequencer"
	"github.com/rs/zerolog"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// slowScenario stays on its first action long enough for any test.
func slowScenario(id string) *scenarios.Scenario {
	return &scenarios.Scenario{
		ID:             id,
		Name:           "Slow " + id,
		TargetAudience: []string{"executives"},
		KeyFeatures:    []string{"monitoring"},
		Phases: []scenarios.Phase{{ID: "intro", Actions: []scenarios.Action{
			{Kind: scenarios.ActionNavigate, Target: "soc-dashboard", Content: "open", Duration: scenarios.Duration(time.Hour)},
			{Kind: scenarios.ActionAlert, Target: "events", Content: "breach", Duration: scenarios.Duration(time.Hour)},
		}}},
	}
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *sequencer.Sequencer) {
	t.Helper()
	other := slowScenario("other")
	other.TargetAudience = []string{"engineers"}
	catalog, err := scenarios.NewCatalog(slowScenario("demo"), other)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	seq := sequencer.New(catalog, sequencer.WithLogger(zerolog.Nop()))
	opts = append([]Option{WithLogger(zerolog.Nop())}, opts...)
	srv, err := New(seq, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		seq.Stop()
		srv.Close()
	})
	return srv, seq
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestNewRequiresSequencer(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestListScenarios(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		path string
		want []string
	}{
		{"/api/scenarios", []string{"demo", "other"}},
		{"/api/scenarios?audience=Engineers", []string{"other"}},
		{"/api/scenarios?feature=nothing", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(t, srv, http.MethodGet, tt.path, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			var body struct {
				Scenarios []scenarioSummary `json:"scenarios"`
			}
			decode(t, rec, &body)
			got := make([]string, 0, len(body.Scenarios))
			for _, s := range body.Scenarios {
				got = append(got, s.ID)
				if s.Actions != 2 || s.Phases != 1 {
					t.Errorf("unexpected counts for %s: %+v", s.ID, s)
				}
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Fatalf("ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetScenario(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/scenarios/demo", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var scenario scenarios.Scenario
	decode(t, rec, &scenario)
	if scenario.ID != "demo" || len(scenario.Phases) != 1 {
		t.Fatalf("unexpected scenario: %+v", scenario)
	}

	if rec := do(t, srv, http.MethodGet, "/api/scenarios/missing", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing scenario status = %d", rec.Code)
	}
}

func TestListPresets(t *testing.T) {
	srv, _ := newTestServer(t, WithPresets([]scenarios.Preset{{Name: "pitch", ScenarioID: "demo", Duration: time.Minute}}))

	rec := do(t, srv, http.MethodGet, "/api/presets", "")
	var body struct {
		Presets []presetView `json:"presets"`
	}
	decode(t, rec, &body)
	if len(body.Presets) != 1 || body.Presets[0].Name != "pitch" || body.Presets[0].Duration != "1m0s" {
		t.Fatalf("unexpected presets: %+v", body.Presets)
	}
}

func TestPlaybackStartStopState(t *testing.T) {
	srv, seq := newTestServer(t, WithPresets([]scenarios.Preset{{Name: "pitch", ScenarioID: "other"}}))

	tests := []struct {
		name   string
		body   string
		status int
		want   string
	}{
		{"unknown scenario", `{"scenario_id":"missing"}`, http.StatusNotFound, ""},
		{"empty body", ``, http.StatusBadRequest, ""},
		{"unknown field", `{"scenario":"demo"}`, http.StatusBadRequest, ""},
		{"no id", `{}`, http.StatusBadRequest, ""},
		{"unknown preset", `{"preset":"nope"}`, http.StatusNotFound, ""},
		{"scenario", `{"scenario_id":"demo"}`, http.StatusAccepted, "demo"},
		{"preset", `{"preset":"PITCH"}`, http.StatusAccepted, "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/playback/start", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.want == "" {
				return
			}
			var snapshot sequencer.Snapshot
			decode(t, rec, &snapshot)
			if !snapshot.Running || snapshot.Scenario == nil || snapshot.Scenario.ID != tt.want {
				t.Fatalf("unexpected snapshot: %+v", snapshot)
			}
		})
	}

	rec := do(t, srv, http.MethodGet, "/api/playback/state", "")
	var state sequencer.Snapshot
	decode(t, rec, &state)
	if !state.Running || state.RunID != seq.State().RunID {
		t.Fatalf("unexpected state: %+v", state)
	}

	rec = do(t, srv, http.MethodPost, "/api/playback/stop", "")
	var stopped sequencer.Snapshot
	decode(t, rec, &stopped)
	if stopped.Running || stopped.Scenario != nil || stopped.RunID != "" || stopped.Status != sequencer.StatusStopped {
		t.Fatalf("unexpected state after stop: %+v", stopped)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/healthz", "")
	var health map[string]any
	decode(t, rec, &health)
	if health["status"] != "ok" || health["scenarios"].(float64) != 2 {
		t.Fatalf("unexpected health: %+v", health)
	}

	do(t, srv, http.MethodPost, "/api/playback/start", `{"scenario_id":"demo"}`)
	do(t, srv, http.MethodPost, "/api/playback/stop", "")

	rec = do(t, srv, http.MethodGet, "/metrics", "")
	body := rec.Body.String()
	for _, want := range []string{
		"socdemo_runs_started_total 1",
		"socdemo_runs_stopped_total 1",
		"socdemo_runs_completed_total 0",
		`socdemo_actions_executed_total{kind="navigate"} 1`,
		`socdemo_actions_executed_total{kind="alert"} 0`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

type fakeHistory struct {
	runs   []models.RunSummary
	events map[string][]*models.PlaybackEvent
}

func (f *fakeHistory) ListRuns(context.Context, int) ([]models.RunSummary, error) {
	return f.runs, nil
}

func (f *fakeHistory) GetRun(_ context.Context, runID string) (*models.RunSummary, error) {
	for i := range f.runs {
		if f.runs[i].RunID == runID {
			return &f.runs[i], nil
		}
	}
	return nil, db.ErrRunNotFound
}

func (f *fakeHistory) ListByRun(_ context.Context, runID string) ([]*models.PlaybackEvent, error) {
	events, ok := f.events[runID]
	if !ok {
		return nil, db.ErrRunNotFound
	}
	return events, nil
}

func TestRunsEndpoints(t *testing.T) {
	disabled, _ := newTestServer(t)
	if rec := do(t, disabled, http.MethodGet, "/api/runs", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without journal, got %d", rec.Code)
	}

	history := &fakeHistory{
		runs: []models.RunSummary{{RunID: "r1", ScenarioID: "demo", Outcome: models.RunOutcomeCompleted, Events: 1}},
		events: map[string][]*models.PlaybackEvent{
			"r1": {{RunID: "r1", Type: "scenario_started", ScenarioID: "demo"}},
		},
	}
	srv, _ := newTestServer(t, WithHistory(history))

	rec := do(t, srv, http.MethodGet, "/api/runs", "")
	var list struct {
		Runs []models.RunSummary `json:"runs"`
	}
	decode(t, rec, &list)
	if len(list.Runs) != 1 || list.Runs[0].RunID != "r1" {
		t.Fatalf("unexpected runs: %+v", list.Runs)
	}

	rec = do(t, srv, http.MethodGet, "/api/runs/r1", "")
	var detail struct {
		Run    models.RunSummary       `json:"run"`
		Events []*models.PlaybackEvent `json:"events"`
	}
	decode(t, rec, &detail)
	if detail.Run.ScenarioID != "demo" || len(detail.Events) != 1 {
		t.Fatalf("unexpected detail: %+v", detail)
	}

	if rec := do(t, srv, http.MethodGet, "/api/runs/missing", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown run, got %d", rec.Code)
	}
}

type wireEvent struct {
	Name     string          `json:"name"`
	RunID    string          `json:"run_id"`
	Progress float64         `json:"progress"`
	Payload  json.RawMessage `json:"payload"`
}

func readEvent(t *testing.T, conn *websocket.Conn) wireEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event wireEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return event
}

func dialStream(t *testing.T, httpServer *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/api/playback/events" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func waitForClients(t *testing.T, srv *Server, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for srv.stream.clientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d stream clients, have %d", n, srv.stream.clientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEventStream(t *testing.T) {
	srv, seq := newTestServer(t)
	httpServer := httptest.NewServer(srv.Handler())
	defer httpServer.Close()

	all := dialStream(t, httpServer, "")
	defer all.Close()
	alerts := dialStream(t, httpServer, "?events=scenario_stopped")
	defer alerts.Close()
	waitForClients(t, srv, 2)

	runID, err := seq.Start("demo", nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	seq.Stop()

	var names []string
	for i := 0; i < 4; i++ {
		event := readEvent(t, all)
		names = append(names, event.Name)
		if event.RunID != runID {
			t.Errorf("event %s has run id %q, want %q", event.Name, event.RunID, runID)
		}
	}
	want := "scenario_started,action_executed,navigation,scenario_stopped"
	if strings.Join(names, ",") != want {
		t.Fatalf("events = %v, want %s", names, want)
	}

	stopped := readEvent(t, alerts)
	if stopped.Name != "scenario_stopped" {
		t.Fatalf("filtered stream received %s", stopped.Name)
	}

	srv.Close()
	all.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := all.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected normal close, got %v", err)
	}
	if srv.stream.clientCount() != 0 {
		t.Fatalf("clients remain after close: %d", srv.stream.clientCount())
	}
}

func TestStreamClientDisconnect(t *testing.T) {
	srv, _ := newTestServer(t)
	httpServer := httptest.NewServer(srv.Handler())
	defer httpServer.Close()

	conn := dialStream(t, httpServer, "")
	waitForClients(t, srv, 1)
	conn.Close()
	waitForClients(t, srv, 0)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	srv, _ := newTestServer(t)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, listener) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + listener.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
