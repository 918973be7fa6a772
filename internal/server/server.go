// Package server exposes the sequencer over HTTP: catalog and playback
// endpoints, a WebSocket event stream and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/opencode-ai/socdemo/internal/logging"
	"github.com/opencode-ai/socdemo/internal/models"
	"github.com/opencode-ai/socdemo/internal/scenarios"
	"github.com/opencode-ai/socdemo/internal/sequencer"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var errServerClosing = errors.New("server is shutting down")

// History is the read side of the playback journal.
type History interface {
	ListRuns(ctx context.Context, limit int) ([]models.RunSummary, error)
	GetRun(ctx context.Context, runID string) (*models.RunSummary, error)
	ListByRun(ctx context.Context, runID string) ([]*models.PlaybackEvent, error)
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithHistory enables the /api/runs endpoints.
func WithHistory(history History) Option {
	return func(s *Server) {
		s.history = history
	}
}

// WithPresets replaces the preset list served at /api/presets.
func WithPresets(presets []scenarios.Preset) Option {
	return func(s *Server) {
		s.presets = presets
	}
}

// Server hosts one sequencer.
type Server struct {
	seq     *sequencer.Sequencer
	history History
	presets []scenarios.Preset
	logger  zerolog.Logger

	metrics *metrics
	stream  *stream
	router  chi.Router

	unsubscribe []func()
	started     time.Time
}

// New creates a Server and subscribes it to seq.
func New(seq *sequencer.Sequencer, opts ...Option) (*Server, error) {
	if seq == nil {
		return nil, fmt.Errorf("sequencer is required")
	}
	s := &Server{
		seq:     seq,
		presets: scenarios.Presets(),
		logger:  logging.Component("server"),
		metrics: newMetrics(),
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.stream = newStream(s.logger, s.metrics)
	s.unsubscribe = append(s.unsubscribe,
		seq.SubscribeAll(s.metrics.observe),
		seq.SubscribeAll(s.stream.broadcast),
	)
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	router := chi.NewRouter()
	router.Use(s.recoverMiddleware)
	router.Use(s.logMiddleware)

	router.Get("/healthz", s.handleHealthz)
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	router.Route("/api", func(r chi.Router) {
		r.Get("/scenarios", s.handleListScenarios)
		r.Get("/scenarios/{scenarioID}", s.handleGetScenario)
		r.Get("/presets", s.handleListPresets)

		r.Route("/playback", func(r chi.Router) {
			r.Post("/start", s.handleStart)
			r.Post("/stop", s.handleStop)
			r.Get("/state", s.handleState)
			r.Get("/events", s.stream.handle)
		})

		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{runID}", s.handleGetRun)
	})
	return router
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close unsubscribes from the sequencer and disconnects stream clients.
func (s *Server) Close() {
	for _, unsubscribe := range s.unsubscribe {
		unsubscribe()
	}
	s.unsubscribe = nil
	s.stream.close()
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is done.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(listener)
	}()

	s.logger.Info().Str("addr", listener.Addr().String()).Msg("server listening")

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("server shutting down")
	s.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"scenarios": s.seq.Catalog().Len(),
		"clients":   s.stream.clientCount(),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"time":      time.Now().UTC().Format(time.RFC3339),
	})
}

// scenarioSummary is the list view of a scenario.
type scenarioSummary struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Description    string             `json:"description,omitempty"`
	Duration       scenarios.Duration `json:"duration"`
	TargetAudience []string           `json:"target_audience,omitempty"`
	KeyFeatures    []string           `json:"key_features,omitempty"`
	Phases         int                `json:"phases"`
	Actions        int                `json:"actions"`
}

func summarize(s *scenarios.Scenario) scenarioSummary {
	return scenarioSummary{
		ID:             s.ID,
		Name:           s.Name,
		Description:    s.Description,
		Duration:       s.Duration,
		TargetAudience: s.TargetAudience,
		KeyFeatures:    s.KeyFeatures,
		Phases:         len(s.Phases),
		Actions:        s.TotalActions(),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	matches := s.seq.Catalog().Filter(splitList(query.Get("audience")), splitList(query.Get("feature")))

	out := make([]scenarioSummary, 0, len(matches))
	for _, scenario := range matches {
		out = append(out, summarize(scenario))
	}
	respondJSON(w, http.StatusOK, map[string]any{"scenarios": out})
}

func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "scenarioID"))
	scenario, ok := s.seq.Catalog().Find(id)
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Errorf("%w: %s", sequencer.ErrScenarioNotFound, id))
		return
	}
	respondJSON(w, http.StatusOK, scenario)
}

type presetView struct {
	Name        string                `json:"name"`
	ScenarioID  string                `json:"scenario_id"`
	Description string                `json:"description"`
	Duration    string                `json:"duration"`
	Highlights  []scenarios.Highlight `json:"highlights,omitempty"`
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	out := make([]presetView, 0, len(s.presets))
	for _, preset := range s.presets {
		out = append(out, presetView{
			Name:        preset.Name,
			ScenarioID:  preset.ScenarioID,
			Description: preset.Description,
			Duration:    preset.Duration.String(),
			Highlights:  preset.Highlights,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"presets": out})
}

type startRequest struct {
	ScenarioID string `json:"scenario_id"`
	Preset     string `json:"preset,omitempty"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if status, err := decodeJSONBody(w, r, &req, maxBodyBytes); err != nil {
		respondError(w, status, err)
		return
	}

	scenarioID := strings.TrimSpace(req.ScenarioID)
	if scenarioID == "" && strings.TrimSpace(req.Preset) != "" {
		preset, err := scenarios.LookupPreset(s.presets, req.Preset)
		if err != nil {
			respondError(w, http.StatusNotFound, err)
			return
		}
		scenarioID = preset.ScenarioID
	}
	if scenarioID == "" {
		respondError(w, http.StatusBadRequest, errors.New("scenario_id or preset is required"))
		return
	}

	if _, err := s.seq.Start(scenarioID, nil); err != nil {
		if errors.Is(err, sequencer.ErrScenarioNotFound) {
			respondError(w, http.StatusNotFound, err)
			return
		}
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusAccepted, s.seq.State())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.seq.Stop()
	respondJSON(w, http.StatusOK, s.seq.State())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.seq.State())
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		respondError(w, http.StatusNotFound, errors.New("playback journal is disabled"))
		return
	}
	runs, err := s.history.ListRuns(r.Context(), 0)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		respondError(w, http.StatusNotFound, errors.New("playback journal is disabled"))
		return
	}
	runID := strings.TrimSpace(chi.URLParam(r, "runID"))
	summary, err := s.history.GetRun(r.Context(), runID)
	if err != nil {
		respondError(w, statusForLookup(err), err)
		return
	}
	events, err := s.history.ListByRun(r.Context(), runID)
	if err != nil {
		respondError(w, statusForLookup(err), err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"run": summary, "events": events})
}
