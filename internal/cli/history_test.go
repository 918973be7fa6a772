package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/opencode-ai/socdemo/internal/db"
	"github.com/opencode-ai/socdemo/internal/models"
	"github.com/stretchr/testify/require"
)

func newHistoryRepo(t *testing.T) *db.PlaybackRepository {
	t.Helper()
	database, err := db.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	_, err = database.MigrateUp(context.Background())
	require.NoError(t, err)
	return db.NewPlaybackRepository(database)
}

func seedRun(t *testing.T, repo *db.PlaybackRepository, runID string, finished bool) {
	t.Helper()
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	entries := []*models.PlaybackEvent{
		{RunID: runID, Timestamp: start, Type: "scenario_started", ScenarioID: "quick"},
		{RunID: runID, Timestamp: start.Add(time.Second), Type: "action_executed", ScenarioID: "quick",
			PhaseID: "detect", ActionKind: "alert", Target: "#alerts", Content: "Ransomware beacon", Progress: 0},
	}
	if finished {
		entries = append(entries, &models.PlaybackEvent{
			RunID: runID, Timestamp: start.Add(2 * time.Second), Type: "scenario_completed", ScenarioID: "quick", Progress: 100,
		})
	}
	for _, entry := range entries {
		require.NoError(t, repo.Create(ctx, entry))
	}
}

func TestListHistory(t *testing.T) {
	setOutputFlags(t, false, false)
	repo := newHistoryRepo(t)
	seedRun(t, repo, "run-1", true)
	seedRun(t, repo, "run-2", false)

	var buf bytes.Buffer
	require.NoError(t, listHistory(context.Background(), repo, &buf, 10))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[1], "run-2"), "newest run first: %q", lines[1])
	require.Contains(t, lines[1], "OPEN running")
	require.Contains(t, lines[2], "OK completed")
	require.Contains(t, lines[2], "100%")
}

func TestListHistoryEmpty(t *testing.T) {
	setOutputFlags(t, false, false)
	repo := newHistoryRepo(t)

	var buf bytes.Buffer
	require.NoError(t, listHistory(context.Background(), repo, &buf, 10))
	require.Contains(t, buf.String(), "No recorded runs")
}

func TestListHistoryJSON(t *testing.T) {
	setOutputFlags(t, true, false)
	repo := newHistoryRepo(t)
	seedRun(t, repo, "run-1", true)

	var buf bytes.Buffer
	require.NoError(t, listHistory(context.Background(), repo, &buf, 10))

	var runs []models.RunSummary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &runs))
	require.Len(t, runs, 1)
	require.Equal(t, "run-1", runs[0].RunID)
	require.Equal(t, models.RunOutcomeCompleted, runs[0].Outcome)
	require.Equal(t, 3, runs[0].Events)
}

func TestShowHistory(t *testing.T) {
	setOutputFlags(t, false, false)
	repo := newHistoryRepo(t)
	seedRun(t, repo, "run-1", true)

	var buf bytes.Buffer
	require.NoError(t, showHistory(context.Background(), repo, &buf, "run-1"))

	out := buf.String()
	require.Contains(t, out, "Run run-1 (quick) OK completed")
	require.Contains(t, out, "#alerts: Ransomware beacon")
	require.Contains(t, out, "+1s")
}

func TestShowHistoryJSON(t *testing.T) {
	setOutputFlags(t, true, false)
	repo := newHistoryRepo(t)
	seedRun(t, repo, "run-1", false)

	var buf bytes.Buffer
	require.NoError(t, showHistory(context.Background(), repo, &buf, "run-1"))

	var detail runDetail
	require.NoError(t, json.Unmarshal(buf.Bytes(), &detail))
	require.Equal(t, "run-1", detail.RunID)
	require.Len(t, detail.Entries, 2)
	require.Equal(t, "action_executed", detail.Entries[1].Type)
}

func TestShowHistoryUnknownRun(t *testing.T) {
	setOutputFlags(t, false, false)
	repo := newHistoryRepo(t)

	err := showHistory(context.Background(), repo, &bytes.Buffer{}, "missing")
	var preflight *PreflightError
	require.True(t, errors.As(err, &preflight), "error = %v", err)
	require.Contains(t, preflight.Message, "missing")
}
