package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/opencode-ai/socdemo/internal/models"
)

// Playback repository errors.
var (
	ErrRunNotFound = errors.New("run not found")
)

// timestampLayout sorts lexically in UTC.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// DefaultRunLimit bounds ListRuns when no limit is given.
const DefaultRunLimit = 50

// PlaybackRepository persists journaled playback events.
type PlaybackRepository struct {
	db *DB
}

type playbackExecer interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// NewPlaybackRepository creates a new PlaybackRepository.
func NewPlaybackRepository(db *DB) *PlaybackRepository {
	return &PlaybackRepository{db: db}
}

// Create appends an event to the journal, filling ID and Timestamp if unset.
func (r *PlaybackRepository) Create(ctx context.Context, event *models.PlaybackEvent) error {
	return r.createWithExecutor(ctx, r.db, event)
}

// CreateWithTx appends an event using an existing transaction.
func (r *PlaybackRepository) CreateWithTx(ctx context.Context, tx *sql.Tx, event *models.PlaybackEvent) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	return r.createWithExecutor(ctx, tx, event)
}

func (r *PlaybackRepository) createWithExecutor(ctx context.Context, execer playbackExecer, event *models.PlaybackEvent) error {
	if event == nil {
		return fmt.Errorf("event is required")
	}
	if err := event.Validate(); err != nil {
		return err
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	} else {
		event.Timestamp = event.Timestamp.UTC()
	}

	var payloadJSON *string
	if len(event.Payload) > 0 {
		s := string(event.Payload)
		payloadJSON = &s
	}

	_, err := execer.ExecContext(ctx, `
		INSERT INTO playback_events (
			id, run_id, timestamp, type, scenario_id, phase_id,
			action_kind, target, content, progress, payload_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.ID,
		event.RunID,
		event.Timestamp.Format(timestampLayout),
		event.Type,
		event.ScenarioID,
		event.PhaseID,
		event.ActionKind,
		event.Target,
		event.Content,
		event.Progress,
		payloadJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert playback event: %w", err)
	}

	return nil
}

// ListByRun returns a run's events in emission order.
// Returns ErrRunNotFound if nothing was journaled for runID.
func (r *PlaybackRepository) ListByRun(ctx context.Context, runID string) ([]*models.PlaybackEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, run_id, timestamp, type, scenario_id, phase_id,
			action_kind, target, content, progress, payload_json
		FROM playback_events
		WHERE run_id = ?
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playback events: %w", err)
	}
	defer rows.Close()

	var events []*models.PlaybackEvent
	for rows.Next() {
		event, err := r.scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating playback events: %w", err)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	return events, nil
}

const runSummaryQuery = `
	SELECT run_id,
		MAX(scenario_id),
		MIN(timestamp),
		MAX(timestamp),
		MAX(CASE type
			WHEN 'scenario_completed' THEN 2
			WHEN 'scenario_stopped' THEN 1
			ELSE 0 END),
		COUNT(*),
		MAX(progress)
	FROM playback_events
`

// ListRuns summarizes the most recent runs, newest first.
func (r *PlaybackRepository) ListRuns(ctx context.Context, limit int) ([]models.RunSummary, error) {
	if limit <= 0 {
		limit = DefaultRunLimit
	}

	rows, err := r.db.QueryContext(ctx, runSummaryQuery+`
		GROUP BY run_id
		ORDER BY MIN(seq) DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]models.RunSummary, 0)
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// GetRun summarizes a single run.
func (r *PlaybackRepository) GetRun(ctx context.Context, runID string) (*models.RunSummary, error) {
	row := r.db.QueryRowContext(ctx, runSummaryQuery+`
		WHERE run_id = ?
		GROUP BY run_id
	`, runID)

	summary, err := scanSummary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	return &summary, nil
}

func scanSummary(row rowScanner) (models.RunSummary, error) {
	var summary models.RunSummary
	var started, last string
	var outcome int

	if err := row.Scan(
		&summary.RunID,
		&summary.ScenarioID,
		&started,
		&last,
		&outcome,
		&summary.Events,
		&summary.Progress,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return summary, err
		}
		return summary, fmt.Errorf("failed to scan run summary: %w", err)
	}

	if t, err := time.Parse(timestampLayout, started); err == nil {
		summary.StartedAt = t
	}
	if t, err := time.Parse(timestampLayout, last); err == nil {
		summary.LastEvent = t
	}

	switch outcome {
	case 2:
		summary.Outcome = models.RunOutcomeCompleted
	case 1:
		summary.Outcome = models.RunOutcomeStopped
	default:
		summary.Outcome = models.RunOutcomeRunning
	}

	return summary, nil
}

func (r *PlaybackRepository) scanEvent(row rowScanner) (*models.PlaybackEvent, error) {
	var event models.PlaybackEvent
	var timestamp string
	var payloadJSON sql.NullString

	if err := row.Scan(
		&event.ID,
		&event.RunID,
		&timestamp,
		&event.Type,
		&event.ScenarioID,
		&event.PhaseID,
		&event.ActionKind,
		&event.Target,
		&event.Content,
		&event.Progress,
		&payloadJSON,
	); err != nil {
		return nil, fmt.Errorf("failed to scan playback event: %w", err)
	}

	if t, err := time.Parse(timestampLayout, timestamp); err == nil {
		event.Timestamp = t
	} else {
		r.db.logger.Warn().Err(err).Str("event_id", event.ID).Msg("failed to parse event timestamp")
	}

	if payloadJSON.Valid {
		event.Payload = json.RawMessage(payloadJSON.String)
	}

	return &event, nil
}
