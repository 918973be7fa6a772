package models

import (
	"encoding/json"
	"strings"
	"time"
)

// PlaybackEvent is one journaled sequencer notification.
type PlaybackEvent struct {
	// ID is the unique identifier for the journal entry.
	ID string `json:"id"`

	// RunID groups the events of one scenario playback.
	RunID string `json:"run_id"`

	// Timestamp is when the sequencer emitted the event.
	Timestamp time.Time `json:"timestamp"`

	// Type is the event name, e.g. scenario_started or alert.
	Type string `json:"type"`

	ScenarioID string `json:"scenario_id,omitempty"`
	PhaseID    string `json:"phase_id,omitempty"`
	ActionKind string `json:"action_kind,omitempty"`
	Target     string `json:"target,omitempty"`
	Content    string `json:"content,omitempty"`

	// Progress is the completion percentage when the event fired.
	Progress float64 `json:"progress"`

	// Payload is the event payload as JSON.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Validate checks if the event can be journaled.
func (e *PlaybackEvent) Validate() error {
	validation := &ValidationErrors{}
	if strings.TrimSpace(e.RunID) == "" {
		validation.AddMessage("run_id", "run_id is required")
	}
	if strings.TrimSpace(e.Type) == "" {
		validation.AddMessage("type", "event type is required")
	}
	if e.Progress < 0 || e.Progress > 100 {
		validation.AddMessage("progress", "progress must be between 0 and 100")
	}
	return validation.Err()
}

// RunSummary aggregates the journal entries of one run.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	ScenarioID string    `json:"scenario_id"`
	StartedAt  time.Time `json:"started_at"`
	LastEvent  time.Time `json:"last_event_at"`
	Outcome    string    `json:"outcome"`
	Events     int       `json:"events"`
	Progress   float64   `json:"progress"`
}

// Run outcomes reported by RunSummary.
const (
	RunOutcomeRunning   = "running"
	RunOutcomeCompleted = "completed"
	RunOutcomeStopped   = "stopped"
)

// Finished reports whether the run reached a terminal event.
func (s RunSummary) Finished() bool {
	return s.Outcome == RunOutcomeCompleted || s.Outcome == RunOutcomeStopped
}
