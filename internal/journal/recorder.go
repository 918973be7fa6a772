// Package journal records sequencer events into the playback journal.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/opencode-ai/socdemo/internal/logging"
	"github.com/opencode-ai/socdemo/internal/models"
	"github.com/opencode-ai/socdemo/internal/scenarios"
	"github.com/opencode-ai/socdemo/internal/sequencer"
	"github.com/rs/zerolog"
)

// Repository is the minimal interface needed to write journal entries.
type Repository interface {
	Create(ctx context.Context, event *models.PlaybackEvent) error
}

// Source is the part of the sequencer the recorder subscribes to.
type Source interface {
	SubscribeAll(handler sequencer.Handler) func()
}

// DefaultBuffer is the number of events queued before new ones are dropped.
const DefaultBuffer = 256

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithBuffer sets the queue size.
func WithBuffer(size int) Option {
	return func(r *Recorder) {
		if size > 0 {
			r.buffer = size
		}
	}
}

// Recorder journals events off the dispatching goroutine so sequencer
// handlers never wait on the database.
type Recorder struct {
	repo   Repository
	logger zerolog.Logger
	buffer int

	queue       chan *models.PlaybackEvent
	unsubscribe func()
	wg          sync.WaitGroup
	closeOnce   sync.Once

	// mu guards closed against sends racing Close.
	mu     sync.RWMutex
	closed bool

	// scenarioByRun fills scenario ids on events whose payload lacks one.
	// Only touched from the dispatching goroutine.
	scenarioByRun map[string]string

	written atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

// NewRecorder subscribes to source and starts writing to repo.
func NewRecorder(ctx context.Context, repo Repository, source Source, opts ...Option) (*Recorder, error) {
	if repo == nil {
		return nil, fmt.Errorf("journal repository is required")
	}
	if source == nil {
		return nil, fmt.Errorf("event source is required")
	}

	r := &Recorder{
		repo:          repo,
		logger:        logging.Component("journal"),
		buffer:        DefaultBuffer,
		scenarioByRun: make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.queue = make(chan *models.PlaybackEvent, r.buffer)

	r.wg.Add(1)
	go r.writeLoop(ctx)

	r.unsubscribe = source.SubscribeAll(r.handle)
	return r, nil
}

// Close unsubscribes and waits for queued events to be written.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		r.unsubscribe()
		r.mu.Lock()
		r.closed = true
		close(r.queue)
		r.mu.Unlock()
		r.wg.Wait()
		r.logger.Debug().
			Int64("written", r.written.Load()).
			Int64("dropped", r.dropped.Load()).
			Int64("failed", r.failed.Load()).
			Msg("journal closed")
	})
}

// Stats reports written, dropped and failed counts.
func (r *Recorder) Stats() (written, dropped, failed int64) {
	return r.written.Load(), r.dropped.Load(), r.failed.Load()
}

func (r *Recorder) handle(event sequencer.Event) {
	entry, ok := r.convert(event)
	if !ok {
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- entry:
	default:
		r.dropped.Add(1)
		r.logger.Warn().Str("run_id", entry.RunID).Str("type", entry.Type).Msg("journal queue full, dropping event")
	}
}

func (r *Recorder) writeLoop(ctx context.Context) {
	defer r.wg.Done()
	for entry := range r.queue {
		if err := r.repo.Create(ctx, entry); err != nil {
			r.failed.Add(1)
			r.logger.Error().Err(err).Str("run_id", entry.RunID).Str("type", entry.Type).Msg("failed to journal event")
			continue
		}
		r.written.Add(1)
	}
}

func (r *Recorder) convert(event sequencer.Event) (*models.PlaybackEvent, bool) {
	// scenario_stopped while idle belongs to no run.
	if event.RunID == "" {
		return nil, false
	}

	entry := ToPlaybackEvent(event)

	switch event.Name {
	case sequencer.EventScenarioStarted:
		r.scenarioByRun[event.RunID] = entry.ScenarioID
	case sequencer.EventScenarioCompleted, sequencer.EventScenarioStopped:
		if entry.ScenarioID == "" {
			entry.ScenarioID = r.scenarioByRun[event.RunID]
		}
		delete(r.scenarioByRun, event.RunID)
	default:
		if entry.ScenarioID == "" {
			entry.ScenarioID = r.scenarioByRun[event.RunID]
		}
	}

	return entry, true
}

// ToPlaybackEvent maps a sequencer event to a journal entry. Scenario bodies
// are not copied into the payload.
func ToPlaybackEvent(event sequencer.Event) *models.PlaybackEvent {
	entry := &models.PlaybackEvent{
		RunID:     event.RunID,
		Timestamp: event.Timestamp,
		Type:      string(event.Name),
		Progress:  event.Progress,
	}

	var payload any
	switch p := event.Payload.(type) {
	case sequencer.ScenarioStarted:
		entry.ScenarioID = scenarioID(p.Scenario)
	case sequencer.ScenarioCompleted:
		entry.ScenarioID = scenarioID(p.Scenario)
	case sequencer.ActionExecuted:
		entry.ScenarioID = scenarioID(p.Scenario)
		if p.Phase != nil {
			entry.PhaseID = p.Phase.ID
		}
		entry.ActionKind = string(p.Action.Kind)
		entry.Target = p.Action.Target
		entry.Content = p.Action.Content
		payload = p.Action
	case sequencer.Navigation:
		entry.ActionKind = string(scenarios.ActionNavigate)
		entry.Target = p.Target
		payload = p
	case sequencer.Highlight:
		entry.ActionKind = string(scenarios.ActionHighlight)
		entry.Target = p.Selector
		payload = p
	case sequencer.DataUpdate:
		entry.ActionKind = string(scenarios.ActionDataUpdate)
		entry.Target = p.Target
		payload = p
	case sequencer.Alert:
		entry.ActionKind = string(scenarios.ActionAlert)
		entry.Content = p.Content
		payload = p
	case sequencer.Explanation:
		entry.ActionKind = string(scenarios.ActionExplanation)
		entry.Content = p.Content
		payload = p
	}

	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			entry.Payload = data
		}
	}
	return entry
}

func scenarioID(s *scenarios.Scenario) string {
	if s == nil {
		return ""
	}
	return s.ID
}
