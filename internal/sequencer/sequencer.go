// Package sequencer plays demo scenarios: it walks a scenario's phases and
// actions in order on a timer and notifies subscribers as it advances.
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opencode-ai/socdemo/internal/logging"
	"github.com/opencode-ai/socdemo/internal/scenarios"
	"github.com/rs/zerolog"
)

// Sequencer errors.
var (
	ErrScenarioNotFound = errors.New("scenario not found")
	ErrRunStopped       = errors.New("run stopped")
	ErrRunSuperseded    = errors.New("run superseded by a newer run")
	ErrNoCatalog        = errors.New("catalog is required")
)

// Status is the lifecycle state of the sequencer.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusStopped   Status = "stopped"
)

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(clock Clock) Option {
	return func(s *Sequencer) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Sequencer) {
		s.logger = logger
	}
}

// WithSpeed scales every action delay by 1/speed. Non-positive values are ignored.
func WithSpeed(speed float64) Option {
	return func(s *Sequencer) {
		if speed > 0 {
			s.speed = speed
		}
	}
}

// WithDefaultActionDuration sets the delay for actions without a duration.
func WithDefaultActionDuration(d time.Duration) Option {
	return func(s *Sequencer) {
		if d > 0 {
			s.defaultDelay = d
		}
	}
}

// WithRunIDs replaces the run id generator.
func WithRunIDs(next func() string) Option {
	return func(s *Sequencer) {
		if next != nil {
			s.newRunID = next
		}
	}
}

// Sequencer drives one scenario run at a time.
type Sequencer struct {
	catalog      *scenarios.Catalog
	clock        Clock
	logger       zerolog.Logger
	speed        float64
	defaultDelay time.Duration
	newRunID     func() string

	subs registry

	// dispatchMu serializes transitions together with their notifications,
	// so one run's events reach subscribers in cursor order.
	dispatchMu sync.Mutex

	// mu guards the fields below; held only briefly and never during
	// notification.
	mu         sync.RWMutex
	generation uint64
	timer      Timer
	run        *run
	status     Status
}

// run is the mutable cursor of one scenario playback.
type run struct {
	id          string
	generation  uint64
	scenario    *scenarios.Scenario
	phaseIndex  int
	actionIndex int
	running     bool

	unsubscribeAction func()

	once sync.Once
	done chan struct{}
	err  error
}

func (r *run) finish(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}

// New creates a Sequencer over catalog.
func New(catalog *scenarios.Catalog, opts ...Option) *Sequencer {
	s := &Sequencer{
		catalog:      catalog,
		clock:        realClock{},
		logger:       logging.Component("sequencer"),
		speed:        1,
		defaultDelay: scenarios.DefaultActionDuration,
		newRunID:     func() string { return uuid.New().String() },
		status:       StatusIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the scenarios this sequencer can play.
func (s *Sequencer) Catalog() *scenarios.Catalog {
	return s.catalog
}

// Subscribe registers handler for events named name. Handlers for the same
// event run in registration order. The returned func removes the handler.
func (s *Sequencer) Subscribe(name EventName, handler Handler) func() {
	if handler == nil || name == "" {
		return func() {}
	}
	return s.subs.add(name, handler)
}

// SubscribeAll registers handler for every event.
func (s *Sequencer) SubscribeAll(handler Handler) func() {
	if handler == nil {
		return func() {}
	}
	return s.subs.add("", handler)
}

// Start loads scenarioID and begins playback. scenario_started and the first
// action are delivered before Start returns. onAction, if set, receives
// action_executed events of this run only. Starting while another run is
// active abandons that run.
func (s *Sequencer) Start(scenarioID string, onAction Handler) (string, error) {
	r, err := s.start(scenarioID, onAction)
	if err != nil {
		return "", err
	}
	return r.id, nil
}

// Run starts scenarioID and blocks until the run completes, is stopped or
// superseded, or ctx is done. Cancelling ctx stops the run.
func (s *Sequencer) Run(ctx context.Context, scenarioID string, onAction Handler) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	r, err := s.start(scenarioID, onAction)
	if err != nil {
		return err
	}

	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		s.StopRun(r.id)
		<-r.done
		return ctx.Err()
	}
}

func (s *Sequencer) start(scenarioID string, onAction Handler) (*run, error) {
	if s.catalog == nil {
		return nil, ErrNoCatalog
	}
	scenario, ok := s.catalog.Find(scenarioID)
	if !ok {
		s.logger.Warn().Str("scenario_id", scenarioID).Msg("scenario not found")
		return nil, fmt.Errorf("%w: %s", ErrScenarioNotFound, scenarioID)
	}

	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	previous := s.run
	superseded := previous != nil && previous.running
	s.cancelTimerLocked()
	s.generation++
	current := &run{
		id:         s.newRunID(),
		generation: s.generation,
		scenario:   scenario,
		running:    true,
		done:       make(chan struct{}),
	}
	if onAction != nil {
		current.unsubscribeAction = s.subs.add(EventActionExecuted, onAction)
	}
	s.run = current
	s.status = StatusRunning
	s.mu.Unlock()

	if superseded {
		s.release(previous, ErrRunSuperseded)
		s.logger.Info().
			Str("run_id", previous.id).
			Str("scenario_id", previous.scenario.ID).
			Msg("run superseded")
	}

	s.logger.Info().
		Str("run_id", current.id).
		Str("scenario_id", scenario.ID).
		Int("phases", len(scenario.Phases)).
		Int("actions", scenario.TotalActions()).
		Float64("speed", s.speed).
		Msg("scenario started")

	s.emit(Event{
		Name:     EventScenarioStarted,
		RunID:    current.id,
		Progress: 0,
		Payload:  ScenarioStarted{Scenario: scenario},
	})

	s.step(current.generation)
	return current, nil
}

// Stop ends the active run, if any, and resets the cursor. It always emits
// scenario_stopped.
func (s *Sequencer) Stop() {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	s.stopLocked()
}

// StopRun stops the active run only if its id is runID. It reports whether
// a run was stopped.
func (s *Sequencer) StopRun(runID string) bool {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.RLock()
	matches := s.run != nil && s.run.id == runID && s.run.running
	s.mu.RUnlock()
	if !matches {
		return false
	}
	s.stopLocked()
	return true
}

// stopLocked requires dispatchMu.
func (s *Sequencer) stopLocked() {
	s.mu.Lock()
	previous := s.run
	wasRunning := previous != nil && previous.running
	s.cancelTimerLocked()
	s.generation++
	s.run = nil
	s.status = StatusStopped
	s.mu.Unlock()

	runID := ""
	if wasRunning {
		runID = previous.id
		s.logger.Info().
			Str("run_id", previous.id).
			Str("scenario_id", previous.scenario.ID).
			Msg("scenario stopped")
	}

	s.emit(Event{
		Name:    EventScenarioStopped,
		RunID:   runID,
		Payload: ScenarioStopped{},
	})

	if wasRunning {
		s.release(previous, ErrRunStopped)
	}
}

// advance fires from the timer of the given generation.
func (s *Sequencer) advance(generation uint64) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	current := s.run
	if current == nil || !current.running || generation != s.generation {
		s.mu.Unlock()
		s.logger.Debug().Uint64("generation", generation).Msg("discarding stale advancement")
		return
	}
	s.timer = nil
	current.actionIndex++
	s.mu.Unlock()

	s.step(generation)
}

// step executes the action under the cursor, skipping empty phases, or
// completes the run. It requires dispatchMu.
func (s *Sequencer) step(generation uint64) {
	s.mu.Lock()
	current := s.run
	if current == nil || !current.running || generation != s.generation {
		s.mu.Unlock()
		return
	}

	scenario := current.scenario
	for current.phaseIndex < len(scenario.Phases) &&
		current.actionIndex >= len(scenario.Phases[current.phaseIndex].Actions) {
		current.phaseIndex++
		current.actionIndex = 0
	}

	if current.phaseIndex >= len(scenario.Phases) {
		current.running = false
		s.status = StatusCompleted
		progress := progressOf(current)
		s.mu.Unlock()

		s.logger.Info().
			Str("run_id", current.id).
			Str("scenario_id", scenario.ID).
			Msg("scenario completed")

		s.emit(Event{
			Name:     EventScenarioCompleted,
			RunID:    current.id,
			Progress: progress,
			Payload:  ScenarioCompleted{Scenario: scenario},
		})
		s.release(current, nil)
		return
	}

	phaseIndex, actionIndex := current.phaseIndex, current.actionIndex
	phase := &scenario.Phases[phaseIndex]
	action := phase.Actions[actionIndex]
	progress := progressOf(current)
	s.mu.Unlock()

	s.logger.Debug().
		Str("run_id", current.id).
		Str("phase_id", phase.ID).
		Int("action_index", actionIndex).
		Str("kind", string(action.Kind)).
		Str("target", action.Target).
		Msg("executing action")

	s.emit(Event{
		Name:     EventActionExecuted,
		RunID:    current.id,
		Progress: progress,
		Payload: ActionExecuted{
			Action:      action,
			Phase:       phase,
			Scenario:    scenario,
			PhaseIndex:  phaseIndex,
			ActionIndex: actionIndex,
		},
	})

	if payload, ok := kindPayload(action); ok {
		s.emit(Event{
			Name:     payload.EventName(),
			RunID:    current.id,
			Progress: progress,
			Payload:  payload,
		})
	} else {
		s.logger.Warn().
			Str("run_id", current.id).
			Str("kind", string(action.Kind)).
			Msg("unknown action kind")
	}

	delay := s.delayFor(action)
	s.mu.Lock()
	if generation == s.generation && current.running {
		s.timer = s.clock.AfterFunc(delay, func() { s.advance(generation) })
	}
	s.mu.Unlock()
}

func (s *Sequencer) delayFor(action scenarios.Action) time.Duration {
	delay := action.Duration.Std()
	if delay <= 0 {
		delay = s.defaultDelay
	}
	return time.Duration(float64(delay) / s.speed)
}

// cancelTimerLocked requires mu.
func (s *Sequencer) cancelTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// release detaches run-scoped handlers and wakes Run callers.
func (s *Sequencer) release(r *run, err error) {
	if r.unsubscribeAction != nil {
		r.unsubscribeAction()
	}
	r.finish(err)
}

func (s *Sequencer) emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.Now().UTC()
	}
	for _, sub := range s.subs.matching(event.Name) {
		s.deliver(sub, event)
	}
}

// deliver isolates a faulty handler from the sequencer and other handlers.
func (s *Sequencer) deliver(sub subscription, event Event) {
	defer func() {
		if recovered := recover(); recovered != nil {
			s.logger.Error().
				Str("event", string(event.Name)).
				Str("run_id", event.RunID).
				Interface("panic", recovered).
				Msg("event handler panicked")
		}
	}()
	sub.handler(event)
}
