package sequencer

import (
	"sync"
	"time"

	"github.com/opencode-ai/socdemo/internal/scenarios"
)

// EventName identifies a sequencer notification. The string values are
// consumed by presentation layers and must not change.
type EventName string

const (
	EventScenarioStarted   EventName = "scenario_started"
	EventActionExecuted    EventName = "action_executed"
	EventScenarioCompleted EventName = "scenario_completed"
	EventScenarioStopped   EventName = "scenario_stopped"

	// Per-kind events, emitted after action_executed.
	EventNavigation  EventName = "navigation"
	EventHighlight   EventName = "highlight"
	EventDataUpdate  EventName = "data_update"
	EventAlert       EventName = "alert"
	EventExplanation EventName = "explanation"
)

// EventNames lists every event the sequencer emits.
var EventNames = []EventName{
	EventScenarioStarted,
	EventActionExecuted,
	EventScenarioCompleted,
	EventScenarioStopped,
	EventNavigation,
	EventHighlight,
	EventDataUpdate,
	EventAlert,
	EventExplanation,
}

// Event is a single notification delivered to subscribers.
type Event struct {
	Name      EventName `json:"name"`
	RunID     string    `json:"run_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// Progress is the run's completion percentage when the event fired.
	Progress float64 `json:"progress"`

	Payload Payload `json:"payload"`
}

// Payload is implemented by the per-event payload structs below.
type Payload interface {
	EventName() EventName
}

// ScenarioStarted is the payload of scenario_started.
type ScenarioStarted struct {
	Scenario *scenarios.Scenario `json:"scenario"`
}

// ActionExecuted is the payload of action_executed.
type ActionExecuted struct {
	Action      scenarios.Action    `json:"action"`
	Phase       *scenarios.Phase    `json:"phase"`
	Scenario    *scenarios.Scenario `json:"scenario"`
	PhaseIndex  int                 `json:"phase_index"`
	ActionIndex int                 `json:"action_index"`
}

// ScenarioCompleted is the payload of scenario_completed.
type ScenarioCompleted struct {
	Scenario *scenarios.Scenario `json:"scenario"`
}

// ScenarioStopped is the payload of scenario_stopped.
type ScenarioStopped struct{}

// Navigation is the payload of navigation.
type Navigation struct {
	Target string `json:"target"`
}

// Highlight is the payload of highlight.
type Highlight struct {
	Selector string `json:"selector"`
}

// DataUpdate is the payload of data_update.
type DataUpdate struct {
	Target string `json:"target"`
}

// Alert is the payload of alert.
type Alert struct {
	Content string `json:"content"`
}

// Explanation is the payload of explanation.
type Explanation struct {
	Content string `json:"content"`
}

func (ScenarioStarted) EventName() EventName   { return EventScenarioStarted }
func (ActionExecuted) EventName() EventName    { return EventActionExecuted }
func (ScenarioCompleted) EventName() EventName { return EventScenarioCompleted }
func (ScenarioStopped) EventName() EventName   { return EventScenarioStopped }
func (Navigation) EventName() EventName        { return EventNavigation }
func (Highlight) EventName() EventName         { return EventHighlight }
func (DataUpdate) EventName() EventName        { return EventDataUpdate }
func (Alert) EventName() EventName             { return EventAlert }
func (Explanation) EventName() EventName       { return EventExplanation }

// kindPayload maps an action to its per-kind event payload.
func kindPayload(action scenarios.Action) (Payload, bool) {
	switch action.Kind {
	case scenarios.ActionNavigate:
		return Navigation{Target: action.Target}, true
	case scenarios.ActionHighlight:
		return Highlight{Selector: action.Target}, true
	case scenarios.ActionDataUpdate:
		return DataUpdate{Target: action.Target}, true
	case scenarios.ActionAlert:
		return Alert{Content: action.Content}, true
	case scenarios.ActionExplanation:
		return Explanation{Content: action.Content}, true
	default:
		return nil, false
	}
}

// Handler receives events. Handlers run synchronously while the dispatch
// lock is held: they must not block, and calling Start, Stop or StopRun from
// a handler deadlocks. A handler that needs to control playback starts a
// goroutine to do it; State is safe to call directly.
type Handler func(Event)

type subscription struct {
	id      uint64
	name    EventName // empty matches every event
	handler Handler
}

type registry struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

func (r *registry) add(name EventName, handler Handler) func() {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.subs = append(r.subs, subscription{id: id, name: name, handler: handler})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(id) })
	}
}

func (r *registry) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, sub := range r.subs {
		if sub.id == id {
			r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
			return
		}
	}
}

// matching returns handlers for name in registration order.
func (r *registry) matching(name EventName) []subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]subscription, 0, len(r.subs))
	for _, sub := range r.subs {
		if sub.name == "" || sub.name == name {
			out = append(out, sub)
		}
	}
	return out
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
