package sequencer

import "github.com/opencode-ai/socdemo/internal/scenarios"

// Snapshot is a point-in-time copy of the run state.
type Snapshot struct {
	Running     bool                `json:"running"`
	Status      Status              `json:"status"`
	RunID       string              `json:"run_id,omitempty"`
	Scenario    *scenarios.Scenario `json:"scenario,omitempty"`
	PhaseIndex  int                 `json:"phase_index"`
	ActionIndex int                 `json:"action_index"`

	// Progress is the completion percentage in [0, 100].
	Progress float64 `json:"progress"`
}

// CurrentPhase returns the phase under the cursor, or nil.
func (s Snapshot) CurrentPhase() *scenarios.Phase {
	if s.Scenario == nil || s.PhaseIndex < 0 || s.PhaseIndex >= len(s.Scenario.Phases) {
		return nil
	}
	return &s.Scenario.Phases[s.PhaseIndex]
}

// CurrentAction returns the action under the cursor, or nil.
func (s Snapshot) CurrentAction() *scenarios.Action {
	phase := s.CurrentPhase()
	if phase == nil || s.ActionIndex < 0 || s.ActionIndex >= len(phase.Actions) {
		return nil
	}
	return &phase.Actions[s.ActionIndex]
}

// State returns a snapshot of the run state. It is safe to call from handlers.
func (s *Sequencer) State() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := Snapshot{Status: s.status}
	if s.run == nil {
		return snapshot
	}
	snapshot.Running = s.run.running
	snapshot.RunID = s.run.id
	snapshot.Scenario = s.run.scenario
	snapshot.PhaseIndex = s.run.phaseIndex
	snapshot.ActionIndex = s.run.actionIndex
	snapshot.Progress = progressOf(s.run)
	return snapshot
}

// progressOf counts actions in earlier phases plus the action index, over
// the scenario total. A scenario without actions reports 0.
func progressOf(r *run) float64 {
	if r == nil || r.scenario == nil {
		return 0
	}
	total := r.scenario.TotalActions()
	if total == 0 {
		return 0
	}

	completed := 0
	for i := 0; i < r.phaseIndex && i < len(r.scenario.Phases); i++ {
		completed += len(r.scenario.Phases[i].Actions)
	}
	completed += r.actionIndex
	if completed > total {
		completed = total
	}
	return 100 * float64(completed) / float64(total)
}
