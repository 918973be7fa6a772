// Package scenarios defines the demo scenario catalog: scenarios made of
// phases made of timed actions.
package scenarios

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultActionDuration is the delay applied to actions without a duration.
const DefaultActionDuration = 5 * time.Second

// Scenario is a named, ordered demo script.
type Scenario struct {
	ID             string   `yaml:"id" json:"id"`
	Name           string   `yaml:"name" json:"name"`
	Description    string   `yaml:"description" json:"description"`
	Duration       Duration `yaml:"duration,omitempty" json:"duration"`
	TargetAudience []string `yaml:"target_audience,omitempty" json:"target_audience,omitempty"`
	KeyFeatures    []string `yaml:"key_features,omitempty" json:"key_features,omitempty"`
	Phases         []Phase  `yaml:"phases" json:"phases"`
	Source         string   `yaml:"-" json:"source,omitempty"` // file path or "builtin"
}

// Phase is a named sub-section of a scenario.
type Phase struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Duration    Duration `yaml:"duration,omitempty" json:"duration"`
	Actions     []Action `yaml:"actions" json:"actions"`
}

// Action is a single timed step.
type Action struct {
	Kind     ActionKind `yaml:"type" json:"type"`
	Target   string     `yaml:"target" json:"target"`
	Content  string     `yaml:"content" json:"content"`
	Duration Duration   `yaml:"duration,omitempty" json:"duration,omitempty"`
}

// Delay returns how long the action stays on screen before advancing.
func (a Action) Delay() time.Duration {
	if a.Duration <= 0 {
		return DefaultActionDuration
	}
	return a.Duration.Std()
}

// ActionKind defines what an action does when executed.
type ActionKind string

const (
	ActionNavigate    ActionKind = "navigate"
	ActionHighlight   ActionKind = "highlight"
	ActionDataUpdate  ActionKind = "data_update"
	ActionAlert       ActionKind = "alert"
	ActionExplanation ActionKind = "explanation"
)

// ActionKinds lists every valid kind.
var ActionKinds = []ActionKind{
	ActionNavigate,
	ActionHighlight,
	ActionDataUpdate,
	ActionAlert,
	ActionExplanation,
}

// Valid reports whether k is a known kind.
func (k ActionKind) Valid() bool {
	for _, known := range ActionKinds {
		if k == known {
			return true
		}
	}
	return false
}

// TotalActions counts actions across all phases.
func (s *Scenario) TotalActions() int {
	if s == nil {
		return 0
	}
	total := 0
	for _, phase := range s.Phases {
		total += len(phase.Actions)
	}
	return total
}

// PlaybackLength sums action delays, i.e. how long a run takes at speed 1.
func (s *Scenario) PlaybackLength() time.Duration {
	if s == nil {
		return 0
	}
	var total time.Duration
	for _, phase := range s.Phases {
		for _, action := range phase.Actions {
			total += action.Delay()
		}
	}
	return total
}

// Duration is a millisecond-resolution duration. It decodes from YAML as
// integer milliseconds or as a Go duration string, and encodes to JSON as
// integer milliseconds.
type Duration time.Duration

// Milliseconds builds a Duration from a millisecond count.
func Milliseconds(ms int64) Duration {
	return Duration(time.Duration(ms) * time.Millisecond)
}

// Std converts to time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Milliseconds returns the value in milliseconds.
func (d Duration) Milliseconds() int64 {
	return time.Duration(d).Milliseconds()
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar")
	}
	parsed, err := parseDuration(node.Value)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.Milliseconds(), nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Milliseconds())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var ms int64
	if err := json.Unmarshal(data, &ms); err == nil {
		*d = Milliseconds(ms)
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("duration must be milliseconds or a duration string")
	}
	parsed, err := parseDuration(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func parseDuration(raw string) (Duration, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, nil
	}
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return Milliseconds(ms), nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	return Duration(parsed), nil
}
