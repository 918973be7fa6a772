package scenarios

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrPresetNotFound is returned when a preset name is unknown.
var ErrPresetNotFound = errors.New("preset not found")

// Preset is a named presentation script built on a catalog scenario.
type Preset struct {
	Name        string        `json:"name"`
	ScenarioID  string        `json:"scenario_id"`
	Description string        `json:"description"`
	Duration    time.Duration `json:"duration"`
	Highlights  []Highlight   `json:"highlights,omitempty"`
}

// Highlight is a page the presenter should dwell on during a preset.
type Highlight struct {
	Page     string        `json:"page"`
	Focus    string        `json:"focus"`
	Duration time.Duration `json:"duration"`
}

var builtinPresets = []Preset{
	{
		Name:        "client_presentation",
		ScenarioID:  "complete_overview",
		Description: "Five minute customer walkthrough",
		Duration:    5 * time.Minute,
		Highlights: []Highlight{
			{Page: "security-overview", Focus: "core metrics", Duration: 60 * time.Second},
			{Page: "device-identification", Focus: "device classification", Duration: 90 * time.Second},
			{Page: "soc-dashboard", Focus: "live monitoring wall", Duration: 120 * time.Second},
			{Page: "ai-analysis", Focus: "AI analysis", Duration: 60 * time.Second},
			{Page: "threat-intelligence", Focus: "threat intelligence", Duration: 30 * time.Second},
		},
	},
	{
		Name:        "technical_demo",
		ScenarioID:  "complete_overview",
		Description: "In-depth technical walkthrough of every module",
		Duration:    30 * time.Minute,
	},
	{
		Name:        "threat_response_demo",
		ScenarioID:  "threat_response_demo",
		Description: "End-to-end detection, analysis and response drill",
		Duration:    15 * time.Minute,
	},
}

// Presets returns the bundled presets.
func Presets() []Preset {
	out := make([]Preset, len(builtinPresets))
	copy(out, builtinPresets)
	return out
}

// FindPreset looks a bundled preset up by name, case-insensitively.
func FindPreset(name string) (Preset, error) {
	return LookupPreset(builtinPresets, name)
}

// LookupPreset looks name up in presets, case-insensitively.
func LookupPreset(presets []Preset, name string) (Preset, error) {
	name = strings.TrimSpace(name)
	for _, preset := range presets {
		if strings.EqualFold(preset.Name, name) {
			return preset, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %s", ErrPresetNotFound, name)
}

// ValidatePresets checks that every preset points at a scenario in catalog.
func ValidatePresets(catalog *Catalog, presets []Preset) error {
	for _, preset := range presets {
		if _, ok := catalog.Find(preset.ScenarioID); !ok {
			return fmt.Errorf("preset %q references unknown scenario %q", preset.Name, preset.ScenarioID)
		}
	}
	return nil
}
