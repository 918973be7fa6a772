package scenarios

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadScenario reads a single scenario from disk.
func LoadScenario(path string) (*Scenario, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("scenario path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	scenario, err := parseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	scenario.Source = path
	return scenario, nil
}

// LoadScenariosFromDir loads every .yaml/.yml scenario in dir, sorted by id.
// A missing directory yields an empty list.
func LoadScenariosFromDir(dir string) ([]*Scenario, error) {
	if strings.TrimSpace(dir) == "" {
		return []*Scenario{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Scenario{}, nil
		}
		return nil, fmt.Errorf("read scenarios dir %s: %w", dir, err)
	}

	loaded := make([]*Scenario, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		scenario, err := LoadScenario(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, scenario)
	}

	sort.Slice(loaded, func(i, j int) bool {
		return loaded[i].ID < loaded[j].ID
	})
	return loaded, nil
}

func parseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if err := normalizeScenario(&scenario); err != nil {
		return nil, err
	}
	return &scenario, nil
}

func normalizeScenario(s *Scenario) error {
	s.ID = strings.TrimSpace(s.ID)
	if s.ID == "" {
		return fmt.Errorf("scenario id is required")
	}
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return fmt.Errorf("scenario %q: name is required", s.ID)
	}
	s.Description = strings.TrimSpace(s.Description)
	if s.Duration < 0 {
		return fmt.Errorf("scenario %q: duration must not be negative", s.ID)
	}
	s.TargetAudience = trimTags(s.TargetAudience)
	s.KeyFeatures = trimTags(s.KeyFeatures)

	if len(s.Phases) == 0 {
		return fmt.Errorf("scenario %q: phases are required", s.ID)
	}

	seen := make(map[string]struct{}, len(s.Phases))
	for i := range s.Phases {
		phase := &s.Phases[i]
		phase.ID = strings.TrimSpace(phase.ID)
		if phase.ID == "" {
			return fmt.Errorf("scenario %q phase %d: id is required", s.ID, i+1)
		}
		if _, exists := seen[phase.ID]; exists {
			return fmt.Errorf("scenario %q: duplicate phase id %q", s.ID, phase.ID)
		}
		seen[phase.ID] = struct{}{}
		phase.Name = strings.TrimSpace(phase.Name)
		phase.Description = strings.TrimSpace(phase.Description)
		if phase.Duration < 0 {
			return fmt.Errorf("scenario %q phase %q: duration must not be negative", s.ID, phase.ID)
		}

		for j := range phase.Actions {
			if err := normalizeAction(&phase.Actions[j]); err != nil {
				return fmt.Errorf("scenario %q phase %q action %d: %w", s.ID, phase.ID, j+1, err)
			}
		}
	}
	return nil
}

func normalizeAction(action *Action) error {
	action.Kind = ActionKind(strings.ToLower(strings.TrimSpace(string(action.Kind))))
	action.Target = strings.TrimSpace(action.Target)
	action.Content = strings.TrimSpace(action.Content)

	if !action.Kind.Valid() {
		return fmt.Errorf("unknown action type %q", action.Kind)
	}
	if action.Target == "" {
		return fmt.Errorf("%s target is required", action.Kind)
	}
	if action.Content == "" {
		return fmt.Errorf("%s content is required", action.Kind)
	}
	if action.Duration < 0 {
		return fmt.Errorf("duration must not be negative")
	}
	return nil
}

func trimTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
