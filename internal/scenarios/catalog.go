package scenarios

import (
	"errors"
	"fmt"
	"strings"
)

// Catalog errors.
var (
	ErrDuplicateScenario = errors.New("duplicate scenario id")
	ErrInvalidScenario   = errors.New("invalid scenario")
)

// Catalog is an immutable, ordered set of scenarios. Scenarios returned from
// a Catalog are shared and must be treated as read-only.
type Catalog struct {
	scenarios []*Scenario
}

// NewCatalog builds a catalog, keeping the given order.
func NewCatalog(items ...*Scenario) (*Catalog, error) {
	seen := make(map[string]struct{}, len(items))
	list := make([]*Scenario, 0, len(items))
	for i, item := range items {
		if item == nil {
			return nil, fmt.Errorf("%w: entry %d is nil", ErrInvalidScenario, i)
		}
		id := strings.TrimSpace(item.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: entry %d has no id", ErrInvalidScenario, i)
		}
		if _, exists := seen[id]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateScenario, id)
		}
		seen[id] = struct{}{}
		list = append(list, item)
	}
	return &Catalog{scenarios: list}, nil
}

// Find looks a scenario up by id.
func (c *Catalog) Find(id string) (*Scenario, bool) {
	if c == nil {
		return nil, false
	}
	for _, scenario := range c.scenarios {
		if scenario.ID == id {
			return scenario, true
		}
	}
	return nil, false
}

// List returns the scenarios in catalog order.
func (c *Catalog) List() []*Scenario {
	if c == nil {
		return nil
	}
	out := make([]*Scenario, len(c.scenarios))
	copy(out, c.scenarios)
	return out
}

// Len returns the number of scenarios.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.scenarios)
}

// Filter returns scenarios whose audience tags match any of audience and
// whose feature tags match any of features. Empty filters match everything.
func (c *Catalog) Filter(audience, features []string) []*Scenario {
	out := make([]*Scenario, 0)
	for _, scenario := range c.List() {
		if !matchesAny(scenario.TargetAudience, audience) {
			continue
		}
		if !matchesAny(scenario.KeyFeatures, features) {
			continue
		}
		out = append(out, scenario)
	}
	return out
}

func matchesAny(tags, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, want := range filter {
		want = strings.TrimSpace(want)
		if want == "" {
			continue
		}
		for _, tag := range tags {
			if strings.EqualFold(tag, want) {
				return true
			}
		}
	}
	return false
}
