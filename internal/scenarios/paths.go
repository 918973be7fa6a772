package scenarios

import (
	"os"
	"path/filepath"
)

// SearchPaths returns scenario directories in precedence order.
func SearchPaths(projectDir, extraDir string) []string {
	paths := make([]string, 0, 3)
	if extraDir != "" {
		paths = append(paths, extraDir)
	}
	if projectDir != "" {
		paths = append(paths, filepath.Join(projectDir, ".socdemo", "scenarios"))
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".config", "socdemo", "scenarios"))
	}
	return paths
}

// LoadCatalogFromSearchPaths merges scenarios from the search paths and the
// builtins. The first scenario seen for an id wins.
func LoadCatalogFromSearchPaths(projectDir, extraDir string) (*Catalog, error) {
	seen := make(map[string]struct{})
	merged := make([]*Scenario, 0)

	add := func(items []*Scenario) {
		for _, item := range items {
			if _, exists := seen[item.ID]; exists {
				continue
			}
			seen[item.ID] = struct{}{}
			merged = append(merged, item)
		}
	}

	for _, dir := range SearchPaths(projectDir, extraDir) {
		items, err := LoadScenariosFromDir(dir)
		if err != nil {
			return nil, err
		}
		add(items)
	}

	builtins, err := LoadBuiltinScenarios()
	if err != nil {
		return nil, err
	}
	add(builtins)

	return NewCatalog(merged...)
}
