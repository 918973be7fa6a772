package scenarios

import (
	"embed"
	"fmt"
	"io/fs"
	"sync"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// builtinOrder fixes the catalog order of bundled scenarios.
var builtinOrder = []string{
	"complete_overview.yaml",
	"threat_response_demo.yaml",
}

var (
	builtinOnce    sync.Once
	builtinCatalog *Catalog
	builtinErr     error
)

// LoadBuiltinScenarios parses the bundled scenarios.
func LoadBuiltinScenarios() ([]*Scenario, error) {
	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		return nil, fmt.Errorf("read builtin scenarios: %w", err)
	}
	byName := make(map[string]fs.DirEntry, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			byName[entry.Name()] = entry
		}
	}

	loaded := make([]*Scenario, 0, len(byName))
	for _, name := range builtinOrder {
		if _, ok := byName[name]; !ok {
			return nil, fmt.Errorf("builtin scenario %s is missing", name)
		}
		data, err := builtinFS.ReadFile("builtin/" + name)
		if err != nil {
			return nil, fmt.Errorf("read builtin scenario %s: %w", name, err)
		}
		scenario, err := parseScenario(data)
		if err != nil {
			return nil, fmt.Errorf("parse builtin scenario %s: %w", name, err)
		}
		scenario.Source = "builtin"
		loaded = append(loaded, scenario)
	}
	return loaded, nil
}

// LoadBuiltinCatalog returns the shared catalog of bundled scenarios.
func LoadBuiltinCatalog() (*Catalog, error) {
	builtinOnce.Do(func() {
		var loaded []*Scenario
		loaded, builtinErr = LoadBuiltinScenarios()
		if builtinErr != nil {
			return
		}
		builtinCatalog, builtinErr = NewCatalog(loaded...)
	})
	return builtinCatalog, builtinErr
}
