package cli

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opencode-ai/socdemo/internal/scenarios"
)

func TestScenarioSourceLabel(t *testing.T) {
	userDir := filepath.Join("/home", "demo", ".config", "socdemo", "scenarios")
	projectDir := filepath.Join("/work", "site", ".socdemo", "scenarios")

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"builtin", "builtin", "builtin"},
		{"user", filepath.Join(userDir, "a.yaml"), "user"},
		{"project", filepath.Join(projectDir, "nested", "b.yaml"), "project"},
		{"other file", filepath.Join("/tmp", "c.yaml"), "file"},
		{"sibling prefix is not inside", userDir + "-extra/d.yaml", "file"},
		{"empty", "", "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scenarioSourceLabel(tt.source, userDir, projectDir); got != tt.want {
				t.Errorf("scenarioSourceLabel(%q) = %q, want %q", tt.source, got, tt.want)
			}
		})
	}
}

func TestWriteScenarioDetail(t *testing.T) {
	catalog, err := scenarios.LoadBuiltinCatalog()
	if err != nil {
		t.Fatalf("LoadBuiltinCatalog() error = %v", err)
	}
	scenario, ok := catalog.Find("threat_response_demo")
	if !ok {
		t.Fatal("threat_response_demo missing from builtin catalog")
	}

	var buf bytes.Buffer
	if err := writeScenarioDetail(&buf, scenario); err != nil {
		t.Fatalf("writeScenarioDetail() error = %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, scenario.Name+" (threat_response_demo)\n") {
		t.Errorf("detail header = %q", strings.SplitN(out, "\n", 2)[0])
	}
	for i, phase := range scenario.Phases {
		if !strings.Contains(out, phase.Name) {
			t.Errorf("detail missing phase %d %q", i, phase.Name)
		}
	}
}

func TestWriteScenarioTable(t *testing.T) {
	catalog, err := scenarios.LoadBuiltinCatalog()
	if err != nil {
		t.Fatalf("LoadBuiltinCatalog() error = %v", err)
	}

	var buf bytes.Buffer
	if err := writeScenarioTable(&buf, catalog.List(), "", ""); err != nil {
		t.Fatalf("writeScenarioTable() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != catalog.Len()+1 {
		t.Fatalf("table has %d lines, want %d", len(lines), catalog.Len()+1)
	}
	if !strings.HasPrefix(lines[0], "ID") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(buf.String(), "builtin") {
		t.Error("table missing builtin source label")
	}
}

func TestResolvePlayTarget(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		preset    string
		want      string
		preflight bool
		wantErr   bool
	}{
		{"scenario arg", []string{"complete_overview"}, "", "complete_overview", false, false},
		{"trimmed arg", []string{"  threat_response_demo "}, "", "threat_response_demo", false, false},
		{"preset", nil, "client_presentation", "complete_overview", false, false},
		{"preset case insensitive", nil, "TECHNICAL_DEMO", "complete_overview", false, false},
		{"unknown preset", nil, "nope", "", true, true},
		{"both", []string{"complete_overview"}, "technical_demo", "", false, true},
		{"neither", nil, "", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolvePlayTarget(tt.args, tt.preset)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolvePlayTarget() error = %v, wantErr %v", err, tt.wantErr)
			}
			var preflight *PreflightError
			if errors.As(err, &preflight) != tt.preflight {
				t.Errorf("resolvePlayTarget() preflight = %v, want %v", !tt.preflight, tt.preflight)
			}
			if got != tt.want {
				t.Errorf("resolvePlayTarget() = %q, want %q", got, tt.want)
			}
		})
	}
}
