package components

import (
	"strings"
	"testing"

	"github.com/opencode-ai/socdemo/internal/scenarios"
	"github.com/opencode-ai/socdemo/internal/sequencer"
	"github.com/opencode-ai/socdemo/internal/tui/styles"
)

func TestRenderStatusBadge(t *testing.T) {
	styleSet := styles.DefaultStyles()

	tests := []struct {
		status sequencer.Status
		want   string
	}{
		{sequencer.StatusRunning, "Playing"},
		{sequencer.StatusCompleted, "Completed"},
		{sequencer.StatusStopped, "Stopped"},
		{sequencer.StatusIdle, "Idle"},
		{"", "Idle"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := RenderStatusBadge(styleSet, tt.status); !strings.Contains(got, tt.want) {
				t.Fatalf("badge %q does not contain %q", got, tt.want)
			}
		})
	}
}

func TestRenderProgressBar(t *testing.T) {
	styleSet := styles.DefaultStyles()

	tests := []struct {
		percent float64
		filled  int
		label   string
	}{
		{0, 0, "  0%"},
		{50, 5, " 50%"},
		{100, 10, "100%"},
		{150, 10, "100%"},
		{-5, 0, "  0%"},
	}

	for _, tt := range tests {
		got := RenderProgressBar(styleSet, tt.percent, 10)
		if n := strings.Count(got, progressFillRune); n != tt.filled {
			t.Errorf("percent %v: %d filled cells, want %d", tt.percent, n, tt.filled)
		}
		if n := strings.Count(got, progressTrackRune); n != 10-tt.filled {
			t.Errorf("percent %v: %d track cells, want %d", tt.percent, n, 10-tt.filled)
		}
		if !strings.HasSuffix(got, tt.label) {
			t.Errorf("percent %v: %q does not end with %q", tt.percent, got, tt.label)
		}
	}
}

func TestEmptyStateRender(t *testing.T) {
	got := NoScenariosState().Render(styles.DefaultStyles())
	for _, want := range []string{"No scenarios available", "Try:", "socdemo scenario list"} {
		if !strings.Contains(got, want) {
			t.Errorf("render missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(IdlePlayerState().Render(styles.DefaultStyles()), "Try:") {
		t.Error("idle state should have no suggestions")
	}
}

func TestEventLogKeepsMostRecent(t *testing.T) {
	log := NewEventLog(2)
	for _, content := range []string{"one", "two", "three"} {
		log = log.Append(sequencer.Event{Name: sequencer.EventAlert, Payload: sequencer.Alert{Content: content}})
	}
	if log.Len() != 2 {
		t.Fatalf("Len() = %d", log.Len())
	}

	rendered := log.Render(styles.DefaultStyles())
	if strings.Contains(rendered, "one") || !strings.Contains(rendered, "two") || !strings.Contains(rendered, "three") {
		t.Fatalf("unexpected log:\n%s", rendered)
	}
	if !strings.Contains(NewEventLog(3).Render(styles.DefaultStyles()), "No events yet.") {
		t.Fatal("empty log placeholder missing")
	}
}

func TestDescribeEvent(t *testing.T) {
	phase := &scenarios.Phase{Name: "Monitoring"}
	tests := []struct {
		event sequencer.Event
		want  string
	}{
		{sequencer.Event{Payload: sequencer.ScenarioStarted{Scenario: &scenarios.Scenario{Name: "Overview"}}}, "Overview"},
		{sequencer.Event{Payload: sequencer.ActionExecuted{Phase: phase, Action: scenarios.Action{Kind: scenarios.ActionHighlight, Target: "#kpi"}}}, "[Monitoring] highlight #kpi"},
		{sequencer.Event{Payload: sequencer.Highlight{Selector: "#kpi"}}, "#kpi"},
		{sequencer.Event{Payload: sequencer.Explanation{Content: "why"}}, "why"},
		{sequencer.Event{Payload: sequencer.ScenarioStopped{}}, ""},
	}

	for _, tt := range tests {
		if got := DescribeEvent(tt.event); got != tt.want {
			t.Errorf("DescribeEvent(%T) = %q, want %q", tt.event.Payload, got, tt.want)
		}
	}
}
