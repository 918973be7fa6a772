package cli

import (
	"fmt"
	"strings"

	"github.com/opencode-ai/socdemo/internal/models"
	"github.com/opencode-ai/socdemo/internal/scenarios"
	"github.com/opencode-ai/socdemo/internal/sequencer"
)

func formatRunStatus(status sequencer.Status) string {
	label, color := statusLabelForRun(status)
	return colorize(formatStatusLabel(label, string(status)), color)
}

func formatRunOutcome(outcome string) string {
	label, color := statusLabelForOutcome(outcome)
	return colorize(formatStatusLabel(label, outcome), color)
}

func statusLabelForRun(status sequencer.Status) (string, string) {
	switch status {
	case sequencer.StatusRunning:
		return "PLAY", colorCyan
	case sequencer.StatusCompleted:
		return "OK", colorGreen
	case sequencer.StatusStopped:
		return "STOP", colorYellow
	default:
		return "IDLE", ""
	}
}

func statusLabelForOutcome(outcome string) (string, string) {
	switch outcome {
	case models.RunOutcomeCompleted:
		return "OK", colorGreen
	case models.RunOutcomeStopped:
		return "STOP", colorYellow
	default:
		return "OPEN", colorMagenta
	}
}

func colorForKind(kind scenarios.ActionKind) string {
	switch kind {
	case scenarios.ActionAlert:
		return colorRed
	case scenarios.ActionNavigate:
		return colorBlue
	case scenarios.ActionHighlight:
		return colorYellow
	case scenarios.ActionDataUpdate:
		return colorCyan
	default:
		return colorMagenta
	}
}

func formatStatusLabel(label, status string) string {
	normalized := strings.TrimSpace(status)
	if normalized != "" {
		normalized = strings.ReplaceAll(normalized, "_", " ")
	}
	if normalized == "" {
		return label
	}
	return fmt.Sprintf("%s %s", label, normalized)
}
