// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/opencode-ai/socdemo/internal/sequencer"
	"github.com/opencode-ai/socdemo/internal/tui/styles"
)

// RenderStatusBadge renders a playback status with icon and color.
func RenderStatusBadge(styleSet styles.Styles, status sequencer.Status) string {
	icon, label, style := statusDescriptor(styleSet, status)
	return style.Render(fmt.Sprintf("%s %s", icon, label))
}

func statusDescriptor(styleSet styles.Styles, status sequencer.Status) (string, string, lipgloss.Style) {
	switch status {
	case sequencer.StatusRunning:
		return ">", "Playing", styleSet.StatusRunning
	case sequencer.StatusCompleted:
		return "OK", "Completed", styleSet.StatusCompleted
	case sequencer.StatusStopped:
		return "-", "Stopped", styleSet.StatusStopped
	default:
		return "~", "Idle", styleSet.StatusIdle
	}
}
