package cli

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// ANSI color indexes used in human output.
const (
	colorRed     = "1"
	colorGreen   = "2"
	colorYellow  = "3"
	colorBlue    = "4"
	colorMagenta = "5"
	colorCyan    = "6"
)

func colorEnabled() bool {
	if IsJSONOutput() || IsJSONLOutput() {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return hasTTY()
}

func colorize(text, color string) string {
	if !colorEnabled() || color == "" {
		return text
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(text)
}
