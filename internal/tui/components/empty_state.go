package components

import (
	"fmt"
	"strings"

	"github.com/opencode-ai/socdemo/internal/tui/styles"
)

// EmptyState represents an empty state message with optional suggestions.
type EmptyState struct {
	// Title is the main empty state message.
	Title string
	// Subtitle is an optional secondary message.
	Subtitle string
	// Suggestions are actionable commands the user can run.
	Suggestions []Suggestion
}

// Suggestion represents a suggested command with description.
type Suggestion struct {
	Command     string
	Description string
}

// Render renders the empty state with the given styles.
func (e EmptyState) Render(styleSet styles.Styles) string {
	lines := []string{styleSet.Muted.Render(e.Title)}
	if e.Subtitle != "" {
		lines = append(lines, styleSet.Muted.Render(e.Subtitle))
	}

	if len(e.Suggestions) > 0 {
		lines = append(lines, "", styleSet.Text.Render("Try:"))
		for _, s := range e.Suggestions {
			line := fmt.Sprintf("  %s", styleSet.Accent.Render(s.Command))
			if s.Description != "" {
				line += styleSet.Muted.Render(fmt.Sprintf("  # %s", s.Description))
			}
			lines = append(lines, line)
		}
	}

	return strings.Join(lines, "\n")
}

// NoScenariosState is shown when the catalog is empty.
func NoScenariosState() EmptyState {
	return EmptyState{
		Title:    "No scenarios available",
		Subtitle: "Add scenario YAML files to a scenarios directory.",
		Suggestions: []Suggestion{
			{Command: "socdemo scenario list", Description: "show where scenarios are loaded from"},
			{Command: "socdemo ui --scenarios-dir ./scenarios", Description: "load an extra directory"},
		},
	}
}

// IdlePlayerState is shown before any scenario was started.
func IdlePlayerState() EmptyState {
	return EmptyState{
		Title:    "Nothing playing",
		Subtitle: "Select a scenario and press enter to start.",
	}
}
