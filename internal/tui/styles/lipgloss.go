package styles

import "github.com/charmbracelet/lipgloss"

// Styles contains lipgloss styles derived from theme tokens.
type Styles struct {
	Theme    Theme
	Title    lipgloss.Style
	Text     lipgloss.Style
	Muted    lipgloss.Style
	Accent   lipgloss.Style
	Panel    lipgloss.Style
	Selected lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Info     lipgloss.Style

	StatusIdle      lipgloss.Style
	StatusRunning   lipgloss.Style
	StatusCompleted lipgloss.Style
	StatusStopped   lipgloss.Style

	ProgressFill  lipgloss.Style
	ProgressTrack lipgloss.Style
}

// DefaultStyles builds styles from the default theme.
func DefaultStyles() Styles {
	return BuildStyles(DefaultTheme)
}

// BuildStyles converts theme tokens into lipgloss styles.
func BuildStyles(theme Theme) Styles {
	tokens := theme.Tokens
	color := func(value string) lipgloss.Color { return lipgloss.Color(value) }

	return Styles{
		Theme:    theme,
		Title:    lipgloss.NewStyle().Foreground(color(tokens.Accent)).Bold(true),
		Text:     lipgloss.NewStyle().Foreground(color(tokens.Text)),
		Muted:    lipgloss.NewStyle().Foreground(color(tokens.TextMuted)),
		Accent:   lipgloss.NewStyle().Foreground(color(tokens.Accent)),
		Panel:    lipgloss.NewStyle().Foreground(color(tokens.Text)).BorderStyle(lipgloss.RoundedBorder()).BorderForeground(color(tokens.Border)).Padding(0, 1),
		Selected: lipgloss.NewStyle().Foreground(color(tokens.Focus)).Bold(true),
		Success:  lipgloss.NewStyle().Foreground(color(tokens.Success)),
		Warning:  lipgloss.NewStyle().Foreground(color(tokens.Warning)),
		Error:    lipgloss.NewStyle().Foreground(color(tokens.Error)),
		Info:     lipgloss.NewStyle().Foreground(color(tokens.Info)),

		StatusIdle:      lipgloss.NewStyle().Foreground(color(tokens.TextMuted)),
		StatusRunning:   lipgloss.NewStyle().Foreground(color(tokens.Success)).Bold(true),
		StatusCompleted: lipgloss.NewStyle().Foreground(color(tokens.Info)),
		StatusStopped:   lipgloss.NewStyle().Foreground(color(tokens.Warning)),

		ProgressFill:  lipgloss.NewStyle().Foreground(color(tokens.Accent)),
		ProgressTrack: lipgloss.NewStyle().Foreground(color(tokens.Track)),
	}
}
