package styles

import "strings"

// ThemeTokens defines the semantic color roles for the TUI.
type ThemeTokens struct {
	Background string
	Panel      string
	Text       string
	TextMuted  string
	Border     string
	Accent     string
	Focus      string
	Success    string
	Warning    string
	Error      string
	Info       string
	Track      string
}

// Theme bundles a palette with a name.
type Theme struct {
	Name   string
	Tokens ThemeTokens
}

// Themes lists available palettes by name.
var Themes = map[string]Theme{
	"default":       DefaultTheme,
	"high-contrast": HighContrastTheme,
}

// Lookup finds a theme by name, case-insensitively. An empty name is the
// default theme.
func Lookup(name string) (Theme, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultTheme, true
	}
	theme, ok := Themes[name]
	return theme, ok
}

// ThemeNames returns the theme names in display order.
func ThemeNames() []string {
	return []string{DefaultTheme.Name, HighContrastTheme.Name}
}
