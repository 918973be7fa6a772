package styles

// DefaultTheme is the dark operations-center palette.
var DefaultTheme = Theme{
	Name: "default",
	Tokens: ThemeTokens{
		Background: "#0B1220",
		Panel:      "#111A2E",
		Text:       "#E2E8F0",
		TextMuted:  "#7C8BA1",
		Border:     "#23324D",
		Accent:     "#38BDF8",
		Focus:      "#A78BFA",
		Success:    "#22C55E",
		Warning:    "#F59E0B",
		Error:      "#EF4444",
		Info:       "#60A5FA",
		Track:      "#1E293B",
	},
}
