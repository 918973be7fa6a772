package styles

// HighContrastTheme favors visibility on projectors and low-contrast terminals.
var HighContrastTheme = Theme{
	Name: "high-contrast",
	Tokens: ThemeTokens{
		Background: "#000000",
		Panel:      "#000000",
		Text:       "#FFFFFF",
		TextMuted:  "#D0D0D0",
		Border:     "#FFFFFF",
		Accent:     "#00E5FF",
		Focus:      "#FFEA00",
		Success:    "#00FF66",
		Warning:    "#FFC400",
		Error:      "#FF3B3B",
		Info:       "#80D8FF",
		Track:      "#555555",
	},
}
