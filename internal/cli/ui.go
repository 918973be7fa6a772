package cli

import (
	"os"
	"strings"

	"github.com/opencode-ai/socdemo/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	uiTheme string
	uiSpeed float64
)

func init() {
	rootCmd.AddCommand(uiCmd)

	uiCmd.Flags().StringVar(&uiTheme, "theme", "", "color theme (default, high-contrast)")
	uiCmd.Flags().Float64Var(&uiSpeed, "speed", 0, "playback speed multiplier (default from config)")
}

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Launch the terminal player",
	Long: `Launch the terminal scenario player.

Keys: up/down select, enter start, s stop, q quit. There is no pause; stop
and start the scenario again instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func runTUI() error {
	if IsNonInteractive() {
		return &PreflightError{
			Message:  "the player requires an interactive terminal",
			Hint:     "Run without --non-interactive and with a TTY, or use `socdemo play`",
			NextStep: "socdemo play <scenario-id>",
		}
	}

	catalog, err := loadCatalog()
	if err != nil {
		return err
	}
	seq := newSequencer(catalog, uiSpeed)

	theme := strings.TrimSpace(uiTheme)
	if theme == "" {
		theme = GetConfig().TUI.Theme
	}
	return tui.Run(seq, tui.Options{Theme: theme})
}

func hasTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
