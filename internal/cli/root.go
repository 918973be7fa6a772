// Package cli implements the socdemo command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/opencode-ai/socdemo/internal/config"
	"github.com/opencode-ai/socdemo/internal/db"
	"github.com/opencode-ai/socdemo/internal/logging"
	"github.com/opencode-ai/socdemo/internal/scenarios"
	"github.com/opencode-ai/socdemo/internal/sequencer"
	"github.com/spf13/cobra"
)

var (
	cfgFile        string
	jsonOutput     bool
	jsonlOutput    bool
	logLevel       string
	logFormat      string
	noProgress     bool
	nonInteractive bool
	scenariosDir   string

	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "socdemo",
	Short: "Scripted demo playback for the security operations dashboard",
	Long: `socdemo plays scripted demo scenarios for the security operations dashboard.

A scenario is an ordered list of phases, each a list of timed actions
(navigate, highlight, data_update, alert, explanation). socdemo walks the
actions on a timer and reports each step to the terminal, the TUI player or
HTTP clients.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ~/.config/socdemo/config.yaml)")
	flags.BoolVar(&jsonOutput, "json", false, "output JSON")
	flags.BoolVar(&jsonlOutput, "jsonl", false, "output JSON lines")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&logFormat, "log-format", "", "log format (console, json)")
	flags.BoolVar(&noProgress, "no-progress", false, "disable progress output")
	flags.BoolVar(&nonInteractive, "non-interactive", false, "never prompt; fail instead")
	flags.StringVar(&scenariosDir, "scenarios-dir", "", "extra directory of scenario YAML files")
}

// Execute runs the root command.
func Execute(version string) error {
	rootCmd.Version = version
	return rootCmd.Execute()
}

func initConfig(cmd *cobra.Command, args []string) error {
	if jsonOutput && jsonlOutput {
		return fmt.Errorf("--json and --jsonl are mutually exclusive")
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		next := "socdemo --config <file>"
		if path, pathErr := config.DefaultConfigPath(); pathErr == nil {
			next = "socdemo --config " + path
		}
		return &PreflightError{
			Message:  fmt.Sprintf("failed to load config: %v", err),
			Hint:     "Check the file passed with --config and SOCDEMO_* environment variables",
			NextStep: next,
		}
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if scenariosDir != "" {
		cfg.Playback.ScenariosDir = scenariosDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	}); err != nil {
		return err
	}

	appConfig = cfg
	logger := logging.Component("cli")
	logger.Debug().
		Str("command", cmd.CommandPath()).
		Str("config", cfgFile).
		Msg("config loaded")
	return nil
}

// GetConfig returns the loaded config, or defaults before initConfig ran.
func GetConfig() *config.Config {
	if appConfig == nil {
		return config.DefaultConfig()
	}
	return appConfig
}

func loadCatalog() (*scenarios.Catalog, error) {
	projectDir, err := os.Getwd()
	if err != nil {
		projectDir = ""
	}
	progress := beginStep(os.Stderr, "Loading scenarios")
	catalog, err := scenarios.LoadCatalogFromSearchPaths(projectDir, GetConfig().Playback.ScenariosDir)
	if err != nil {
		progress.end("", err)
		return nil, fmt.Errorf("failed to load scenarios: %w", err)
	}
	progress.end(fmt.Sprintf("%d found", catalog.Len()), nil)
	return catalog, nil
}

func newSequencer(catalog *scenarios.Catalog, speed float64) *sequencer.Sequencer {
	cfg := GetConfig()
	if speed <= 0 {
		speed = cfg.Playback.Speed
	}
	return sequencer.New(catalog,
		sequencer.WithSpeed(speed),
		sequencer.WithDefaultActionDuration(cfg.Playback.DefaultActionDuration),
	)
}

func openDatabase() (*db.DB, error) {
	path := strings.TrimSpace(GetConfig().Database.Path)
	progress := beginStep(os.Stderr, "Opening playback journal")
	database, err := db.OpenAndMigrate(context.Background(), path)
	if err != nil {
		progress.end("", err)
		return nil, &PreflightError{
			Message:  fmt.Sprintf("failed to open playback journal: %v", err),
			Hint:     "Set database.path in the config file or SOCDEMO_DATABASE_PATH",
			NextStep: "socdemo history list --config <file>",
		}
	}
	progress.end(path, nil)
	return database, nil
}
