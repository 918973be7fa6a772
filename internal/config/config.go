// Package config loads socdemo configuration from file, environment and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the top-level socdemo configuration.
type Config struct {
	Playback PlaybackConfig `mapstructure:"playback"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Server   ServerConfig   `mapstructure:"server"`
	TUI      TUIConfig      `mapstructure:"tui"`
}

// PlaybackConfig controls the scenario sequencer.
type PlaybackConfig struct {
	// Speed scales action delays: 2 plays twice as fast.
	Speed float64 `mapstructure:"speed"`

	// DefaultActionDuration applies to actions without a duration.
	DefaultActionDuration time.Duration `mapstructure:"default_action_duration"`

	// ScenariosDir is an extra directory searched before project and user dirs.
	ScenariosDir string `mapstructure:"scenarios_dir"`
}

// DatabaseConfig points at the playback journal.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig controls `socdemo serve`.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// TUIConfig controls the terminal player.
type TUIConfig struct {
	Theme string `mapstructure:"theme"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Playback: PlaybackConfig{
			Speed:                 1,
			DefaultActionDuration: 5 * time.Second,
		},
		Database: DatabaseConfig{
			Path: defaultDatabasePath(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:7420",
		},
		TUI: TUIConfig{
			Theme: "default",
		},
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Playback.Speed <= 0 {
		return fmt.Errorf("playback.speed must be greater than 0")
	}
	if c.Playback.Speed > 1000 {
		return fmt.Errorf("playback.speed must be at most 1000")
	}
	if c.Playback.DefaultActionDuration <= 0 {
		return fmt.Errorf("playback.default_action_duration must be greater than 0")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server.addr is required")
	}
	return nil
}

// DefaultConfigPath returns ~/.config/socdemo/config.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".config", "socdemo", "config.yaml"), nil
}

func defaultDatabasePath() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "socdemo", "journal.db")
	}
	return "socdemo.db"
}
