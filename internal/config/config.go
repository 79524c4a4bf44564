// Package config handles configuration loading from TOML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/xonecas/zoea-galaxy/internal/constants"
)

// Config is the root configuration structure.
type Config struct {
	Orchestrator OrchestratorConfig `toml:"orchestrator" envPrefix:"ORCHESTRATOR_"`
	Explorer     ExplorerConfig     `toml:"explorer" envPrefix:"EXPLORER_"`
	Log          LogConfig          `toml:"log" envPrefix:"LOG_"`
	Galaxy       string             `toml:"galaxy" env:"GALAXY"`
}

// OrchestratorConfig holds coordination settings.
type OrchestratorConfig struct {
	RequestTimeout  Duration `toml:"request_timeout" env:"REQUEST_TIMEOUT"`
	MailboxCapacity int      `toml:"mailbox_capacity" env:"MAILBOX_CAPACITY"`
	MaxPlanets      int      `toml:"max_planets" env:"MAX_PLANETS"`
	MaxExplorers    int      `toml:"max_explorers" env:"MAX_EXPLORERS"`
}

// ExplorerConfig holds explorer pacing settings.
type ExplorerConfig struct {
	TickInterval Duration `toml:"tick_interval" env:"TICK_INTERVAL"`
	RateLimit    float64  `toml:"rate_limit" env:"RATE_LIMIT"`
	RateBurst    int      `toml:"rate_burst" env:"RATE_BURST"`
}

// LogConfig holds logging and journal settings.
type LogConfig struct {
	Level   string `toml:"level" env:"LEVEL"`
	Journal string `toml:"journal" env:"JOURNAL"`
}

// Duration is a time.Duration that decodes from strings like "750ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for toml and env.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Orchestrator: OrchestratorConfig{
			RequestTimeout:  Duration{constants.RequestTimeout},
			MailboxCapacity: constants.MailboxCapacity,
			MaxPlanets:      constants.MaxPlanets,
			MaxExplorers:    constants.MaxExplorers,
		},
		Explorer: ExplorerConfig{
			TickInterval: Duration{constants.ExplorerTickInterval},
			RateLimit:    constants.ExplorerRateLimit,
			RateBurst:    constants.ExplorerRateBurst,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a TOML file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Load from file if it exists
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("decode %s: %w", path, err)
			}
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies ZOEA_GALAXY_* environment variables on top of cfg.
func applyEnvOverrides(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "ZOEA_GALAXY_"}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate rejects settings the runtime cannot work with.
func (c *Config) Validate() error {
	if c.Orchestrator.RequestTimeout.Duration <= 0 {
		return fmt.Errorf("orchestrator.request_timeout must be positive")
	}
	if c.Orchestrator.MailboxCapacity < 1 {
		return fmt.Errorf("orchestrator.mailbox_capacity must be at least 1")
	}
	if c.Orchestrator.MaxPlanets < 1 || c.Orchestrator.MaxExplorers < 1 {
		return fmt.Errorf("orchestrator limits must be at least 1")
	}
	if c.Explorer.TickInterval.Duration <= 0 {
		return fmt.Errorf("explorer.tick_interval must be positive")
	}
	if c.Explorer.RateLimit <= 0 || c.Explorer.RateBurst < 1 {
		return fmt.Errorf("explorer rate limit must be positive")
	}
	return nil
}

// DataDir returns the path to the data directory (~/.zoea-galaxy).
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".zoea-galaxy"), nil
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
