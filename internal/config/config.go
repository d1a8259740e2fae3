// Package config provides configuration loading for skillbox.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete skillbox configuration
type Config struct {
	API     APIConfig     `yaml:"api"`
	UI      UIConfig      `yaml:"ui"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// APIConfig points at the REST backend
type APIConfig struct {
	// BaseURL is the backend root; endpoints live under /api.
	BaseURL string `yaml:"base_url" env:"SKILLBOX_API_URL"`
	// Timeout bounds each request (0 = no client-side limit)
	Timeout time.Duration `yaml:"timeout" env:"SKILLBOX_API_TIMEOUT"`
}

// UIConfig configures the terminal front-end
type UIConfig struct {
	// Theme is one of classic, neon, mono
	Theme string `yaml:"theme" env:"SKILLBOX_THEME"`
	// AltScreen runs the TUI in the alternate screen buffer
	AltScreen bool `yaml:"alt_screen" env:"SKILLBOX_ALT_SCREEN"`
}

// LogConfig configures slog output
type LogConfig struct {
	Level string `yaml:"level" env:"SKILLBOX_LOG_LEVEL"`
	// File receives logs while the TUI owns the terminal; empty discards them
	File string `yaml:"file" env:"SKILLBOX_LOG_FILE"`
}

// MetricsConfig configures the optional Prometheus endpoint
type MetricsConfig struct {
	// Addr to serve /metrics on; empty disables it
	Addr string `yaml:"addr" env:"SKILLBOX_METRICS_ADDR"`
}

var (
	themes    = []string{"classic", "neon", "mono"}
	logLevels = []string{"debug", "info", "warn", "error"}
)

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:3000",
			Timeout: 30 * time.Second,
		},
		UI: UIConfig{
			Theme:     "classic",
			AltScreen: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url must be an http or https URL, got %q", c.API.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("api.base_url is missing a host")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	if !contains(themes, strings.ToLower(c.UI.Theme)) {
		return fmt.Errorf("ui.theme must be one of %s", strings.Join(themes, ", "))
	}
	if !contains(logLevels, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("log.level must be one of %s", strings.Join(logLevels, ", "))
	}
	return nil
}

// SlogLevel maps Log.Level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// LoadFromFile overlays a YAML file onto c; keys missing from the file keep
// their current value.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
