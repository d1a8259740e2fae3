package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "skillbox.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/skillbox"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger

	// HomeDir and WorkDir default to the user's home and the process cwd.
	HomeDir string
	WorkDir string
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/skillbox/config.yaml)
// 3. Project config (skillbox.yaml in current or parent directories)
// 4. explicit, when not empty (must exist)
// 5. SKILLBOX_* environment variables
//
// The result is not validated; callers apply their own overrides first and
// then call Validate.
func (l *Loader) Load(explicit string) (*Config, error) {
	cfg := DefaultConfig()

	if p := l.userConfigPath(); p != "" {
		if err := cfg.LoadFromFile(p); err == nil {
			l.logger.Debug("Loaded user config", slog.String("path", p))
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("user config %s: %w", p, err)
		}
	}

	if p := l.findProjectConfig(); p != "" {
		if err := cfg.LoadFromFile(p); err != nil {
			return nil, fmt.Errorf("project config %s: %w", p, err)
		}
		l.logger.Debug("Loaded project config", slog.String("path", p))
	}

	if explicit != "" {
		if err := cfg.LoadFromFile(explicit); err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded config", slog.String("path", explicit))
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	return cfg, nil
}

// EnsureUserConfig creates the user config file with defaults if it doesn't exist
func (l *Loader) EnsureUserConfig() (string, error) {
	p := l.userConfigPath()
	if p == "" {
		return "", fmt.Errorf("cannot determine home directory")
	}
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	if err := DefaultConfig().SaveToFile(p); err != nil {
		return "", err
	}
	l.logger.Info("Created default user config", slog.String("path", p))
	return p, nil
}

func (l *Loader) userConfigPath() string {
	home := l.HomeDir
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return ""
		}
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for skillbox.yaml in current and parent directories
func (l *Loader) findProjectConfig() string {
	dir := l.WorkDir
	if dir == "" {
		var err error
		if dir, err = os.Getwd(); err != nil {
			return ""
		}
	}
	for {
		p := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
