package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "semgate.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/semgate"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger
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
// 2. User config (~/.config/semgate/config.yaml)
// 3. Project config (semgate.yaml in current or parent directories)
// 4. Environment variables (SEMGATE_*)
func (l *Loader) Load() (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	// Load user config
	userConfigPath := l.userConfigPath()
	if userConfig, err := LoadFromFile(userConfigPath); err == nil {
		l.logger.Debug("Loaded user config", slog.String("path", userConfigPath))
		config.Merge(userConfig)
	} else if !os.IsNotExist(err) {
		l.logger.Warn("Failed to load user config", slog.String("path", userConfigPath), slog.String("error", err.Error()))
	}

	// Load project config
	projectConfigPath := l.findProjectConfig()
	if projectConfigPath != "" {
		if projectConfig, err := LoadFromFile(projectConfigPath); err == nil {
			l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
			config.Merge(projectConfig)
		} else {
			l.logger.Warn("Failed to load project config", slog.String("path", projectConfigPath), slog.String("error", err.Error()))
		}
	} else {
		l.logger.Debug("No project config found")
	}

	// Apply environment overrides
	l.applyEnv(config)

	// Validate final config
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// EnsureUserConfig creates the user config file with defaults if it doesn't exist
func (l *Loader) EnsureUserConfig() error {
	userConfigPath := l.userConfigPath()

	// Check if it already exists
	if _, err := os.Stat(userConfigPath); err == nil {
		return nil // Already exists
	}

	// Create default config
	config := DefaultConfig()
	if err := config.SaveToFile(userConfigPath); err != nil {
		return err
	}

	l.logger.Info("Created default user config", slog.String("path", userConfigPath))
	return nil
}

// applyEnv overrides config fields from SEMGATE_* environment variables
func (l *Loader) applyEnv(config *Config) {
	if v := os.Getenv("SEMGATE_HOST"); v != "" {
		config.Server.Host = v
	}
	if v := os.Getenv("SEMGATE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		} else {
			l.logger.Warn("Ignoring invalid SEMGATE_PORT", slog.String("value", v))
		}
	}
	if v := os.Getenv("SEMGATE_PATH"); v != "" {
		config.Server.Path = v
	}
	if v := os.Getenv("SEMGATE_BASE_URL"); v != "" {
		config.Server.BaseURL = v
	}
	if v := os.Getenv("SEMGATE_REGISTRY_ENDPOINT"); v != "" {
		config.Registry.Endpoint = v
	}
	if v := os.Getenv("SEMGATE_ECOSYSTEM_PATH"); v != "" {
		config.Ecosystem.Path = v
	}
	if v := os.Getenv("SEMGATE_ECOSYSTEM_WATCH"); v != "" {
		if watch, err := strconv.ParseBool(v); err == nil {
			config.Ecosystem.Watch = watch
		}
	}
	if v := os.Getenv("SEMGATE_UPSTREAM_TIMEOUT"); v != "" {
		if timeout, err := time.ParseDuration(v); err == nil {
			config.Upstream.Timeout = timeout
		} else {
			l.logger.Warn("Ignoring invalid SEMGATE_UPSTREAM_TIMEOUT", slog.String("value", v))
		}
	}
	if v := os.Getenv("SEMGATE_NATS_URL"); v != "" {
		config.NATS.URL = v
	}
}

// userConfigPath returns the path to the user config file
func (l *Loader) userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for semgate.yaml in current and parent directories
func (l *Loader) findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return ""
}
