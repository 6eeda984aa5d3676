package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Manager handles configuration loading.
type Manager struct {
	config *Config
	viper  *viper.Viper
}

// NewManager creates a new configuration manager.
func NewManager() (*Manager, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")

	configDir, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to determine config directory: %w", err)
	}
	v.AddConfigPath(configDir)
	v.AddConfigPath(".") // Current directory for development

	v.SetEnvPrefix("SHADE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Log env vars keep the short names the logging package documents.
	if err := v.BindEnv("logging.level", "SHADE_LOG_LEVEL"); err != nil {
		return nil, fmt.Errorf("failed to bind SHADE_LOG_LEVEL: %w", err)
	}
	if err := v.BindEnv("logging.format", "SHADE_LOG_FORMAT"); err != nil {
		return nil, fmt.Errorf("failed to bind SHADE_LOG_FORMAT: %w", err)
	}

	return &Manager{viper: v}, nil
}

// Load loads the configuration from file and environment variables.
// A missing config file is fine; defaults and environment apply.
func (m *Manager) Load() error {
	m.setDefaults()

	if err := m.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := &Config{}
	if err := m.viper.Unmarshal(config); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := normalizeConfig(config); err != nil {
		return err
	}
	if err := validateConfig(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	m.config = config
	return nil
}

func (m *Manager) setDefaults() {
	defaults := DefaultConfig()
	m.viper.SetDefault("logging.level", defaults.Logging.Level)
	m.viper.SetDefault("logging.format", defaults.Logging.Format)
	m.viper.SetDefault("backend.source", defaults.Backend.Source)
	m.viper.SetDefault("backend.file_path", defaults.Backend.FilePath)
}

// Get returns the loaded configuration, or defaults when Load has not run.
func (m *Manager) Get() *Config {
	if m.config == nil {
		return DefaultConfig()
	}
	return m.config
}

// Load is the package-level convenience used by the CLI: build a manager,
// load, return the config.
func Load() (*Config, error) {
	manager, err := NewManager()
	if err != nil {
		return nil, err
	}
	if err := manager.Load(); err != nil {
		return nil, err
	}
	return manager.Get(), nil
}
