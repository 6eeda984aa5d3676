// Package config loads the shade CLI configuration: TOML file plus
// SHADE_-prefixed environment variables, viper underneath.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Backend source selection values.
const (
	SourceAuto     = "auto"
	SourceRegistry = "registry"
	SourceFile     = "file"
)

// Config is the merged CLI configuration.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Backend BackendConfig `mapstructure:"backend"`
}

// LoggingConfig controls the zerolog output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// BackendConfig selects the settings backend.
type BackendConfig struct {
	// Source is auto, registry or file. Auto picks the registry on
	// Windows and the file store everywhere else.
	Source string `mapstructure:"source"`

	// FilePath is the JSON document backing the file store. Empty means
	// the default under the user config directory.
	FilePath string `mapstructure:"file_path"`
}

// Default configuration values.
const (
	defaultLogLevel  = "info"
	defaultLogFormat = "console"
	defaultSource    = SourceAuto
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Backend: BackendConfig{
			Source: defaultSource,
		},
	}
}

// GetConfigDir returns the directory holding config.toml.
func GetConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("determine user config directory: %w", err)
	}
	return filepath.Join(base, "shade"), nil
}

// DefaultSettingsFile returns the default file-store path.
func DefaultSettingsFile() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "appearance.json"), nil
}

func validateConfig(cfg *Config) error {
	switch cfg.Backend.Source {
	case SourceAuto, SourceRegistry, SourceFile:
	default:
		return fmt.Errorf("backend.source must be %s, %s or %s, got %q",
			SourceAuto, SourceRegistry, SourceFile, cfg.Backend.Source)
	}

	switch cfg.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", cfg.Logging.Format)
	}

	switch cfg.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be trace, debug, info, warn or error, got %q", cfg.Logging.Level)
	}
	return nil
}

func normalizeConfig(cfg *Config) error {
	if cfg.Backend.FilePath == "" {
		path, err := DefaultSettingsFile()
		if err != nil {
			return err
		}
		cfg.Backend.FilePath = path
	}
	return nil
}
