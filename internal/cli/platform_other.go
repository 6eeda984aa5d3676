//go:build !windows

package cli

import (
	"fmt"

	"github.com/bnema/shade/internal/application/port"
	"github.com/bnema/shade/internal/infrastructure/config"
	"github.com/bnema/shade/internal/infrastructure/settings"
	"github.com/bnema/shade/internal/infrastructure/watch"
)

// newBackendAndSource wires the file store and fsnotify source. The
// registry backend only exists on Windows.
func newBackendAndSource(cfg *config.Config) (port.SettingsBackend, port.NotificationSource, error) {
	if cfg.Backend.Source == config.SourceRegistry {
		return nil, nil, fmt.Errorf("backend.source %q is only available on Windows", cfg.Backend.Source)
	}

	path := cfg.Backend.FilePath
	return settings.NewFileStore(path), watch.NewFileSource(path), nil
}
