//go:build windows

package cli

import (
	"github.com/bnema/shade/internal/application/port"
	"github.com/bnema/shade/internal/infrastructure/config"
	"github.com/bnema/shade/internal/infrastructure/settings"
	"github.com/bnema/shade/internal/infrastructure/watch"
)

// newBackendAndSource wires the registry backend unless the file store was
// asked for explicitly.
func newBackendAndSource(cfg *config.Config) (port.SettingsBackend, port.NotificationSource, error) {
	if cfg.Backend.Source == config.SourceFile {
		path := cfg.Backend.FilePath
		return settings.NewFileStore(path), watch.NewFileSource(path), nil
	}

	return settings.NewRegistryStore(), watch.NewRegistrySource(), nil
}
