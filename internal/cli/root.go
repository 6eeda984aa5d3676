// Package cli provides the command-line interface for shade.
package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bnema/shade/internal/application/port"
	"github.com/bnema/shade/internal/infrastructure/config"
	"github.com/bnema/shade/internal/logging"
)

// App holds the configuration, logger and backend wiring shared by the
// CLI commands.
type App struct {
	Config  *config.Config
	Log     zerolog.Logger
	Backend port.SettingsBackend
	Source  port.NotificationSource
}

// NewApp loads the configuration and wires the platform backend.
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logging.New(logging.Config{
		Level:      logging.ParseLevel(cfg.Logging.Level),
		Format:     cfg.Logging.Format,
		TimeFormat: logging.DefaultConfig().TimeFormat,
	})

	backend, source, err := newBackendAndSource(cfg)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:  cfg,
		Log:     log,
		Backend: backend,
		Source:  source,
	}, nil
}

// NewRootCmd creates the root command for shade
func NewRootCmd(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "shade",
		Short: "Observe the OS appearance settings",
		Long: `shade exposes the operating system's UI appearance configuration
(app theme mode, system theme mode, accent color, transparency) and can
watch it for changes without polling.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewGetCmd())
	rootCmd.AddCommand(NewWatchCmd())
	rootCmd.AddCommand(NewSetCmd())

	return rootCmd
}
