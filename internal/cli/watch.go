package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bnema/shade/internal/application/port"
	"github.com/bnema/shade/internal/cli/styles"
	"github.com/bnema/shade/internal/domain/entity"
	"github.com/bnema/shade/internal/infrastructure/appearance"
)

// NewWatchCmd creates the watch command
func NewWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the appearance settings for changes",
		Long:  `Enable the change watcher and print one line per detected change batch until interrupted.`,
		RunE:  runWatch,
	}
}

func runWatch(_ *cobra.Command, _ []string) error {
	app, err := NewApp()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return watchAndPrint(ctx, app)
}

// watchAndPrint enables the watcher and prints one line per change batch
// until ctx is cancelled. When the watch cannot be established it prints
// the current state once and returns nil.
func watchAndPrint(ctx context.Context, app *App) error {
	monitor := appearance.NewMonitor(app.Backend, app.Source, appearance.WithLogger(app.Log))
	theme := styles.NewTheme()

	events := make(chan entity.AppearanceChange, 16)
	unsubscribe := monitor.OnChange(func(change entity.AppearanceChange) {
		select {
		case events <- change:
		case <-ctx.Done():
			// Shutting down; the printer is gone.
		}
	})
	defer unsubscribe()

	if err := monitor.SetEnabled(true); err != nil {
		if !errors.Is(err, port.ErrWatchUnavailable) {
			return err
		}
		// Degraded mode: no change events, but direct reads still work.
		app.Log.Warn().Err(err).Msg("watch unavailable, printing current state only")
		fmt.Println(theme.RenderState(currentState(monitor)))
		return nil
	}

	fmt.Println(theme.RenderState(currentState(monitor)))
	fmt.Println("watching for changes, ctrl-c to stop")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case change := <-events:
				fmt.Println(theme.RenderChange(change))
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		return monitor.SetEnabled(false)
	})

	return g.Wait()
}
