package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/shade/internal/cli/styles"
	"github.com/bnema/shade/internal/domain/entity"
	"github.com/bnema/shade/internal/infrastructure/appearance"
)

// NewGetCmd creates the get command
func NewGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print the current appearance settings",
		Long:  `Read the app theme mode, system theme mode, accent color and transparency flag live from the settings backend.`,
		RunE:  runGet,
	}

	cmd.Flags().Bool("json", false, "Print as JSON")

	return cmd
}

func runGet(cmd *cobra.Command, _ []string) error {
	app, err := NewApp()
	if err != nil {
		return err
	}

	monitor := appearance.NewMonitor(app.Backend, app.Source, appearance.WithLogger(app.Log))
	state := currentState(monitor)

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		out, err := json.MarshalIndent(stateJSON{
			AppMode:      state.AppMode.String(),
			SystemMode:   state.SystemMode.String(),
			Accent:       state.Accent.Hex(),
			Transparency: state.TransparencyEnabled,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal state: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Print(styles.NewTheme().RenderState(state))
	return nil
}

// currentState assembles a snapshot from live backend reads.
func currentState(monitor *appearance.Monitor) entity.AppearanceState {
	return entity.AppearanceState{
		AppMode:             monitor.CurrentAppMode(),
		SystemMode:          monitor.CurrentSystemMode(),
		Accent:              monitor.CurrentAccent(),
		TransparencyEnabled: monitor.CurrentTransparency(),
	}
}

type stateJSON struct {
	AppMode      string `json:"app_mode"`
	SystemMode   string `json:"system_mode"`
	Accent       string `json:"accent"`
	Transparency bool   `json:"transparency"`
}
