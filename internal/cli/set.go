package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bnema/shade/internal/infrastructure/settings"
)

// NewSetCmd creates the set command
func NewSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <subtree.key> <value>",
		Short: "Write a value into the file-backed settings store",
		Long: `Write one numeric value into the JSON settings file, e.g.

  shade set personalize.AppsUseLightTheme 1
  shade set dwm.AccentColor 4282927692

Only the file backend is writable; this exists to exercise the watcher
locally. A running "shade watch" against the same file picks the write up.`,
		Args: cobra.ExactArgs(2),
		RunE: runSet,
	}
}

func runSet(_ *cobra.Command, args []string) error {
	app, err := NewApp()
	if err != nil {
		return err
	}

	store, ok := app.Backend.(*settings.FileStore)
	if !ok {
		return fmt.Errorf("set requires the file backend (backend.source = file)")
	}

	subtree, key, found := strings.Cut(args[0], ".")
	if !found || subtree == "" || key == "" {
		return fmt.Errorf("expected <subtree.key>, got %q", args[0])
	}

	value, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("expected an unsigned integer value, got %q", args[1])
	}

	if err := store.WriteValue(subtree, key, value); err != nil {
		return err
	}

	app.Log.Info().Str("path", store.Path()).Str("key", args[0]).Uint64("value", value).Msg("settings value written")
	return nil
}
