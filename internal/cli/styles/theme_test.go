package styles_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bnema/shade/internal/cli/styles"
	"github.com/bnema/shade/internal/domain/entity"
)

func TestRenderState(t *testing.T) {
	theme := styles.NewTheme()

	out := theme.RenderState(entity.AppearanceState{
		AppMode:             entity.ModeDark,
		SystemMode:          entity.ModeLight,
		Accent:              entity.AccentColor{A: 0xFF, R: 0xFF},
		TransparencyEnabled: true,
	})
	require.Contains(t, out, "Appearance")
	require.Contains(t, out, "dark")
	require.Contains(t, out, "light")
	require.Contains(t, out, "#ff0000")
	require.Contains(t, out, "on")
}

func TestRenderChange(t *testing.T) {
	theme := styles.NewTheme()

	out := theme.RenderChange(entity.AppearanceChange{
		OldAppMode:    entity.ModeDark,
		NewAppMode:    entity.ModeLight,
		OldSystemMode: entity.ModeDark,
		NewSystemMode: entity.ModeDark,
		OldAccent:     entity.AccentColor{A: 0xFF, R: 0xFF},
		NewAccent:     entity.AccentColor{A: 0xFF, R: 0xFF},
	})
	require.Contains(t, out, "app")
	require.NotContains(t, out, "system")

	unchanged := theme.RenderChange(entity.AppearanceChange{})
	require.Contains(t, unchanged, "no visible change")
}
