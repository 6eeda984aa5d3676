// Package styles provides the lipgloss rendering for shade's CLI output.
package styles

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/shade/internal/domain/entity"
)

// Theme holds the styles used by the CLI renderers.
type Theme struct {
	Title    lipgloss.Style
	Subtle   lipgloss.Style
	Key      lipgloss.Style
	DarkTag  lipgloss.Style
	LightTag lipgloss.Style
	Arrow    lipgloss.Style
}

// NewTheme creates the default theme.
func NewTheme() *Theme {
	return &Theme{
		Title:    lipgloss.NewStyle().Bold(true),
		Subtle:   lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		Key:      lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		DarkTag:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236")).Padding(0, 1),
		LightTag: lipgloss.NewStyle().Foreground(lipgloss.Color("236")).Background(lipgloss.Color("252")).Padding(0, 1),
		Arrow:    lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
	}
}

// ModeBadge renders a theme mode as a small tag.
func (t *Theme) ModeBadge(mode entity.ThemeMode) string {
	if mode == entity.ModeLight {
		return t.LightTag.Render("light")
	}
	return t.DarkTag.Render("dark")
}

// Swatch renders the accent color as a hex label on the color itself,
// picking a readable foreground for the accent's lightness.
func (t *Theme) Swatch(accent entity.AccentColor) string {
	fg := lipgloss.Color("#000000")
	if accent.IsDark() {
		fg = lipgloss.Color("#ffffff")
	}
	style := lipgloss.NewStyle().
		Foreground(fg).
		Background(lipgloss.Color(accent.Hex())).
		Padding(0, 1)
	return style.Render(accent.Hex())
}

// RenderState renders a full appearance snapshot.
func (t *Theme) RenderState(state entity.AppearanceState) string {
	var b strings.Builder
	b.WriteString(t.Title.Render("Appearance"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s %s\n", t.Key.Render("app mode:    "), t.ModeBadge(state.AppMode)))
	b.WriteString(fmt.Sprintf("  %s %s\n", t.Key.Render("system mode: "), t.ModeBadge(state.SystemMode)))
	b.WriteString(fmt.Sprintf("  %s %s\n", t.Key.Render("accent:      "), t.Swatch(state.Accent)))

	transparency := "off"
	if state.TransparencyEnabled {
		transparency = "on"
	}
	b.WriteString(fmt.Sprintf("  %s %s\n", t.Key.Render("transparency:"), t.Subtle.Render(transparency)))
	return b.String()
}

// RenderChange renders one change event as old -> new per changed field.
func (t *Theme) RenderChange(change entity.AppearanceChange) string {
	arrow := t.Arrow.Render("->")

	var parts []string
	if change.NewAppMode != change.OldAppMode {
		parts = append(parts, fmt.Sprintf("%s %s %s %s",
			t.Key.Render("app"), t.ModeBadge(change.OldAppMode), arrow, t.ModeBadge(change.NewAppMode)))
	}
	if change.NewSystemMode != change.OldSystemMode {
		parts = append(parts, fmt.Sprintf("%s %s %s %s",
			t.Key.Render("system"), t.ModeBadge(change.OldSystemMode), arrow, t.ModeBadge(change.NewSystemMode)))
	}
	if change.NewAccent != change.OldAccent {
		parts = append(parts, fmt.Sprintf("%s %s %s %s",
			t.Key.Render("accent"), t.Swatch(change.OldAccent), arrow, t.Swatch(change.NewAccent)))
	}
	if len(parts) == 0 {
		return t.Subtle.Render("no visible change")
	}
	return strings.Join(parts, "  ")
}
