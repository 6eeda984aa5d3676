// Package settings provides backends for the OS appearance settings store.
//
// All backends speak the same logical address space: two subtrees, four
// keys. Platform backends map the logical subtree names onto whatever the
// OS actually uses (registry paths on Windows, a JSON document for the
// portable file store).
package settings

import "errors"

// Logical subtree names.
const (
	// SubtreePersonalize holds the per-app and system light-theme flags.
	SubtreePersonalize = "personalize"

	// SubtreeDWM holds the compositor settings: accent color and the
	// transparency flag.
	SubtreeDWM = "dwm"
)

// Keys within the subtrees. The names mirror the Windows registry values
// so a settings dump is recognizable on any platform.
const (
	KeyAppsUseLightTheme    = "AppsUseLightTheme"
	KeySystemUsesLightTheme = "SystemUsesLightTheme"
	KeyAccentColor          = "AccentColor"
	KeyEnableTransparency   = "EnableTransparency"
)

// ErrValueNotFound is returned when a subtree or key does not exist in the
// backend. Callers fall back to their documented defaults.
var ErrValueNotFound = errors.New("settings value not found")
