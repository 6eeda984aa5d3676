package entity

import (
	"github.com/lucasb-eyer/go-colorful"
)

// ThemeMode indicates whether the OS renders a surface dark or light.
type ThemeMode int

const (
	ModeDark ThemeMode = iota
	ModeLight
)

func (m ThemeMode) String() string {
	switch m {
	case ModeDark:
		return "dark"
	case ModeLight:
		return "light"
	default:
		return "unknown"
	}
}

// ModeFromFlag decodes a light-theme flag into a ThemeMode.
// The OS stores the flag as an integer where non-zero means light.
// Values other than 0 and 1 fail validation and return ok=false so the
// caller can keep its previous value instead of trusting a bogus read.
func ModeFromFlag(v uint64) (mode ThemeMode, ok bool) {
	switch v {
	case 0:
		return ModeDark, true
	case 1:
		return ModeLight, true
	default:
		return ModeDark, false
	}
}

// AccentColor is the OS accent color with straight alpha.
type AccentColor struct {
	A uint8
	R uint8
	G uint8
	B uint8
}

// AccentFromPacked decodes the packed 32-bit accent value.
// The compositor stores it as 0xAABBGGRR (alpha in the top byte, red in
// the lowest), not the 0xAARRGGBB most color APIs expect.
func AccentFromPacked(v uint32) AccentColor {
	return AccentColor{
		A: uint8(v >> 24),
		B: uint8(v >> 16),
		G: uint8(v >> 8),
		R: uint8(v),
	}
}

// Packed re-encodes the color into the compositor's 0xAABBGGRR layout.
func (c AccentColor) Packed() uint32 {
	return uint32(c.A)<<24 | uint32(c.B)<<16 | uint32(c.G)<<8 | uint32(c.R)
}

// Hex returns the color as "#rrggbb". Alpha is not representable in the
// short hex form and is dropped.
func (c AccentColor) Hex() string {
	return c.toColorful().Hex()
}

// IsDark reports whether the accent reads as a dark color, so callers can
// pick a readable foreground to paint on top of it.
func (c AccentColor) IsDark() bool {
	l, _, _ := c.toColorful().Lab()
	return l < 0.5
}

func (c AccentColor) toColorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

// AppearanceState is a snapshot of the watched appearance settings.
type AppearanceState struct {
	AppMode             ThemeMode
	SystemMode          ThemeMode
	Accent              AccentColor
	TransparencyEnabled bool
}

// AppearanceChange carries the before/after values for one detected change
// batch. All deltas between two signals land in a single event.
//
// Transparency is deliberately absent: the flag is snapshotted into
// AppearanceState but toggling it alone never fires an event. See DESIGN.md
// for why this asymmetry is kept.
type AppearanceChange struct {
	OldAppMode    ThemeMode
	OldSystemMode ThemeMode
	OldAccent     AccentColor

	NewAppMode    ThemeMode
	NewSystemMode ThemeMode
	NewAccent     AccentColor
}
