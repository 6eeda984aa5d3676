package port

import (
	"context"
	"errors"
)

// ErrWatchUnavailable is returned by NotificationSource.Start when the
// change watch cannot be established (missing subtree, permission denied).
// Callers stay usable in a degraded mode: direct reads keep working, change
// notifications never fire.
var ErrWatchUnavailable = errors.New("appearance watch unavailable")

// ErrSourceClosed is returned from a pending Wait when the source is
// stopped out from under it.
var ErrSourceClosed = errors.New("notification source closed")

// SettingsBackend reads untyped scalars from the OS appearance settings
// store. Values are addressed by a logical subtree name and a key within
// it. A missing key is an error; callers substitute their own defaults.
type SettingsBackend interface {
	ReadValue(subtree, key string) (uint64, error)
}

// NotificationSource is a blocking, re-armable "something changed" signal
// for the settings store, abstracting the platform mechanism (registry
// notification, file watch, ...).
//
// The underlying primitive is single-shot: after a Wait returns, Rearm must
// be called before another signal can be observed. Forgetting the re-arm
// silently stops change detection, which is why the monitor loop owns both
// calls.
type NotificationSource interface {
	// Start establishes the watch. Idempotent when already started.
	// Returns an error wrapping ErrWatchUnavailable when the watch cannot
	// be established.
	Start() error

	// Stop releases the watch and unblocks a pending Wait. Safe to call
	// when not started.
	Stop()

	// Wait blocks until one change batch is signalled, the context is
	// cancelled, or the source is stopped (ErrSourceClosed).
	Wait(ctx context.Context) error

	// Rearm re-registers interest after a consumed signal.
	Rearm() error
}
