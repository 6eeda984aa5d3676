// Package appearance implements the change-detection engine over the OS
// appearance settings: a background watcher that blocks on a notification
// source, re-reads the watched values on each signal, diffs them against
// the last known snapshot and publishes one coalesced change event per
// batch.
package appearance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bnema/shade/internal/application/port"
	"github.com/bnema/shade/internal/domain/entity"
	"github.com/bnema/shade/internal/infrastructure/settings"
)

// Handler receives one call per published change batch.
type Handler func(entity.AppearanceChange)

// callbackWrapper wraps a handler to enable pointer comparison for removal.
type callbackWrapper struct {
	fn Handler
}

// Monitor owns the authoritative cached snapshot of the appearance
// settings and the watch/diff/notify loop around it.
//
// The cache is written only by the watcher goroutine (and by SetEnabled
// while no goroutine is running); the Current* accessors always read the
// backend directly, so no lock guards the cache itself.
type Monitor struct {
	backend port.SettingsBackend
	source  port.NotificationSource
	log     zerolog.Logger
	deliver func(func())

	mu      sync.Mutex
	enabled bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// callbacks has its own lock so publish, running on the watcher
	// goroutine, never contends with SetEnabled(false) holding mu across
	// wg.Wait.
	cbMu      sync.Mutex
	callbacks []*callbackWrapper

	state entity.AppearanceState
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the diagnostic logger. Default is a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Monitor) {
		m.log = log
	}
}

// WithDelivery sets the executor change events are handed to, letting the
// host marshal notifications onto its own goroutine or queue. The default
// runs handlers synchronously on the watcher goroutine. Whatever the
// executor does, each registered handler sees exactly one call per
// published event.
func WithDelivery(deliver func(func())) Option {
	return func(m *Monitor) {
		if deliver != nil {
			m.deliver = deliver
		}
	}
}

// NewMonitor creates a monitor over the given backend and notification
// source. The initial snapshot is read eagerly; watching starts only on
// SetEnabled(true).
func NewMonitor(backend port.SettingsBackend, source port.NotificationSource, opts ...Option) *Monitor {
	m := &Monitor{
		backend: backend,
		source:  source,
		log:     zerolog.Nop(),
		deliver: func(fn func()) { fn() },
	}
	for _, opt := range opts {
		opt(m)
	}
	m.state = m.snapshot()
	return m
}

// SetEnabled starts or stops change detection. Repeated identical calls
// are no-ops. Enabling re-snapshots the cache from a fresh read before the
// watcher goroutine starts; disabling returns only after that goroutine
// has fully exited, so no background work touches a released source.
//
// When the watch cannot be established the returned error wraps
// port.ErrWatchUnavailable; the monitor stays usable in a degraded mode
// where the Current* accessors work but no change event will ever fire.
func (m *Monitor) SetEnabled(enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if enabled == m.enabled {
		return nil
	}

	if enabled {
		if err := m.source.Start(); err != nil {
			return fmt.Errorf("enable appearance monitor: %w", err)
		}
		m.state = m.snapshot()

		ctx, cancel := context.WithCancel(context.Background())
		m.cancel = cancel
		m.wg.Add(1)
		go m.run(ctx)

		m.enabled = true
		return nil
	}

	m.cancel()
	m.source.Stop()
	m.wg.Wait()
	m.cancel = nil
	m.enabled = false
	return nil
}

// Enabled reports whether the watcher is running.
func (m *Monitor) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

// OnChange registers a handler for change events and returns a function
// that unregisters it. Multiple handlers may be registered; delivery order
// is unspecified.
func (m *Monitor) OnChange(handler Handler) func() {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()

	wrapper := &callbackWrapper{fn: handler}
	m.callbacks = append(m.callbacks, wrapper)

	return func() {
		m.cbMu.Lock()
		defer m.cbMu.Unlock()

		for i, cb := range m.callbacks {
			if cb == wrapper {
				m.callbacks = append(m.callbacks[:i], m.callbacks[i+1:]...)
				return
			}
		}
	}
}

// CurrentAppMode reads the per-application theme mode live from the
// backend. Defaults to dark when the backend is unreadable.
func (m *Monitor) CurrentAppMode() entity.ThemeMode {
	mode, ok := m.freshMode(settings.SubtreePersonalize, settings.KeyAppsUseLightTheme)
	if !ok {
		return entity.ModeDark
	}
	return mode
}

// CurrentSystemMode reads the system (shell) theme mode live from the
// backend. Defaults to dark when the backend is unreadable.
func (m *Monitor) CurrentSystemMode() entity.ThemeMode {
	mode, ok := m.freshMode(settings.SubtreePersonalize, settings.KeySystemUsesLightTheme)
	if !ok {
		return entity.ModeDark
	}
	return mode
}

// CurrentAccent reads the accent color live from the backend. Defaults to
// the zero color when the backend is unreadable.
func (m *Monitor) CurrentAccent() entity.AccentColor {
	accent, ok := m.freshAccent()
	if !ok {
		return entity.AccentColor{}
	}
	return accent
}

// CurrentTransparency reads the transparency flag live from the backend.
// Defaults to false when the backend is unreadable.
func (m *Monitor) CurrentTransparency() bool {
	v, err := m.backend.ReadValue(settings.SubtreeDWM, settings.KeyEnableTransparency)
	if err != nil {
		return false
	}
	return v != 0
}

// run is the watcher loop: block on the source, diff, publish, re-arm.
// Only cancellation or a dead source ends it; per-cycle read failures
// degrade to "field unchanged" inside cycle.
func (m *Monitor) run(ctx context.Context) {
	defer m.wg.Done()

	for {
		if err := m.source.Wait(ctx); err != nil {
			if ctx.Err() != nil || errors.Is(err, port.ErrSourceClosed) {
				return
			}
			m.log.Error().Err(err).Msg("appearance watch wait failed, watcher exiting")
			return
		}

		m.cycle()

		if err := m.source.Rearm(); err != nil {
			if errors.Is(err, port.ErrSourceClosed) {
				return
			}
			m.log.Error().Err(err).Msg("appearance watch re-arm failed, watcher exiting")
			return
		}
	}
}

// cycle performs one read/diff/publish pass. Fields whose fresh read fails
// validation keep their cached value for this pass.
func (m *Monitor) cycle() {
	old := m.state
	next := old

	if mode, ok := m.freshMode(settings.SubtreePersonalize, settings.KeySystemUsesLightTheme); ok {
		next.SystemMode = mode
	}
	if mode, ok := m.freshMode(settings.SubtreePersonalize, settings.KeyAppsUseLightTheme); ok {
		next.AppMode = mode
	}
	if accent, ok := m.freshAccent(); ok {
		next.Accent = accent
	}

	if next.AppMode == old.AppMode && next.SystemMode == old.SystemMode && next.Accent == old.Accent {
		return
	}

	change := entity.AppearanceChange{
		OldAppMode:    old.AppMode,
		OldSystemMode: old.SystemMode,
		OldAccent:     old.Accent,
		NewAppMode:    next.AppMode,
		NewSystemMode: next.SystemMode,
		NewAccent:     next.Accent,
	}
	m.publish(change)

	m.state.AppMode = next.AppMode
	m.state.SystemMode = next.SystemMode
	m.state.Accent = next.Accent
	// state.TransparencyEnabled stays at its enable-time value; the loop
	// neither compares nor refreshes it.
}

func (m *Monitor) freshMode(subtree, key string) (entity.ThemeMode, bool) {
	v, err := m.backend.ReadValue(subtree, key)
	if err != nil {
		m.log.Debug().Err(err).Str("key", key).Msg("appearance read failed")
		return entity.ModeDark, false
	}
	mode, ok := entity.ModeFromFlag(v)
	if !ok {
		m.log.Debug().Uint64("value", v).Str("key", key).Msg("theme flag out of range")
		return entity.ModeDark, false
	}
	return mode, true
}

func (m *Monitor) freshAccent() (entity.AccentColor, bool) {
	v, err := m.backend.ReadValue(settings.SubtreeDWM, settings.KeyAccentColor)
	if err != nil {
		m.log.Debug().Err(err).Str("key", settings.KeyAccentColor).Msg("appearance read failed")
		return entity.AccentColor{}, false
	}
	if v > math.MaxUint32 {
		m.log.Debug().Uint64("value", v).Str("key", settings.KeyAccentColor).Msg("accent value out of range")
		return entity.AccentColor{}, false
	}
	return entity.AccentFromPacked(uint32(v)), true
}

// publish hands one event to every registered handler via the delivery
// executor. Callbacks are copied out so registration changes during
// delivery cannot race the iteration.
func (m *Monitor) publish(change entity.AppearanceChange) {
	m.cbMu.Lock()
	callbacks := make([]*callbackWrapper, len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.cbMu.Unlock()

	for _, cb := range callbacks {
		fn := cb.fn
		m.deliver(func() {
			safeInvoke(fn, change)
		})
	}
}

// safeInvoke keeps a panicking handler from killing the watcher goroutine.
func safeInvoke(fn Handler, change entity.AppearanceChange) {
	defer func() {
		_ = recover()
	}()
	fn(change)
}

func (m *Monitor) snapshot() entity.AppearanceState {
	return entity.AppearanceState{
		AppMode:             m.CurrentAppMode(),
		SystemMode:          m.CurrentSystemMode(),
		Accent:              m.CurrentAccent(),
		TransparencyEnabled: m.CurrentTransparency(),
	}
}
