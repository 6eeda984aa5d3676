package appearance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/shade/internal/application/port"
	"github.com/bnema/shade/internal/domain/entity"
	"github.com/bnema/shade/internal/infrastructure/settings"
)

// stubSource implements port.NotificationSource for testing. signal()
// blocks until the watcher loop consumes the signal; rearmed is notified
// once per completed cycle.
type stubSource struct {
	mu       sync.Mutex
	startErr error
	starts   int
	stops    int
	rearms   int

	signals  chan struct{}
	rearmed  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newStubSource() *stubSource {
	return &stubSource{
		signals: make(chan struct{}),
		rearmed: make(chan struct{}, 16),
		done:    make(chan struct{}),
	}
}

func (s *stubSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startErr != nil {
		return s.startErr
	}
	s.starts++
	return nil
}

func (s *stubSource) Stop() {
	s.mu.Lock()
	s.stops++
	s.mu.Unlock()
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *stubSource) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return port.ErrSourceClosed
	case <-s.signals:
		return nil
	}
}

func (s *stubSource) Rearm() error {
	s.mu.Lock()
	s.rearms++
	s.mu.Unlock()
	s.rearmed <- struct{}{}
	return nil
}

// signal delivers one change signal and blocks until the loop picks it up.
func (s *stubSource) signal(t *testing.T) {
	t.Helper()
	select {
	case s.signals <- struct{}{}:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher loop did not consume signal")
	}
}

// waitCycle blocks until the loop finished one full cycle (diff done,
// event delivered if any, watch re-armed).
func (s *stubSource) waitCycle(t *testing.T) {
	t.Helper()
	select {
	case <-s.rearmed:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher loop did not re-arm")
	}
}

var redAccent = entity.AccentColor{A: 0xFF, R: 0xFF}

func seededStore() *settings.MemoryStore {
	store := settings.NewMemoryStore()
	store.Set(settings.SubtreePersonalize, settings.KeyAppsUseLightTheme, 0)
	store.Set(settings.SubtreePersonalize, settings.KeySystemUsesLightTheme, 0)
	store.Set(settings.SubtreeDWM, settings.KeyAccentColor, uint64(redAccent.Packed()))
	store.Set(settings.SubtreeDWM, settings.KeyEnableTransparency, 0)
	return store
}

func newTestMonitor(t *testing.T) (*settings.MemoryStore, *stubSource, *Monitor, chan entity.AppearanceChange) {
	t.Helper()

	store := seededStore()
	source := newStubSource()
	monitor := NewMonitor(store, source)

	events := make(chan entity.AppearanceChange, 16)
	monitor.OnChange(func(change entity.AppearanceChange) {
		events <- change
	})

	return store, source, monitor, events
}

func requireEvent(t *testing.T, events chan entity.AppearanceChange) entity.AppearanceChange {
	t.Helper()
	select {
	case change := <-events:
		return change
	default:
		t.Fatal("expected a change event")
		return entity.AppearanceChange{}
	}
}

func requireNoEvent(t *testing.T, events chan entity.AppearanceChange) {
	t.Helper()
	select {
	case change := <-events:
		t.Fatalf("unexpected change event: %+v", change)
	default:
	}
}

func TestMonitor_SingleFieldChange(t *testing.T) {
	store, source, monitor, events := newTestMonitor(t)
	require.NoError(t, monitor.SetEnabled(true))
	defer func() { require.NoError(t, monitor.SetEnabled(false)) }()

	store.Set(settings.SubtreePersonalize, settings.KeyAppsUseLightTheme, 1)
	source.signal(t)
	source.waitCycle(t)

	change := requireEvent(t, events)
	assert.Equal(t, entity.ModeDark, change.OldAppMode)
	assert.Equal(t, entity.ModeLight, change.NewAppMode)
	assert.Equal(t, entity.ModeDark, change.OldSystemMode)
	assert.Equal(t, entity.ModeDark, change.NewSystemMode)
	assert.Equal(t, redAccent, change.OldAccent)
	assert.Equal(t, redAccent, change.NewAccent)
	requireNoEvent(t, events)
}

func TestMonitor_CoalescesBatchIntoOneEvent(t *testing.T) {
	store, source, monitor, events := newTestMonitor(t)
	require.NoError(t, monitor.SetEnabled(true))
	defer func() { require.NoError(t, monitor.SetEnabled(false)) }()

	green := entity.AccentColor{A: 0xFF, G: 0xFF}
	store.Set(settings.SubtreePersonalize, settings.KeySystemUsesLightTheme, 1)
	store.Set(settings.SubtreeDWM, settings.KeyAccentColor, uint64(green.Packed()))
	source.signal(t)
	source.waitCycle(t)

	change := requireEvent(t, events)
	assert.Equal(t, entity.ModeLight, change.NewSystemMode)
	assert.Equal(t, green, change.NewAccent)
	assert.Equal(t, redAccent, change.OldAccent)
	requireNoEvent(t, events)
}

func TestMonitor_NoEventWithoutChange(t *testing.T) {
	_, source, monitor, events := newTestMonitor(t)
	require.NoError(t, monitor.SetEnabled(true))
	defer func() { require.NoError(t, monitor.SetEnabled(false)) }()

	source.signal(t)
	source.waitCycle(t)

	requireNoEvent(t, events)
}

func TestMonitor_CacheMatchesLastEvent(t *testing.T) {
	store, source, monitor, events := newTestMonitor(t)
	require.NoError(t, monitor.SetEnabled(true))
	defer func() { require.NoError(t, monitor.SetEnabled(false)) }()

	store.Set(settings.SubtreePersonalize, settings.KeyAppsUseLightTheme, 1)
	source.signal(t)
	source.waitCycle(t)
	first := requireEvent(t, events)

	store.Set(settings.SubtreePersonalize, settings.KeySystemUsesLightTheme, 1)
	source.signal(t)
	source.waitCycle(t)
	second := requireEvent(t, events)

	// The old side of the second event is exactly the new side of the
	// first: the cache advanced with the publish.
	assert.Equal(t, first.NewAppMode, second.OldAppMode)
	assert.Equal(t, first.NewSystemMode, second.OldSystemMode)
	assert.Equal(t, first.NewAccent, second.OldAccent)
}

func TestMonitor_TransparencyToggleIsSilent(t *testing.T) {
	store, source, monitor, events := newTestMonitor(t)
	require.NoError(t, monitor.SetEnabled(true))
	defer func() { require.NoError(t, monitor.SetEnabled(false)) }()

	store.Set(settings.SubtreeDWM, settings.KeyEnableTransparency, 1)
	source.signal(t)
	source.waitCycle(t)

	requireNoEvent(t, events)
	// The accessor still sees the live value.
	assert.True(t, monitor.CurrentTransparency())
}

func TestMonitor_EnableDisableIdempotent(t *testing.T) {
	_, source, monitor, _ := newTestMonitor(t)

	require.NoError(t, monitor.SetEnabled(true))
	require.NoError(t, monitor.SetEnabled(true))
	assert.True(t, monitor.Enabled())
	assert.Equal(t, 1, source.starts)

	require.NoError(t, monitor.SetEnabled(false))
	require.NoError(t, monitor.SetEnabled(false))
	assert.False(t, monitor.Enabled())
	assert.Equal(t, 1, source.stops)
}

func TestMonitor_DisableUnblocksWaitAndStopsDetection(t *testing.T) {
	store, source, monitor, events := newTestMonitor(t)
	require.NoError(t, monitor.SetEnabled(true))

	// The loop is parked in Wait; disabling must return promptly anyway.
	done := make(chan struct{})
	go func() {
		_ = monitor.SetEnabled(false)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("SetEnabled(false) did not return while watcher was blocked")
	}

	// A further change finds no listener and produces no event.
	store.Set(settings.SubtreePersonalize, settings.KeyAppsUseLightTheme, 1)
	select {
	case source.signals <- struct{}{}:
		t.Fatal("watcher loop still consuming signals after disable")
	default:
	}
	requireNoEvent(t, events)
}

// blockingStore wraps a MemoryStore so tests can park the watcher loop
// inside a backend read: while block is set, ReadValue announces itself on
// parked and waits for release to be closed.
type blockingStore struct {
	*settings.MemoryStore
	block   atomic.Bool
	parked  chan struct{}
	release chan struct{}
}

func newBlockingStore() *blockingStore {
	return &blockingStore{
		MemoryStore: seededStore(),
		parked:      make(chan struct{}, 1),
		release:     make(chan struct{}),
	}
}

func (s *blockingStore) ReadValue(subtree, key string) (uint64, error) {
	if s.block.Load() {
		select {
		case s.parked <- struct{}{}:
		default:
		}
		<-s.release
	}
	return s.MemoryStore.ReadValue(subtree, key)
}

func TestMonitor_DisableDuringInFlightCycleReturns(t *testing.T) {
	store := newBlockingStore()
	source := newStubSource()
	monitor := NewMonitor(store, source)

	events := make(chan entity.AppearanceChange, 16)
	monitor.OnChange(func(change entity.AppearanceChange) {
		events <- change
	})

	require.NoError(t, monitor.SetEnabled(true))

	// Park the loop mid-cycle with a real change pending, so the publish
	// path runs once the read is released.
	store.Set(settings.SubtreePersonalize, settings.KeyAppsUseLightTheme, 1)
	store.block.Store(true)
	source.signal(t)
	select {
	case <-store.parked:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher loop never reached the backend read")
	}

	done := make(chan struct{})
	go func() {
		_ = monitor.SetEnabled(false)
		close(done)
	}()

	// Let the disable reach its wait on the goroutine before unblocking
	// the read, then the cycle must finish publishing and exit.
	time.Sleep(50 * time.Millisecond)
	close(store.release)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("SetEnabled(false) hung while a cycle was publishing")
	}
	assert.False(t, monitor.Enabled())
}

func TestMonitor_WatchUnavailableDegradesGracefully(t *testing.T) {
	store := seededStore()
	store.Set(settings.SubtreePersonalize, settings.KeyAppsUseLightTheme, 1)

	source := newStubSource()
	source.startErr = fmt.Errorf("open subtree: %w", port.ErrWatchUnavailable)
	monitor := NewMonitor(store, source)

	err := monitor.SetEnabled(true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, port.ErrWatchUnavailable))
	assert.False(t, monitor.Enabled())

	// Direct reads keep working in degraded mode.
	assert.Equal(t, entity.ModeLight, monitor.CurrentAppMode())
}

func TestMonitor_AccessorsBypassCache(t *testing.T) {
	store, _, monitor, events := newTestMonitor(t)

	// Before enabling, accessors match the backend.
	assert.Equal(t, entity.ModeDark, monitor.CurrentAppMode())
	assert.Equal(t, redAccent, monitor.CurrentAccent())

	// Backend changes show up in accessors immediately, without any
	// signal and without an event.
	store.Set(settings.SubtreePersonalize, settings.KeyAppsUseLightTheme, 1)
	assert.Equal(t, entity.ModeLight, monitor.CurrentAppMode())
	requireNoEvent(t, events)
}

func TestMonitor_InvalidFlagRetainsCachedValue(t *testing.T) {
	store, source, monitor, events := newTestMonitor(t)
	store.Set(settings.SubtreePersonalize, settings.KeyAppsUseLightTheme, 1)
	require.NoError(t, monitor.SetEnabled(true))
	defer func() { require.NoError(t, monitor.SetEnabled(false)) }()

	// App flag goes out of range while the system flag genuinely changes.
	store.Set(settings.SubtreePersonalize, settings.KeyAppsUseLightTheme, 7)
	store.Set(settings.SubtreePersonalize, settings.KeySystemUsesLightTheme, 1)
	source.signal(t)
	source.waitCycle(t)

	change := requireEvent(t, events)
	assert.Equal(t, entity.ModeLight, change.NewSystemMode)
	// The bogus app read did not overwrite the cached light mode.
	assert.Equal(t, entity.ModeLight, change.OldAppMode)
	assert.Equal(t, entity.ModeLight, change.NewAppMode)
}

func TestMonitor_ReadFailureRetainsCachedValue(t *testing.T) {
	store, source, monitor, events := newTestMonitor(t)
	require.NoError(t, monitor.SetEnabled(true))
	defer func() { require.NoError(t, monitor.SetEnabled(false)) }()

	store.Delete(settings.SubtreeDWM, settings.KeyAccentColor)
	store.Set(settings.SubtreePersonalize, settings.KeyAppsUseLightTheme, 1)
	source.signal(t)
	source.waitCycle(t)

	change := requireEvent(t, events)
	assert.Equal(t, entity.ModeLight, change.NewAppMode)
	assert.Equal(t, redAccent, change.NewAccent, "failed accent read must keep the cached color")
}

func TestMonitor_OversizedAccentRetainsCachedValue(t *testing.T) {
	store, source, monitor, events := newTestMonitor(t)
	require.NoError(t, monitor.SetEnabled(true))
	defer func() { require.NoError(t, monitor.SetEnabled(false)) }()

	store.Set(settings.SubtreeDWM, settings.KeyAccentColor, 1<<33)
	store.Set(settings.SubtreePersonalize, settings.KeyAppsUseLightTheme, 1)
	source.signal(t)
	source.waitCycle(t)

	change := requireEvent(t, events)
	assert.Equal(t, redAccent, change.NewAccent)
}

func TestMonitor_AccessorDefaults(t *testing.T) {
	store := settings.NewMemoryStore()
	monitor := NewMonitor(store, newStubSource())

	assert.Equal(t, entity.ModeDark, monitor.CurrentAppMode())
	assert.Equal(t, entity.ModeDark, monitor.CurrentSystemMode())
	assert.Equal(t, entity.AccentColor{}, monitor.CurrentAccent())
	assert.False(t, monitor.CurrentTransparency())

	// Out-of-range flag decodes to the dark default too.
	store.Set(settings.SubtreePersonalize, settings.KeyAppsUseLightTheme, 7)
	assert.Equal(t, entity.ModeDark, monitor.CurrentAppMode())
}

func TestMonitor_Unsubscribe(t *testing.T) {
	store, source, monitor, events := newTestMonitor(t)

	var extraCalls int
	unsubscribe := monitor.OnChange(func(entity.AppearanceChange) {
		extraCalls++
	})
	unsubscribe()

	require.NoError(t, monitor.SetEnabled(true))
	defer func() { require.NoError(t, monitor.SetEnabled(false)) }()

	store.Set(settings.SubtreePersonalize, settings.KeyAppsUseLightTheme, 1)
	source.signal(t)
	source.waitCycle(t)

	requireEvent(t, events)
	assert.Zero(t, extraCalls)
}

func TestMonitor_CustomDelivery(t *testing.T) {
	store := seededStore()
	source := newStubSource()

	var delivered []entity.AppearanceChange
	executed := 0
	monitor := NewMonitor(store, source, WithDelivery(func(fn func()) {
		executed++
		fn()
	}))
	monitor.OnChange(func(change entity.AppearanceChange) {
		delivered = append(delivered, change)
	})

	require.NoError(t, monitor.SetEnabled(true))
	defer func() { require.NoError(t, monitor.SetEnabled(false)) }()

	store.Set(settings.SubtreePersonalize, settings.KeyAppsUseLightTheme, 1)
	source.signal(t)
	source.waitCycle(t)

	assert.Equal(t, 1, executed)
	require.Len(t, delivered, 1)
	assert.Equal(t, entity.ModeLight, delivered[0].NewAppMode)
}

func TestMonitor_PanickingHandlerDoesNotKillWatcher(t *testing.T) {
	store, source, monitor, events := newTestMonitor(t)
	monitor.OnChange(func(entity.AppearanceChange) {
		panic("handler bug")
	})

	require.NoError(t, monitor.SetEnabled(true))
	defer func() { require.NoError(t, monitor.SetEnabled(false)) }()

	store.Set(settings.SubtreePersonalize, settings.KeyAppsUseLightTheme, 1)
	source.signal(t)
	source.waitCycle(t)
	requireEvent(t, events)

	// The loop survived the panic and keeps detecting.
	store.Set(settings.SubtreePersonalize, settings.KeySystemUsesLightTheme, 1)
	source.signal(t)
	source.waitCycle(t)
	requireEvent(t, events)
}

func TestMonitor_RearmsAfterEveryCycle(t *testing.T) {
	_, source, monitor, _ := newTestMonitor(t)
	require.NoError(t, monitor.SetEnabled(true))
	defer func() { require.NoError(t, monitor.SetEnabled(false)) }()

	for i := 0; i < 3; i++ {
		source.signal(t)
		source.waitCycle(t)
	}

	source.mu.Lock()
	defer source.mu.Unlock()
	assert.Equal(t, 3, source.rearms)
}
