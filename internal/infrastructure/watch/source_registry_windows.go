//go:build windows

package watch

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"github.com/bnema/shade/internal/application/port"
	"github.com/bnema/shade/internal/infrastructure/settings"
)

// REG_NOTIFY_CHANGE_LAST_SET: value writes under the key.
const regNotifyChangeLastSet = 0x00000004

// RegistrySource signals changes to the Personalize and DWM registry keys
// using RegNotifyChangeKeyValue. Each key gets its own auto-reset event
// handle; a manual-reset stop event releases a parked Wait on Stop or
// context cancellation.
//
// The registration is single-shot per key: once its event fires, the key
// stays silent until Rearm re-registers it.
type RegistrySource struct {
	mu      sync.Mutex
	started bool

	keys   []registry.Key
	events []windows.Handle
	stop   windows.Handle

	// Tracks an in-flight Wait so Stop can release it and only then close
	// the handles it is blocked on.
	waiters sync.WaitGroup
}

// NewRegistrySource creates a source over the two appearance keys.
func NewRegistrySource() *RegistrySource {
	return &RegistrySource{}
}

// Start implements port.NotificationSource.
func (s *RegistrySource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	paths := []string{settings.PersonalizeKeyPath, settings.DWMKeyPath}

	var keys []registry.Key
	var events []windows.Handle
	cleanup := func() {
		for _, k := range keys {
			_ = k.Close()
		}
		for _, ev := range events {
			_ = windows.CloseHandle(ev)
		}
	}

	for _, path := range paths {
		k, err := registry.OpenKey(registry.CURRENT_USER, path, registry.NOTIFY)
		if err != nil {
			cleanup()
			return fmt.Errorf("open %s for notify: %w: %w", path, port.ErrWatchUnavailable, err)
		}
		keys = append(keys, k)

		ev, err := windows.CreateEvent(nil, 0, 0, nil)
		if err != nil {
			cleanup()
			return fmt.Errorf("create notify event: %w: %w", port.ErrWatchUnavailable, err)
		}
		events = append(events, ev)

		if err := windows.RegNotifyChangeKeyValue(windows.Handle(k), true, regNotifyChangeLastSet, ev, true); err != nil {
			cleanup()
			return fmt.Errorf("register notify on %s: %w: %w", path, port.ErrWatchUnavailable, err)
		}
	}

	stop, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		cleanup()
		return fmt.Errorf("create stop event: %w: %w", port.ErrWatchUnavailable, err)
	}

	s.keys = keys
	s.events = events
	s.stop = stop
	s.started = true
	return nil
}

// Wait implements port.NotificationSource.
func (s *RegistrySource) Wait(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return port.ErrSourceClosed
	}
	handles := make([]windows.Handle, 0, len(s.events)+1)
	handles = append(handles, s.events...)
	handles = append(handles, s.stop)
	stop := s.stop
	s.waiters.Add(1)
	s.mu.Unlock()
	defer s.waiters.Done()

	// Bridge context cancellation onto the stop event so the kernel wait
	// is never parked past a cancel.
	waitDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = windows.SetEvent(stop)
		case <-waitDone:
		}
	}()

	event, err := windows.WaitForMultipleObjects(handles, false, windows.INFINITE)
	close(waitDone)
	if err != nil {
		return fmt.Errorf("wait for registry change: %w", err)
	}

	if ctx.Err() != nil {
		// The stop event was set on our behalf; clear it so a restarted
		// wait does not fire immediately.
		_ = windows.ResetEvent(stop)
		return ctx.Err()
	}
	if int(event-windows.WAIT_OBJECT_0) == len(handles)-1 {
		return port.ErrSourceClosed
	}
	return nil
}

// Rearm implements port.NotificationSource. Re-registers both keys.
// Re-registering a key whose previous registration has not fired yet is
// harmless: a duplicate signal only costs one no-op diff cycle.
func (s *RegistrySource) Rearm() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return port.ErrSourceClosed
	}
	for i, k := range s.keys {
		if err := windows.RegNotifyChangeKeyValue(windows.Handle(k), true, regNotifyChangeLastSet, s.events[i], true); err != nil {
			return fmt.Errorf("re-arm registry notify: %w", err)
		}
	}
	return nil
}

// Stop implements port.NotificationSource.
func (s *RegistrySource) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	stop := s.stop
	keys, events := s.keys, s.events
	s.keys, s.events = nil, nil
	s.mu.Unlock()

	// Release a parked Wait, then close handles only once it has drained.
	_ = windows.SetEvent(stop)
	s.waiters.Wait()

	for _, k := range keys {
		_ = k.Close()
	}
	for _, ev := range events {
		_ = windows.CloseHandle(ev)
	}
	_ = windows.CloseHandle(stop)
}
