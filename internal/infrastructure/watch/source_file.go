// Package watch provides notification sources for the appearance monitor:
// blocking, re-armable "something changed" signals over the settings store.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/bnema/shade/internal/application/port"
)

// FileSource signals changes to a single settings file via fsnotify. It is
// the portable counterpart of the registry source and pairs with
// settings.FileStore.
//
// The parent directory is watched rather than the file itself so the watch
// survives editors and atomic writers that replace the file (rename over,
// remove + create).
type FileSource struct {
	mu      sync.Mutex
	path    string
	watcher *fsnotify.Watcher
	signal  chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
	started bool
}

// NewFileSource creates a source watching the settings file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: filepath.Clean(path)}
}

// Start implements port.NotificationSource.
func (s *FileSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w: %w", port.ErrWatchUnavailable, err)
	}

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w: %w", dir, port.ErrWatchUnavailable, err)
	}

	s.watcher = watcher
	s.signal = make(chan struct{}, 1)
	s.done = make(chan struct{})
	s.started = true

	s.wg.Add(1)
	go s.forward(watcher, s.signal, s.done)
	return nil
}

// forward collapses raw fsnotify events for the watched file into the
// single-slot signal channel. The one-element buffer coalesces bursts: any
// number of writes between two Waits shows up as exactly one signal.
func (s *FileSource) forward(watcher *fsnotify.Watcher, signal chan struct{}, done chan struct{}) {
	defer s.wg.Done()

	for {
		select {
		case <-done:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			select {
			case signal <- struct{}{}:
			default:
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are not change signals; nothing to forward.
		}
	}
}

// Wait implements port.NotificationSource.
func (s *FileSource) Wait(ctx context.Context) error {
	s.mu.Lock()
	started, signal, done := s.started, s.signal, s.done
	s.mu.Unlock()

	if !started {
		return port.ErrSourceClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return port.ErrSourceClosed
	case <-signal:
		return nil
	}
}

// Rearm implements port.NotificationSource. An fsnotify watch stays armed
// between events, and changes that land while a signal is being processed
// are held in the signal buffer, so there is nothing to re-register.
func (s *FileSource) Rearm() error {
	return nil
}

// Stop implements port.NotificationSource.
func (s *FileSource) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.done)
	_ = s.watcher.Close()
	s.mu.Unlock()

	s.wg.Wait()
}
