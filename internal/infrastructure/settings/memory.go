package settings

import (
	"fmt"
	"sync"
)

// MemoryStore is a map-backed settings store. Useful for tests and demos
// where no real settings source exists.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]uint64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]uint64)}
}

// ReadValue implements port.SettingsBackend.
func (s *MemoryStore) ReadValue(subtree, key string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[subtree+"."+key]
	if !ok {
		return 0, fmt.Errorf("%s.%s: %w", subtree, key, ErrValueNotFound)
	}
	return v, nil
}

// Set stores a value.
func (s *MemoryStore) Set(subtree, key string, value uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[subtree+"."+key] = value
}

// Delete removes a value so subsequent reads report ErrValueNotFound.
func (s *MemoryStore) Delete(subtree, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, subtree+"."+key)
}
