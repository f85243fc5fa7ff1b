// Package storage provides the key-value persistence the client keeps
// between runs. Today that is a single key: the device's session id.
package storage

import "sync"

// Store is a minimal durable key-value capability. Get reports absence
// separately from failure so callers can tell "never written" apart from
// "storage broken".
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Put(key, value string) error
	Close() error
}

// MemoryStore keeps values for the lifetime of the process. It backs the
// degraded mode used when the bolt file cannot be opened, and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *MemoryStore) Put(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Close() error { return nil }
