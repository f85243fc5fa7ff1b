// Package identity owns the durable per-device session identifier.
package identity

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"termchat/src/services/storage"
)

// SessionKey is the stored key holding the device's current session id.
const SessionKey = "chat_session_id"

// Manager hands out the device's session id, generating and persisting
// one on first use. When the store fails the manager degrades to an
// in-memory id: the app keeps working for this run, it just will not
// resume the same conversation after a restart.
type Manager struct {
	mu     sync.Mutex
	store  storage.Store
	cached string
	logger *slog.Logger
}

// NewManager creates a manager backed by the given store.
func NewManager(store storage.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, logger: logger}
}

// Current returns the device's session id, creating and persisting a
// fresh one if none has been stored yet.
func (m *Manager) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cached != "" {
		return m.cached
	}
	value, ok, err := m.store.Get(SessionKey)
	if err != nil {
		m.logger.Warn("session id store unavailable, continuing in memory", "error", err)
	}
	if ok && value != "" {
		m.cached = value
		return m.cached
	}
	m.cached = uuid.NewString()
	m.persistLocked(m.cached)
	return m.cached
}

// Rotate replaces the device's session id with a fresh one, as when the
// user starts a new conversation.
func (m *Manager) Rotate() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cached = uuid.NewString()
	m.persistLocked(m.cached)
	return m.cached
}

// Adopt makes an existing session id the device's current one, as when
// the user switches to a stored conversation.
func (m *Manager) Adopt(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cached = id
	m.persistLocked(id)
}

func (m *Manager) persistLocked(id string) {
	if err := m.store.Put(SessionKey, id); err != nil {
		m.logger.Warn("could not persist session id", "error", err)
	}
}
