package session

import (
	"errors"
	"sync"

	"voicechat/core"
)

// ErrUnknownSession is returned for a handle that was never created or has
// already been discarded.
var ErrUnknownSession = errors.New("unknown session")

// Manager owns the live session table. Each session is created by
// InitializeSession and exists until the caller discards its handle;
// sessions never share history.
type Manager struct {
	defaults Config

	mu       sync.RWMutex
	sessions map[string]*Session

	logger *core.Logger
}

// NewManager creates a manager whose sessions are built from the given
// defaults (system prompt, chat parameters, service clients).
func NewManager(defaults Config) *Manager {
	logger := defaults.Logger
	if logger == nil {
		logger = core.GetLogger()
	}
	return &Manager{
		defaults: defaults,
		sessions: make(map[string]*Session),
		logger:   logger.With(map[string]any{"component": "session_manager"}),
	}
}

// InitializeSession creates a session seeded with the configured system
// prompt and returns its handle.
func (m *Manager) InitializeSession() (*Session, error) {
	sess, err := New(m.defaults)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[sess.ID()] = sess
	m.mu.Unlock()

	m.logger.Info("session initialized", "session_id", sess.ID())
	return sess, nil
}

// Get resolves a session handle.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrUnknownSession
	}
	return sess, nil
}

// Discard drops a session; its history is gone with it.
func (m *Manager) Discard(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
