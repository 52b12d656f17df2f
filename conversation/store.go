// Package conversation owns the ordered turn history for one session.
//
// The history is append-only: no edits, deletions, or reordering for the
// session lifetime, and it is never persisted beyond it. Insertion order is
// chronological order and is exactly the order submitted to the completion
// service.
package conversation

import (
	"fmt"
	"sync"

	"voicechat/core"
)

// Store holds the turn history of a single session. It is safe for a
// concurrent reader (history rendering) alongside the single appender.
type Store struct {
	mu          sync.RWMutex
	initialized bool
	turns       []core.Turn
}

func NewStore() *Store {
	return &Store{}
}

// Initialize seeds the history with the system turn. It must be called
// exactly once per session before any append; a second call fails with
// ErrAlreadyInitialized.
func (s *Store) Initialize(systemPrompt string) error {
	if systemPrompt == "" {
		return fmt.Errorf("%w: empty system prompt", core.ErrInvalidTurn)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return core.ErrAlreadyInitialized
	}
	s.turns = []core.Turn{{Role: core.RoleSystem, Content: systemPrompt}}
	s.initialized = true
	return nil
}

// Append adds a user or assistant turn. System turns can only be created by
// Initialize; empty content and unknown roles are rejected.
func (s *Store) Append(role core.Role, content string) error {
	if content == "" {
		return fmt.Errorf("%w: empty content", core.ErrInvalidTurn)
	}
	if role == core.RoleSystem {
		return fmt.Errorf("%w: system turns may only be created at initialization", core.ErrInvalidTurn)
	}
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", core.ErrInvalidTurn, role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return fmt.Errorf("%w: store not initialized", core.ErrInvalidTurn)
	}
	s.turns = append(s.turns, core.Turn{Role: role, Content: content})
	return nil
}

// History returns the ordered turn sequence. The slice is a copy; callers
// cannot mutate the store through it.
func (s *Store) History() []core.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns currently in the history.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}
