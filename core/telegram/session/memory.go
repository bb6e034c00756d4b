package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory; they are lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Read returns a copy of the stored session.
func (m *MemoryStore) Read(_ context.Context, key string) (*Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[key]
	if !ok {
		return nil, false, nil
	}
	return s.Clone(), true, nil
}

// Write stores a copy of s and stamps UpdatedAt.
func (m *MemoryStore) Write(_ context.Context, key string, s *Session) error {
	c := s.Clone()
	c.UpdatedAt = m.now()
	m.mu.Lock()
	m.sessions[key] = c
	m.mu.Unlock()
	return nil
}

// Len reports the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep evicts sessions without an active scene that were last written before
// now minus olderThan. It returns the number of evicted sessions.
func (m *MemoryStore) Sweep(olderThan time.Duration) int {
	cutoff := m.now().Add(-olderThan)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for key, s := range m.sessions {
		if s.InScene() || s.UpdatedAt.After(cutoff) {
			continue
		}
		delete(m.sessions, key)
		n++
	}
	return n
}
