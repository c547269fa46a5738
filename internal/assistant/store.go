package assistant

import (
	"sync"
	"time"
)

// Store holds live sessions keyed by ID. Sessions exist only in memory; the
// janitor sweeps idle ones so abandoned widget tabs do not accumulate.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the session for id, creating it through factory when
// absent. The returned bool reports whether the session already existed.
func (s *Store) GetOrCreate(id string, factory func() *Session) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess, true
	}
	sess := factory()
	s.sessions[id] = sess
	return sess, false
}

// Get returns the session for id, or nil.
func (s *Store) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// Remove drops the session for id, if present.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Sweep removes sessions idle for longer than idleTimeout and returns how
// many were dropped.
func (s *Store) Sweep(idleTimeout time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-idleTimeout)
	removed := 0
	for id, sess := range s.sessions {
		if sess.LastActive().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
