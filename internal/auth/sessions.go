package auth

import (
	"sync"

	"github.com/google/uuid"
)

// Sessions maps opaque session ids to ownership tokens.
// Sessions live in memory only and do not expire.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]string
}

// NewSessions creates an empty session store.
func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[string]string)}
}

// Create starts a session for token and returns its id.
func (s *Sessions) Create(token string) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = token
	s.mu.Unlock()
	return id
}

// Lookup returns the token bound to id.
func (s *Sessions) Lookup(id string) (string, bool) {
	if id == "" {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.sessions[id]
	return token, ok
}

// Delete ends the session. Unknown ids are ignored.
func (s *Sessions) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
