package session

import (
	"sort"
	"sync"
	"time"
)

// Registry tracks the open sessions of a server
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	idleTTL  time.Duration
	now      func() time.Time
}

// NewRegistry creates an empty registry. Sessions stay registered until they
// are closed or removed.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session), now: time.Now}
}

// NewIdleRegistry creates a registry whose Prune also closes sessions that
// have not changed for longer than ttl. A nil now uses the wall clock.
func NewIdleRegistry(ttl time.Duration, now func() time.Time) *Registry {
	r := NewRegistry()
	r.idleTTL = ttl
	if now != nil {
		r.now = now
	}
	return r
}

// Add registers a session under its draft ID
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
}

// Get looks up a session
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove closes and forgets a session
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
	return ok
}

// Prune forgets every closed session and, when an idle TTL is set, closes
// and forgets sessions idle for longer than the TTL. Sessions with a
// submission in flight are kept. It returns how many were dropped.
func (r *Registry) Prune() int {
	r.mu.Lock()
	var idle []*Session
	n := 0
	for id, s := range r.sessions {
		switch {
		case s.Closed():
		case r.idleTTL > 0 && !s.Busy() && r.now().Sub(s.LastActive()) > r.idleTTL:
			idle = append(idle, s)
		default:
			continue
		}
		delete(r.sessions, id)
		n++
	}
	r.mu.Unlock()
	for _, s := range idle {
		s.Close()
	}
	return n
}

// IDs returns the registered session IDs in sorted order
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll closes and forgets every session
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}
