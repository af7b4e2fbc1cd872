// Package session provides the registry that maps opaque session identifiers
// to live transport sessions.
//
// The registry's only mutation entry points are Add (insert-on-create) and
// Remove (remove-on-teardown), both internally synchronized, so callers
// cannot forget cleanup or observe a half-inserted entry. A removed id is
// never resurrected: a later request bearing a stale id is always "unknown".
package session

import (
	"sync"
	"time"

	"github.com/confluentinc/mcp-confluent-sub000/pkg/transport/errors"
)

// Session is a live transport session owned by exactly one registry.
type Session interface {
	// ID returns the opaque session identifier.
	ID() string
	// CreatedAt returns when the session was created.
	CreatedAt() time.Time
	// Close releases the session's resources. Must be idempotent.
	Close() error
}

// Registry holds the sessions of one session-ful transport kind. Sessions are
// never shared across registries.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Session)}
}

// Add registers a newly created session. Duplicate or empty ids are rejected.
func (r *Registry) Add(s Session) error {
	id := s.ID()
	if id == "" {
		return errors.ErrUnknownSession
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[id]; exists {
		return errors.ErrSessionExists
	}
	r.sessions[id] = s
	return nil
}

// Get looks up a session by id. Lookups never create sessions.
func (r *Registry) Get(id string) (Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	return s, ok
}

// Remove deletes a session by id, returning it so the caller can tear it
// down. Removing an unknown or already-removed id reports false; the two
// teardown paths (explicit delete and connection close) can therefore race
// safely.
func (r *Registry) Remove(id string) (Session, bool) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	return s, ok
}

// Drain removes and returns every session, for orchestrator shutdown.
func (r *Registry) Drain() []Session {
	r.mu.Lock()
	out := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.sessions = make(map[string]Session)
	r.mu.Unlock()
	return out
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
