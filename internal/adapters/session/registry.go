package session

import (
	"context"
	"sync"
	"time"

	domain "seacomms/internal/domain/session"
)

// Registry records which sessions are live. A token is only honoured while
// its session is present in the registry.
type Registry interface {
	Put(ctx context.Context, s domain.Session) error
	Get(ctx context.Context, id string) (domain.Session, error)
	// Delete removes a session and returns what was removed; ok is false if it was absent.
	Delete(ctx context.Context, id string) (s domain.Session, ok bool, err error)
}

// Expirer is implemented by registries that must be swept for expired sessions.
// Registries with native TTLs (Redis) do not implement it.
type Expirer interface {
	Expire(ctx context.Context, now time.Time) ([]domain.Session, error)
}

// MemoryRegistry is an in-process Registry.
type MemoryRegistry struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

var (
	_ Registry = (*MemoryRegistry)(nil)
	_ Expirer  = (*MemoryRegistry)(nil)
)

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{sessions: make(map[string]domain.Session)}
}

// Put stores a session keyed on its ID.
// PRE: s.ID is non-empty
// POST: Get(s.ID) returns s
func (r *MemoryRegistry) Put(_ context.Context, s domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	return nil
}

// Get returns the session with id, or domain.ErrNotFound.
func (r *MemoryRegistry) Get(_ context.Context, id string) (domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrNotFound
	}
	return s, nil
}

// Delete removes the session with id.
func (r *MemoryRegistry) Delete(_ context.Context, id string) (domain.Session, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	return s, ok, nil
}

// Expire removes and returns every session expired at now.
// POST: no remaining session satisfies ExpiredAt(now)
func (r *MemoryRegistry) Expire(_ context.Context, now time.Time) ([]domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var expired []domain.Session
	for id, s := range r.sessions {
		if s.ExpiredAt(now) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	return expired, nil
}

// Len returns the number of stored sessions.
func (r *MemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
