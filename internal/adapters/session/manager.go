package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	domain "seacomms/internal/domain/session"
)

// DefaultTTL is how long a session lasts when no TTL is configured.
const DefaultTTL = 24 * time.Hour

// Config configures a Manager.
type Config struct {
	Registry Registry // defaults to a MemoryRegistry
	Secret   []byte
	TTL      time.Duration
	Now      func() time.Time
}

// Manager is the session provider: it starts, resolves and ends sessions and
// publishes every transition to its subscribers.
type Manager struct {
	registry Registry
	tokens   *Tokens
	ttl      time.Duration
	now      func() time.Time
	notifier *domain.Notifier
}

// NewManager creates a Manager from cfg.
// PRE: cfg.Secret is non-empty
// POST: Returns a Manager with no subscribers
func NewManager(cfg Config) *Manager {
	if cfg.Registry == nil {
		cfg.Registry = NewMemoryRegistry()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{
		registry: cfg.Registry,
		tokens:   NewTokens(cfg.Secret, cfg.Now),
		ttl:      cfg.TTL,
		now:      cfg.Now,
		notifier: domain.NewNotifier(),
	}
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Subscribe registers l for session events.
func (m *Manager) Subscribe(l domain.Listener) *domain.Subscription {
	return m.notifier.Subscribe(l)
}

// Start opens a session for an authenticated account and returns its token.
// PRE: accountID is non-empty
// POST: session stored in the registry; EventSignedIn published
func (m *Manager) Start(ctx context.Context, accountID, email string) (string, domain.Session, error) {
	now := m.now().UTC()
	s := domain.Session{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := s.Validate(); err != nil {
		return "", domain.Session{}, err
	}
	token, err := m.tokens.Sign(s)
	if err != nil {
		return "", domain.Session{}, fmt.Errorf("sign session token: %w", err)
	}
	if err := m.registry.Put(ctx, s); err != nil {
		return "", domain.Session{}, fmt.Errorf("store session: %w", err)
	}
	m.publish(domain.EventSignedIn, &s)
	return token, s, nil
}

// Resolve returns the live session for token.
// Errors: ErrInvalidToken, domain.ErrExpired, domain.ErrNotFound (signed out).
// POST: an expired session found here is removed and EventExpired published
func (m *Manager) Resolve(ctx context.Context, token string) (domain.Session, error) {
	if token == "" {
		return domain.Session{}, domain.ErrNotFound
	}
	claims, err := m.tokens.Parse(token)
	if errors.Is(err, domain.ErrExpired) {
		m.expire(ctx, claims.ID)
		return domain.Session{}, domain.ErrExpired
	}
	if err != nil {
		return domain.Session{}, err
	}

	s, err := m.registry.Get(ctx, claims.ID)
	if err != nil {
		return domain.Session{}, err
	}
	if s.ExpiredAt(m.now()) {
		m.expire(ctx, s.ID)
		return domain.Session{}, domain.ErrExpired
	}
	return s, nil
}

// End revokes the session behind token. Ending an unknown, expired or
// malformed token is a no-op.
// POST: token no longer resolves; EventSignedOut published if a session was removed
func (m *Manager) End(ctx context.Context, token string) error {
	claims, err := m.tokens.Parse(token)
	if err != nil && !errors.Is(err, domain.ErrExpired) {
		return nil
	}
	s, ok, err := m.registry.Delete(ctx, claims.ID)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if ok {
		m.publish(domain.EventSignedOut, &s)
	}
	return nil
}

// Sweep removes expired sessions from registries that need it and publishes
// EventExpired for each. It returns how many were removed.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	exp, ok := m.registry.(Expirer)
	if !ok {
		return 0, nil
	}
	expired, err := exp.Expire(ctx, m.now())
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	for i := range expired {
		m.publish(domain.EventExpired, &expired[i])
	}
	return len(expired), nil
}

func (m *Manager) expire(ctx context.Context, id string) {
	if s, ok, err := m.registry.Delete(ctx, id); err == nil && ok {
		m.publish(domain.EventExpired, &s)
	}
}

func (m *Manager) publish(kind domain.EventKind, s *domain.Session) {
	m.notifier.Publish(domain.Event{Kind: kind, Session: s, At: m.now()})
}
