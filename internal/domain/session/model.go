package session

import (
	"errors"
	"time"
)

// EventKind names a session transition.
type EventKind string

const (
	EventSignedIn  EventKind = "signed_in"
	EventSignedOut EventKind = "signed_out"
	EventExpired   EventKind = "expired"
)

// Domain errors
var (
	ErrNotFound     = errors.New("session not found")
	ErrExpired      = errors.New("session expired")
	ErrEmptyAccount = errors.New("session requires an account")
)

// Session is a live sign-in. ID doubles as the token's jti claim.
type Session struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Validate checks if the Session has valid data.
// PRE: Session struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Session) Validate() error {
	if s.AccountID == "" {
		return ErrEmptyAccount
	}
	return nil
}

// ExpiredAt reports whether the session is past its expiry at now.
func (s *Session) ExpiredAt(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Event is published to subscribers on every session transition.
// Session is nil for EventSignedOut when the session was already gone.
type Event struct {
	Kind    EventKind
	Session *Session
	At      time.Time
}
