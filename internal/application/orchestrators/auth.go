package orchestrators

import (
	"context"
	"errors"

	"seacomms/internal/domain/session"
)

// SessionStarter opens a session for an authenticated account.
type SessionStarter interface {
	Start(ctx context.Context, accountID, email string) (string, session.Session, error)
}

// SessionEnder revokes the session behind a token.
type SessionEnder interface {
	End(ctx context.Context, token string) error
}

// AuthResult is returned by sign-in and account activation.
type AuthResult struct {
	Token   string          `json:"token"`
	Session session.Session `json:"session"`
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is locked")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrPendingActivation  = errors.New("account has not been activated yet; check your email for the activation link")
)
