package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"seacomms/internal/domain/account"
	"seacomms/internal/domain/apperr"
)

// TokenStoreForActivation defines the store interface needed to check an activation link.
type TokenStoreForActivation interface {
	GetActivationTokenByToken(ctx context.Context, token string) (account.ActivationToken, error)
}

// AccountStoreForActivation defines the store interface needed by ActivateAccount.
type AccountStoreForActivation interface {
	TokenStoreForActivation
	GetByID(ctx context.Context, id string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
	CompleteActivation(ctx context.Context, a account.Account, tok account.ActivationToken) error
}

// ActivateAccountInput carries input for the activation orchestrator.
type ActivateAccountInput struct {
	Token    string
	Password string
}

// ActivateAccountDeps holds dependencies for ActivateAccount.
type ActivateAccountDeps struct {
	AccountStore AccountStoreForActivation
	Sessions     SessionStarter
	Now          func() time.Time
}

// ExecuteCheckActivationToken reports whether token can still activate an account.
// POST: returns the live token, or a validation error wrapping ErrTokenInvalid,
// ErrTokenUsed or ErrTokenExpired
func ExecuteCheckActivationToken(ctx context.Context, token string, store TokenStoreForActivation, now time.Time) (account.ActivationToken, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return account.ActivationToken{}, apperr.Validation(account.ErrTokenInvalid)
	}
	tok, err := store.GetActivationTokenByToken(ctx, token)
	if errors.Is(err, sql.ErrNoRows) {
		return account.ActivationToken{}, apperr.Validation(account.ErrTokenInvalid)
	}
	if err != nil {
		return account.ActivationToken{}, apperr.Store("activation_token.get", err)
	}
	if tok.Used {
		return account.ActivationToken{}, apperr.Validation(account.ErrTokenUsed)
	}
	if tok.IsExpired(now) {
		return account.ActivationToken{}, apperr.Validation(account.ErrTokenExpired)
	}
	return tok, nil
}

// ExecuteActivateAccount consumes an activation link and signs the account in.
// The password chosen at sign-up must be supplied, so holding the link alone
// is not enough to take over the account.
// PRE: none
// POST: on success the account is active, every activation token for it is
// used and a session is live; a wrong password is recorded like a failed login
// INVARIANT: no session is started for an account that is still pending
func ExecuteActivateAccount(ctx context.Context, input ActivateAccountInput, deps ActivateAccountDeps) (AuthResult, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	tok, err := ExecuteCheckActivationToken(ctx, input.Token, deps.AccountStore, deps.Now())
	if err != nil {
		slog.Info("auth_event", "event", "activation_failed", "reason", err.Error())
		return AuthResult{}, err
	}

	acct, err := deps.AccountStore.GetByID(ctx, tok.AccountID)
	if err != nil {
		return AuthResult{}, apperr.Store("account.get", err)
	}
	if acct.IsLocked() {
		slog.Info("auth_event", "event", "activation_blocked", "email", acct.Email, "reason", "locked")
		return AuthResult{}, apperr.Auth(ErrAccountLocked)
	}
	if err := acct.CheckPassword(input.Password); err != nil {
		acct.RecordFailedLogin()
		if err := deps.AccountStore.Save(ctx, acct); err != nil {
			slog.Error("internal_error", "op", "account.save", "error", err)
		}
		slog.Info("auth_event", "event", "activation_failed", "email", acct.Email, "reason", "wrong_password", "failed_logins", acct.FailedLogins)
		return AuthResult{}, apperr.Auth(ErrInvalidCredentials)
	}

	if err := acct.Activate(); err != nil {
		return AuthResult{}, apperr.Validation(err)
	}
	acct.ResetFailedLogins()
	tok.Invalidate()
	if err := deps.AccountStore.CompleteActivation(ctx, acct, tok); err != nil {
		if errors.Is(err, account.ErrTokenUsed) {
			return AuthResult{}, apperr.Validation(err)
		}
		return AuthResult{}, apperr.Store("account.activate", err)
	}

	token, sess, err := deps.Sessions.Start(ctx, acct.ID, acct.Email)
	if err != nil {
		return AuthResult{}, apperr.Store("session.start", err)
	}
	slog.Info("auth_event", "event", "account_activated", "account_id", acct.ID, "email", acct.Email)
	return AuthResult{Token: token, Session: sess}, nil
}
