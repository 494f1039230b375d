package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"seacomms/internal/domain/account"
	"seacomms/internal/domain/apperr"
)

// AccountStoreForSignIn defines the store interface needed by SignIn.
type AccountStoreForSignIn interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// SignInInput carries input for the sign-in orchestrator.
type SignInInput struct {
	Email    string
	Password string
}

// SignInDeps holds dependencies for SignIn.
type SignInDeps struct {
	AccountStore AccountStoreForSignIn
	Sessions     SessionStarter
}

// ExecuteSignIn checks credentials and starts a session.
// PRE: none
// POST: on success failed-login counters are reset and a session is live;
// on a wrong password the failure is recorded and may lock the account
// INVARIANT: a locked or pending account cannot sign in, even with the right
// password; pending status is only revealed once the password checks out
func ExecuteSignIn(ctx context.Context, input SignInInput, deps SignInDeps) (AuthResult, error) {
	addr := account.NormalizeEmail(input.Email)
	if addr == "" || input.Password == "" {
		return AuthResult{}, apperr.Auth(ErrInvalidCredentials)
	}

	acct, err := deps.AccountStore.GetByEmail(ctx, addr)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Info("auth_event", "event", "login_failed", "email", addr, "reason", "not_found")
		return AuthResult{}, apperr.Auth(ErrInvalidCredentials)
	}
	if err != nil {
		return AuthResult{}, apperr.Store("account.get_by_email", err)
	}

	if acct.IsLocked() {
		slog.Info("auth_event", "event", "login_blocked", "email", addr, "reason", "locked")
		return AuthResult{}, apperr.Auth(ErrAccountLocked)
	}

	if err := acct.CheckPassword(input.Password); err != nil {
		acct.RecordFailedLogin()
		if err := deps.AccountStore.Save(ctx, acct); err != nil {
			slog.Error("internal_error", "op", "account.save", "error", err)
		}
		slog.Info("auth_event", "event", "login_failed", "email", addr, "reason", "wrong_password", "failed_logins", acct.FailedLogins)
		return AuthResult{}, apperr.Auth(ErrInvalidCredentials)
	}

	if acct.IsPendingActivation() {
		slog.Info("auth_event", "event", "login_blocked", "email", addr, "reason", "pending_activation")
		return AuthResult{}, apperr.Auth(ErrPendingActivation)
	}

	if acct.FailedLogins > 0 || !acct.LockedUntil.IsZero() {
		acct.ResetFailedLogins()
		if err := deps.AccountStore.Save(ctx, acct); err != nil {
			return AuthResult{}, apperr.Store("account.save", err)
		}
	}

	token, sess, err := deps.Sessions.Start(ctx, acct.ID, acct.Email)
	if err != nil {
		return AuthResult{}, apperr.Store("session.start", err)
	}
	slog.Info("auth_event", "event", "login_success", "email", addr)
	return AuthResult{Token: token, Session: sess}, nil
}
