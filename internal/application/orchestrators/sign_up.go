package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"seacomms/internal/adapters/email"
	"seacomms/internal/adapters/storage"
	"seacomms/internal/domain/account"
	"seacomms/internal/domain/apperr"
)

// AccountStoreForSignUp defines the store interface needed by SignUp.
type AccountStoreForSignUp interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	SavePending(ctx context.Context, a account.Account, tok account.ActivationToken) error
}

// SignUpInput carries input for the sign-up orchestrator.
type SignUpInput struct {
	Email    string
	Password string
}

// SignUpDeps holds dependencies for SignUp.
type SignUpDeps struct {
	AccountStore  AccountStoreForSignUp
	Mailer        email.Sender // optional: nil skips the activation email
	BaseURL       string
	GenerateID    func() string
	GenerateToken func() string
	HashPassword  func(plaintext string) (string, error)
	Now           func() time.Time
}

// SignUpResult reports the account awaiting activation. No session is started.
type SignUpResult struct {
	Email  string `json:"email"`
	Status string `json:"status"`
}

// ExecuteSignUp creates a pending account and emails its activation link.
// PRE: none
// POST: on success the account is stored pending_activation with a bcrypt hash
// and one live activation token; the email is attempted and its failure only logged
// INVARIANT: Email is unique; an active account is never replaced and the
// password is hashed only once the address is known to be free
func ExecuteSignUp(ctx context.Context, input SignUpInput, deps SignUpDeps) (SignUpResult, error) {
	if deps.GenerateID == nil {
		deps.GenerateID = uuid.NewString
	}
	if deps.GenerateToken == nil {
		deps.GenerateToken = uuid.NewString
	}
	if deps.HashPassword == nil {
		deps.HashPassword = account.HashPassword
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	now := deps.Now().UTC()

	acct := account.Account{
		ID:        deps.GenerateID(),
		Email:     account.NormalizeEmail(input.Email),
		Status:    account.StatusPendingActivation,
		CreatedAt: now,
	}
	if err := acct.Validate(); err != nil {
		return SignUpResult{}, apperr.Auth(err)
	}
	if err := account.ValidatePassword(input.Password); err != nil {
		return SignUpResult{}, apperr.Auth(err)
	}

	existing, err := deps.AccountStore.GetByEmail(ctx, acct.Email)
	switch {
	case err == nil && existing.Reclaimable(now):
		acct.ID = existing.ID
		slog.Info("auth_event", "event", "signup_reclaimed", "email", acct.Email)
	case err == nil:
		slog.Info("auth_event", "event", "signup_failed", "email", acct.Email, "reason", "email_taken")
		return SignUpResult{}, apperr.Auth(ErrEmailTaken)
	case !errors.Is(err, sql.ErrNoRows):
		return SignUpResult{}, apperr.Store("account.get_by_email", err)
	}

	if acct.PasswordHash, err = deps.HashPassword(input.Password); err != nil {
		return SignUpResult{}, apperr.Auth(err)
	}

	tok := account.NewActivationToken(deps.GenerateID(), acct.ID, deps.GenerateToken(), now)
	if err := deps.AccountStore.SavePending(ctx, acct, tok); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			slog.Info("auth_event", "event", "signup_failed", "email", acct.Email, "reason", "email_taken")
			return SignUpResult{}, apperr.Auth(ErrEmailTaken)
		}
		return SignUpResult{}, apperr.Store("account.save_pending", err)
	}
	slog.Info("auth_event", "event", "account_created_pending", "email", acct.Email)

	sendActivation(ctx, deps.Mailer, acct.Email, ActivationLink(deps.BaseURL, tok.Token))
	return SignUpResult{Email: acct.Email, Status: acct.Status}, nil
}

// ActivationLink returns the absolute URL of the activation page for token.
func ActivationLink(baseURL, token string) string {
	return baseURL + "/activate?token=" + url.QueryEscape(token)
}

func sendActivation(ctx context.Context, mailer email.Sender, to, link string) {
	if mailer == nil {
		return
	}
	msg, err := email.ActivationMessage(to, link, int(account.ActivationTTL/time.Hour))
	if err == nil {
		_, err = mailer.Send(ctx, msg)
	}
	if err != nil {
		slog.Warn("email_event", "event", "activation_failed", "email", to, "error", err)
	}
}
