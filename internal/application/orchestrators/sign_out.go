package orchestrators

import (
	"context"
	"log/slog"

	"seacomms/internal/domain/apperr"
)

// SignOutInput carries input for the sign-out orchestrator.
type SignOutInput struct {
	Token string
	Email string // for the audit log only
}

// SignOutDeps holds dependencies for SignOut.
type SignOutDeps struct {
	Sessions SessionEnder
}

// ExecuteSignOut revokes the caller's session.
// PRE: none
// POST: Token no longer resolves; signing out twice is not an error
func ExecuteSignOut(ctx context.Context, input SignOutInput, deps SignOutDeps) error {
	if input.Token == "" {
		return nil
	}
	if err := deps.Sessions.End(ctx, input.Token); err != nil {
		return apperr.Store("session.end", err)
	}
	slog.Info("auth_event", "event", "logout", "email", input.Email)
	return nil
}
