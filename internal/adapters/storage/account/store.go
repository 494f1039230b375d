package account

import (
	"context"

	domain "seacomms/internal/domain/account"
)

// Store persists Account state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	Save(ctx context.Context, value domain.Account) error
	Count(ctx context.Context) (int, error)
	SavePending(ctx context.Context, value domain.Account, tok domain.ActivationToken) error
	GetActivationTokenByToken(ctx context.Context, token string) (domain.ActivationToken, error)
	CompleteActivation(ctx context.Context, value domain.Account, tok domain.ActivationToken) error
}
