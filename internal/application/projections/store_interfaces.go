package projections

import (
	"context"
	"errors"

	"seacomms/internal/adapters/storage/category"
	"seacomms/internal/adapters/storage/commendation"
	"seacomms/internal/adapters/storage/progress"
	domainAccount "seacomms/internal/domain/account"
	domainCategory "seacomms/internal/domain/category"
	domainCommendation "seacomms/internal/domain/commendation"
	domainProgress "seacomms/internal/domain/progress"
)

// ErrCategoryNotFound is returned when a category ID does not exist.
var ErrCategoryNotFound = errors.New("category not found")

// CategoryStore interface for category queries.
type CategoryStore interface {
	List(ctx context.Context, filter category.ListFilter) ([]domainCategory.Category, error)
	GetByID(ctx context.Context, id int64) (domainCategory.Category, error)
}

// CommendationStore interface for commendation queries.
type CommendationStore interface {
	List(ctx context.Context, filter commendation.ListFilter) ([]domainCommendation.Commendation, error)
}

// ProgressStore interface for progress queries.
type ProgressStore interface {
	List(ctx context.Context, filter progress.ListFilter) ([]domainProgress.UserProgress, error)
}

// AccountStore interface for account queries.
type AccountStore interface {
	GetByID(ctx context.Context, id string) (domainAccount.Account, error)
}
