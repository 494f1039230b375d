package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"seacomms/internal/domain/apperr"
	"seacomms/internal/domain/commendation"
	"seacomms/internal/domain/progress"
)

// CommendationStoreForProgress defines the lookup needed by UpdateProgress.
type CommendationStoreForProgress interface {
	GetByID(ctx context.Context, id int64) (commendation.Commendation, error)
}

// ProgressStoreForUpdate defines the store interface needed by UpdateProgress.
type ProgressStoreForUpdate interface {
	Upsert(ctx context.Context, values []progress.UserProgress) ([]progress.UserProgress, error)
}

// UpdateProgressInput carries input for the update-progress orchestrator.
// Amount is the raw text the user typed. CategoryID, when set, is the category
// the user is viewing; a commendation from any other category is rejected.
type UpdateProgressInput struct {
	UserID         string
	CommendationID int64
	CategoryID     int64
	Amount         string
}

// UpdateProgressDeps holds dependencies for UpdateProgress.
type UpdateProgressDeps struct {
	CommendationStore CommendationStoreForProgress
	ProgressStore     ProgressStoreForUpdate
	Now               func() time.Time
}

// ExecuteUpdateProgress records the user's new amount for one commendation.
// PRE: UserID is the signed-in user
// POST: exactly one row exists for (UserID, CommendationID) holding Amount
// INVARIANT: amounts outside [0, total_amount] or non-numeric never reach the store
func ExecuteUpdateProgress(ctx context.Context, input UpdateProgressInput, deps UpdateProgressDeps) (progress.UserProgress, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	amount, err := progress.ParseAmount(input.Amount)
	if err != nil {
		return progress.UserProgress{}, err
	}
	row := progress.UserProgress{
		UserID:         input.UserID,
		CommendationID: input.CommendationID,
		CurrentAmount:  amount,
		UpdatedAt:      deps.Now().UTC(),
	}
	if err := row.Validate(); err != nil {
		return progress.UserProgress{}, apperr.Validation(err)
	}

	comm, err := deps.CommendationStore.GetByID(ctx, row.CommendationID)
	if errors.Is(err, sql.ErrNoRows) {
		return progress.UserProgress{}, apperr.Validation(progress.ErrNoCommendation)
	}
	if err != nil {
		return progress.UserProgress{}, apperr.Store("commendation.get", err)
	}
	if input.CategoryID > 0 && comm.CategoryID != input.CategoryID {
		return progress.UserProgress{}, apperr.Validation(progress.ErrNoCommendation)
	}
	if err := progress.ValidateAmount(row.CurrentAmount, comm.TotalAmount); err != nil {
		return progress.UserProgress{}, err
	}

	saved, err := deps.ProgressStore.Upsert(ctx, []progress.UserProgress{row})
	if err != nil {
		return progress.UserProgress{}, apperr.Store("progress.upsert", err)
	}
	return saved[0], nil
}
