package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"seacomms/internal/adapters/storage"
	commendationStore "seacomms/internal/adapters/storage/commendation"
	"seacomms/internal/domain/apperr"
	"seacomms/internal/domain/category"
	"seacomms/internal/domain/commendation"
)

// CategoryStoreForCommendation defines the category lookup needed by CreateCommendation.
type CategoryStoreForCommendation interface {
	GetByID(ctx context.Context, id int64) (category.Category, error)
}

// CommendationStoreForCreate defines the store interface needed by CreateCommendation.
type CommendationStoreForCreate interface {
	List(ctx context.Context, filter commendationStore.ListFilter) ([]commendation.Commendation, error)
	Insert(ctx context.Context, values []commendation.Commendation) ([]commendation.Commendation, error)
}

// CreateCommendationInput carries input for the create-commendation orchestrator.
type CreateCommendationInput struct {
	commendation.NewInput
	AdminEmail string // for the audit log only
}

// CreateCommendationDeps holds dependencies for CreateCommendation.
type CreateCommendationDeps struct {
	CategoryStore     CategoryStoreForCommendation
	CommendationStore CommendationStoreForCreate
}

// ExecuteCreateCommendation validates and stores a new commendation.
// PRE: caller is an admin (enforced by the HTTP layer)
// POST: on success the stored commendation is returned with its assigned ID
// INVARIANT: Insert is never called when validation fails; duplicate titles are
// checked only against the selected category
func ExecuteCreateCommendation(ctx context.Context, input CreateCommendationInput, deps CreateCommendationDeps) (commendation.Commendation, error) {
	if input.CategoryID <= 0 {
		return commendation.Commendation{}, apperr.Validation(commendation.ErrNoCategory)
	}
	if _, err := deps.CategoryStore.GetByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return commendation.Commendation{}, apperr.Validation(commendation.ErrNoCategory)
		}
		return commendation.Commendation{}, apperr.Store("category.get", err)
	}

	existing, err := deps.CommendationStore.List(ctx, commendationStore.ListFilter{CategoryID: input.CategoryID})
	if err != nil {
		return commendation.Commendation{}, apperr.Store("commendation.list", err)
	}
	draft, err := commendation.ValidateNew(input.NewInput, existing)
	if err != nil {
		return commendation.Commendation{}, err
	}

	saved, err := deps.CommendationStore.Insert(ctx, []commendation.Commendation{draft})
	if errors.Is(err, storage.ErrDuplicate) {
		// lost a race with a concurrent create of the same title
		return commendation.Commendation{}, apperr.Validation(commendation.ErrDuplicateTitle)
	}
	if err != nil {
		return commendation.Commendation{}, apperr.Store("commendation.insert", err)
	}
	slog.Info("admin_event", "event", "commendation_created", "id", saved[0].ID,
		"category_id", draft.CategoryID, "title", draft.Title, "admin", input.AdminEmail)
	return saved[0], nil
}
