package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"seacomms/internal/adapters/storage"
	categoryStore "seacomms/internal/adapters/storage/category"
	"seacomms/internal/domain/apperr"
	"seacomms/internal/domain/category"
)

// CategoryStoreForCreate defines the store interface needed by CreateCategory.
type CategoryStoreForCreate interface {
	List(ctx context.Context, filter categoryStore.ListFilter) ([]category.Category, error)
	Insert(ctx context.Context, values []category.Category) ([]category.Category, error)
}

// CreateCategoryInput carries input for the create-category orchestrator.
type CreateCategoryInput struct {
	Name        string
	Description string
	AdminEmail  string // for the audit log only
}

// CreateCategoryDeps holds dependencies for CreateCategory.
type CreateCategoryDeps struct {
	CategoryStore CategoryStoreForCreate
}

// ExecuteCreateCategory validates and stores a new category.
// PRE: caller is an admin (enforced by the HTTP layer)
// POST: on success the stored category is returned with its assigned ID
// INVARIANT: Insert is never called when validation fails
func ExecuteCreateCategory(ctx context.Context, input CreateCategoryInput, deps CreateCategoryDeps) (category.Category, error) {
	existing, err := deps.CategoryStore.List(ctx, categoryStore.ListFilter{})
	if err != nil {
		return category.Category{}, apperr.Store("category.list", err)
	}
	name, err := category.ValidateNew(input.Name, existing)
	if err != nil {
		return category.Category{}, err
	}

	saved, err := deps.CategoryStore.Insert(ctx, []category.Category{{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
	}})
	if errors.Is(err, storage.ErrDuplicate) {
		// lost a race with a concurrent create of the same name
		return category.Category{}, apperr.Validation(category.ErrDuplicateName)
	}
	if err != nil {
		return category.Category{}, apperr.Store("category.insert", err)
	}
	slog.Info("admin_event", "event", "category_created", "id", saved[0].ID, "name", name, "admin", input.AdminEmail)
	return saved[0], nil
}
