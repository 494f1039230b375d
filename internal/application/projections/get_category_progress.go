package projections

import (
	"context"
	"database/sql"
	"errors"

	"seacomms/internal/adapters/storage/commendation"
	"seacomms/internal/adapters/storage/progress"
	"seacomms/internal/application/listutil"
	"seacomms/internal/domain/apperr"
	domainCategory "seacomms/internal/domain/category"
	domainCommendation "seacomms/internal/domain/commendation"
	domainProgress "seacomms/internal/domain/progress"
)

// GetCategoryProgressQuery carries query parameters.
type GetCategoryProgressQuery struct {
	CategoryID int64
	UserID     string
}

// GetCategoryProgressResult carries the query result.
type GetCategoryProgressResult struct {
	Category domainCategory.Category `json:"category"`
	domainProgress.CategoryProgress
}

// GetCategoryProgressDeps holds dependencies for GetCategoryProgress.
type GetCategoryProgressDeps struct {
	CategoryStore     CategoryStore
	CommendationStore CommendationStore
	ProgressStore     ProgressStore
}

// QueryGetCategoryProgress loads one category's commendations with the user's
// progress rows and aggregates them.
// PRE: UserID is the signed-in user
// POST: Items are ordered by commendation id; Summary is nil for an empty category
func QueryGetCategoryProgress(ctx context.Context, query GetCategoryProgressQuery, deps GetCategoryProgressDeps) (GetCategoryProgressResult, error) {
	cat, err := deps.CategoryStore.GetByID(ctx, query.CategoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return GetCategoryProgressResult{}, ErrCategoryNotFound
	}
	if err != nil {
		return GetCategoryProgressResult{}, apperr.Store("category.get", err)
	}

	comms, err := deps.CommendationStore.List(ctx, commendation.ListFilter{CategoryID: cat.ID})
	if err != nil {
		return GetCategoryProgressResult{}, apperr.Store("commendation.list", err)
	}
	rows, err := deps.ProgressStore.List(ctx, progress.ListFilter{UserID: query.UserID, CategoryID: cat.ID})
	if err != nil {
		return GetCategoryProgressResult{}, apperr.Store("progress.list", err)
	}

	return GetCategoryProgressResult{
		Category:         cat,
		CategoryProgress: domainProgress.Aggregate(comms, rows),
	}, nil
}

// GetCommendationsQuery carries query parameters.
type GetCommendationsQuery struct {
	CategoryID int64
	Title      string
	Sort       listutil.SortParams
}

// GetCommendationsDeps holds dependencies for GetCommendations.
type GetCommendationsDeps struct {
	CategoryStore     CategoryStore
	CommendationStore CommendationStore
}

// QueryGetCommendations lists the commendations of one category.
// PRE: none
// POST: returns ErrCategoryNotFound for an unknown category, otherwise a non-nil slice
func QueryGetCommendations(ctx context.Context, query GetCommendationsQuery, deps GetCommendationsDeps) ([]domainCommendation.Commendation, error) {
	if _, err := deps.CategoryStore.GetByID(ctx, query.CategoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, apperr.Store("category.get", err)
	}
	comms, err := deps.CommendationStore.List(ctx, commendation.ListFilter{
		CategoryID: query.CategoryID,
		Title:      query.Title,
		Sort:       query.Sort,
	})
	if err != nil {
		return nil, apperr.Store("commendation.list", err)
	}
	if comms == nil {
		comms = []domainCommendation.Commendation{}
	}
	return comms, nil
}
