package projections

import (
	"context"

	"seacomms/internal/adapters/storage/category"
	"seacomms/internal/application/listutil"
	"seacomms/internal/domain/apperr"
	domainCategory "seacomms/internal/domain/category"
)

// GetCategoriesQuery carries query parameters.
type GetCategoriesQuery struct {
	Sort listutil.SortParams
}

// GetCategoriesDeps holds dependencies for GetCategories.
type GetCategoriesDeps struct {
	CategoryStore CategoryStore
}

// QueryGetCategories lists every category for the dashboard.
// PRE: none
// POST: returns a non-nil slice ordered by the requested column (id by default)
func QueryGetCategories(ctx context.Context, query GetCategoriesQuery, deps GetCategoriesDeps) ([]domainCategory.Category, error) {
	cats, err := deps.CategoryStore.List(ctx, category.ListFilter{Sort: query.Sort})
	if err != nil {
		return nil, apperr.Store("category.list", err)
	}
	if cats == nil {
		cats = []domainCategory.Category{}
	}
	return cats, nil
}
