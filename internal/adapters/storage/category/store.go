package category

import (
	"context"

	"seacomms/internal/application/listutil"
	domain "seacomms/internal/domain/category"
)

// SortColumns are the columns List accepts in ListFilter.Sort.
var SortColumns = []string{"id", "name"}

// Store persists Category records. Categories are never mutated or deleted.
type Store interface {
	List(ctx context.Context, filter ListFilter) ([]domain.Category, error)
	GetByID(ctx context.Context, id int64) (domain.Category, error)
	Insert(ctx context.Context, values []domain.Category) ([]domain.Category, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Name string // exact, case-insensitive match when set
	Sort listutil.SortParams
}
