package commendation

import (
	"context"

	"seacomms/internal/application/listutil"
	domain "seacomms/internal/domain/commendation"
)

// SortColumns are the columns List accepts in ListFilter.Sort.
var SortColumns = []string{"id", "title", "subcategory", "total_amount"}

// Store persists Commendation records. Commendations are never mutated or deleted.
type Store interface {
	List(ctx context.Context, filter ListFilter) ([]domain.Commendation, error)
	GetByID(ctx context.Context, id int64) (domain.Commendation, error)
	Insert(ctx context.Context, values []domain.Commendation) ([]domain.Commendation, error)
}

// ListFilter carries filtering parameters for List operations.
// Zero values mean "no filter".
type ListFilter struct {
	CategoryID int64
	Title      string
	Sort       listutil.SortParams
}
