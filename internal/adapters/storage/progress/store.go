package progress

import (
	"context"

	domain "seacomms/internal/domain/progress"
)

// Store persists per-user progress rows keyed on (user_id, commendation_id).
type Store interface {
	List(ctx context.Context, filter ListFilter) ([]domain.UserProgress, error)
	Upsert(ctx context.Context, values []domain.UserProgress) ([]domain.UserProgress, error)
}

// ListFilter carries filtering parameters for List operations.
// Zero values mean "no filter".
type ListFilter struct {
	UserID         string
	CommendationID int64
	CategoryID     int64 // rows whose commendation belongs to this category
}
