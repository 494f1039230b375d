package progress

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"seacomms/internal/domain/apperr"
)

// Domain errors
var (
	ErrEmptyUserID      = errors.New("user ID is required")
	ErrNoCommendation   = errors.New("commendation ID is required")
	ErrNotANumber       = errors.New("progress must be a whole number")
	ErrAmountOutOfRange = errors.New("progress must be between 0 and the commendation total")
	ErrNegativeAmount   = errors.New("progress cannot be negative")
)

// UserProgress is one user's accumulated amount toward one commendation.
// At most one exists per (UserID, CommendationID); writes are upserts on that pair.
type UserProgress struct {
	UserID         string    `json:"user_id"`
	CommendationID int64     `json:"commendation_id"`
	CurrentAmount  int       `json:"current_amount"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Validate checks the record itself, independent of the commendation bound.
// PRE: UserProgress struct is populated
// POST: Returns nil if valid, error otherwise
func (p *UserProgress) Validate() error {
	if p.UserID == "" {
		return ErrEmptyUserID
	}
	if p.CommendationID <= 0 {
		return ErrNoCommendation
	}
	if p.CurrentAmount < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// ParseAmount parses a progress value typed into a form.
// PRE: none
// POST: returns the value or a validation error wrapping ErrNotANumber
func ParseAmount(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, apperr.Validation(ErrNotANumber)
	}
	return n, nil
}

// ValidateAmount checks that a new amount lies within [0, total].
// PRE: total > 0
// POST: returns a validation error wrapping ErrAmountOutOfRange on failure
func ValidateAmount(amount, total int) error {
	if amount < 0 || amount > total {
		return apperr.Validation(ErrAmountOutOfRange)
	}
	return nil
}
