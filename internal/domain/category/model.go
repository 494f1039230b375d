package category

import (
	"errors"
	"strings"

	"seacomms/internal/domain/apperr"
)

// MaxNameLength bounds category names.
const MaxNameLength = 100

// Domain errors
var (
	ErrEmptyName     = errors.New("category name cannot be empty")
	ErrNameTooLong   = errors.New("category name cannot exceed 100 characters")
	ErrDuplicateName = errors.New("category already exists")
)

// Category groups commendations (e.g. a skill tree). Names are unique ignoring case.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ValidateNew checks a proposed category name against the existing categories.
// PRE: existing holds every stored category
// POST: returns the trimmed name, or a validation error wrapping ErrEmptyName,
// ErrNameTooLong or ErrDuplicateName
func ValidateNew(name string, existing []Category) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Validation(ErrEmptyName)
	}
	if len(name) > MaxNameLength {
		return "", apperr.Validation(ErrNameTooLong)
	}
	for _, c := range existing {
		if strings.EqualFold(c.Name, name) {
			return "", apperr.Validation(ErrDuplicateName)
		}
	}
	return name, nil
}
