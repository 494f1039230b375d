package commendation

import (
	"errors"
	"strconv"
	"strings"

	"seacomms/internal/domain/apperr"
)

// MaxTitleLength bounds commendation titles.
const MaxTitleLength = 200

// Domain errors
var (
	ErrNoCategory     = errors.New("please select a category")
	ErrEmptyTitle     = errors.New("title cannot be empty")
	ErrTitleTooLong   = errors.New("title cannot exceed 200 characters")
	ErrInvalidAmount  = errors.New("total amount must be greater than 0")
	ErrDuplicateTitle = errors.New("commendation already exists in this category")
)

// Commendation is a trackable goal with a required total amount.
// (CategoryID, Title) is unique.
type Commendation struct {
	ID          int64  `json:"id"`
	CategoryID  int64  `json:"category_id"`
	Title       string `json:"title"`
	Subcategory string `json:"subcategory,omitempty"`
	TotalAmount int    `json:"total_amount"`
	Description string `json:"description,omitempty"`
}

// NewInput carries the raw admin form values for a new commendation.
// TotalAmount is kept as text so form and JSON input share one parse rule.
type NewInput struct {
	CategoryID  int64
	Title       string
	Subcategory string
	TotalAmount string
	Description string
}

// ParseAmount parses a required amount. Only positive base-10 integers are accepted.
// PRE: none
// POST: returns the amount or a validation error wrapping ErrInvalidAmount
func ParseAmount(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0, apperr.Validation(ErrInvalidAmount)
	}
	return n, nil
}

// ValidateNew checks a proposed commendation against the commendations already
// stored for its category and returns the record to insert (ID unset).
// Checks run in order: category selected, title, amount, duplicate title.
// PRE: existing holds the stored commendations of in.CategoryID (others are ignored)
// POST: returns a validation error wrapping one of the domain sentinels on failure
func ValidateNew(in NewInput, existing []Commendation) (Commendation, error) {
	if in.CategoryID <= 0 {
		return Commendation{}, apperr.Validation(ErrNoCategory)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Commendation{}, apperr.Validation(ErrEmptyTitle)
	}
	if len(title) > MaxTitleLength {
		return Commendation{}, apperr.Validation(ErrTitleTooLong)
	}
	total, err := ParseAmount(in.TotalAmount)
	if err != nil {
		return Commendation{}, err
	}
	for _, c := range existing {
		if c.CategoryID == in.CategoryID && strings.TrimSpace(c.Title) == title {
			return Commendation{}, apperr.Validation(ErrDuplicateTitle)
		}
	}
	return Commendation{
		CategoryID:  in.CategoryID,
		Title:       title,
		Subcategory: strings.TrimSpace(in.Subcategory),
		TotalAmount: total,
		Description: in.Description,
	}, nil
}
