package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by how it is reported to the user.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuth
	KindStore
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindStore:
		return "store"
	default:
		return "unknown"
	}
}

// Error attaches a Kind (and optionally the failed operation) to an underlying error.
// Sentinels wrapped in an Error still match with errors.Is.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Error implements error.
func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Validation marks err as a validation failure caught before any write.
func Validation(err error) error {
	return wrap(KindValidation, "", err)
}

// Auth marks err as an authentication failure.
func Auth(err error) error {
	return wrap(KindAuth, "", err)
}

// Store marks err as a record store failure during op.
func Store(op string, err error) error {
	return wrap(KindStore, op, err)
}

// KindOf reports the kind of the outermost classified error in err's chain.
// PRE: none
// POST: returns KindUnknown for nil or unclassified errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err is classified as kind k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

func wrap(k Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: k, Op: op, Err: err}
}
