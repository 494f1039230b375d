package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"seacomms/internal/domain/apperr"
)

var errSentinel = errors.New("name cannot be empty")

// TestKindOf_Classified verifies each constructor tags its kind and keeps the sentinel reachable.
func TestKindOf_Classified(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{"validation", apperr.Validation(errSentinel), apperr.KindValidation},
		{"auth", apperr.Auth(errSentinel), apperr.KindAuth},
		{"store", apperr.Store("category.insert", errSentinel), apperr.KindStore},
		{"wrapped again", fmt.Errorf("create category: %w", apperr.Validation(errSentinel)), apperr.KindValidation},
		{"plain", errSentinel, apperr.KindUnknown},
		{"nil", nil, apperr.KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := apperr.KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf = %v, want %v", got, tt.want)
			}
			if tt.err != nil && !errors.Is(tt.err, errSentinel) {
				t.Error("expected errors.Is to match the sentinel")
			}
		})
	}
}

// TestStore_MessageIncludesOp verifies store errors name the failed operation.
func TestStore_MessageIncludesOp(t *testing.T) {
	err := apperr.Store("progress.upsert", errors.New("disk I/O error"))
	if err.Error() != "progress.upsert: disk I/O error" {
		t.Errorf("got %q", err.Error())
	}
}

// TestConstructors_NilPassthrough verifies nil errors stay nil.
func TestConstructors_NilPassthrough(t *testing.T) {
	if apperr.Validation(nil) != nil || apperr.Auth(nil) != nil || apperr.Store("op", nil) != nil {
		t.Error("expected nil for nil input")
	}
	if apperr.Is(nil, apperr.KindStore) {
		t.Error("nil must not match any kind")
	}
}
