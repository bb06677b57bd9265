package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassifyPassthrough(t *testing.T) {
	orig := NewError(KindAuthTokenExpired, "token expired", nil)

	// Already classified errors must pass through unchanged, even wrapped.
	got := Classify(orig)
	if got != orig {
		t.Error("Expected classified error to pass through unchanged")
	}

	wrapped := fmt.Errorf("fetch failed: %w", orig)
	got = Classify(wrapped)
	if got != orig {
		t.Error("Expected wrapped classified error to unwrap to original")
	}
}

func TestClassifyTimeout(t *testing.T) {
	got := Classify(context.DeadlineExceeded)
	if got.Kind != KindNetworkTimeout {
		t.Errorf("Expected NETWORK_TIMEOUT, got %s", got.Kind)
	}
	if got.Kind.Category() != CategoryNetwork {
		t.Errorf("Expected network category, got %s", got.Kind.Category())
	}
}

func TestClassifyUnknown(t *testing.T) {
	got := Classify(errors.New("weird"))
	if got.Kind != KindUnknown {
		t.Errorf("Expected UNKNOWN, got %s", got.Kind)
	}
	if got.Kind.Category() != CategoryUnknown {
		t.Errorf("Expected unknown category, got %s", got.Kind.Category())
	}
}

func TestClassifyNil(t *testing.T) {
	if Classify(nil) != nil {
		t.Error("Expected nil for nil error")
	}
}

func TestKindCategories(t *testing.T) {
	cases := map[ErrorKind]Category{
		KindNetworkOffline:       CategoryNetwork,
		KindNetworkTimeout:       CategoryNetwork,
		KindNetworkFailed:        CategoryNetwork,
		KindRateLimited:          CategoryNetwork,
		KindServiceUnavailable:   CategoryNetwork,
		KindAuthTokenExpired:     CategoryAuthentication,
		KindAuthPermissionDenied: CategoryAuthentication,
		KindSessionExpired:       CategoryAuthentication,
		KindValidation:           CategoryValidation,
		KindMatchRequestFailed:   CategoryMatching,
		KindNoEligibleUsers:      CategoryMatching,
		KindMatchAlreadyExists:   CategoryMatching,
		KindMatchConfirmFailed:   CategoryMatching,
		KindUnknown:              CategoryUnknown,
	}

	for kind, want := range cases {
		if got := kind.Category(); got != want {
			t.Errorf("Kind %s: expected category %s, got %s", kind, want, got)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewError(KindNetworkFailed, "fetch failed", cause)

	if !errors.Is(err, cause) {
		t.Error("Expected errors.Is to find the cause")
	}
	if err.Error() == "" {
		t.Error("Expected non-empty error message")
	}
}
