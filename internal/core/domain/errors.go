package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind identifies a specific failure mode.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNetworkOffline
	KindNetworkTimeout
	KindNetworkFailed
	KindRateLimited
	KindAuthTokenExpired
	KindAuthPermissionDenied
	KindSessionExpired
	KindValidation
	KindMatchRequestFailed
	KindNoEligibleUsers
	KindMatchAlreadyExists
	KindMatchConfirmFailed
	KindServiceUnavailable
)

// Category groups error kinds for recovery policy.
type Category string

const (
	CategoryNetwork        Category = "network"
	CategoryAuthentication Category = "authentication"
	CategoryValidation     Category = "validation"
	CategoryMatching       Category = "matching"
	CategoryUnknown        Category = "unknown"
)

// Category returns the recovery category for a kind.
func (k ErrorKind) Category() Category {
	switch k {
	case KindNetworkOffline, KindNetworkTimeout, KindNetworkFailed, KindRateLimited, KindServiceUnavailable:
		return CategoryNetwork
	case KindAuthTokenExpired, KindAuthPermissionDenied, KindSessionExpired:
		return CategoryAuthentication
	case KindValidation:
		return CategoryValidation
	case KindMatchRequestFailed, KindNoEligibleUsers, KindMatchAlreadyExists, KindMatchConfirmFailed:
		return CategoryMatching
	default:
		return CategoryUnknown
	}
}

// String returns the wire name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindNetworkOffline:
		return "NETWORK_OFFLINE"
	case KindNetworkTimeout:
		return "NETWORK_TIMEOUT"
	case KindNetworkFailed:
		return "NETWORK_FAILED"
	case KindRateLimited:
		return "RATE_LIMITED"
	case KindAuthTokenExpired:
		return "AUTH_TOKEN_EXPIRED"
	case KindAuthPermissionDenied:
		return "AUTH_PERMISSION_DENIED"
	case KindSessionExpired:
		return "SESSION_EXPIRED"
	case KindValidation:
		return "VALIDATION_FAILED"
	case KindMatchRequestFailed:
		return "MATCH_REQUEST_FAILED"
	case KindNoEligibleUsers:
		return "NO_ELIGIBLE_USERS"
	case KindMatchAlreadyExists:
		return "MATCH_ALREADY_EXISTS"
	case KindMatchConfirmFailed:
		return "MATCH_CONFIRM_FAILED"
	case KindServiceUnavailable:
		return "EXTERNAL_SERVICE_UNAVAILABLE"
	default:
		return "UNKNOWN"
	}
}

// Error is a classified failure. Classification happens once, at the
// gateway/recorder boundary; everything downstream operates on this type.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// NewError creates a classified error.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage returns a message suitable for surfacing to the UI.
func (e *Error) UserMessage() string {
	switch e.Kind.Category() {
	case CategoryNetwork:
		return "Connection trouble. Check your network and try again."
	case CategoryAuthentication:
		return "Your session has expired. Please sign in again."
	case CategoryValidation:
		return "That action couldn't be processed."
	case CategoryMatching:
		return "We couldn't complete that match right now."
	default:
		return "Something went wrong. Please try again."
	}
}

// Classify wraps an arbitrary error into a classified Error. Already
// classified errors pass through unchanged, so classification never
// happens twice.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var de *Error
	if errors.As(err, &de) {
		return de
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(KindNetworkTimeout, "request timed out", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return NewError(KindNetworkTimeout, "request timed out", err)
		}
		return NewError(KindNetworkOffline, "network unreachable", err)
	}

	return NewError(KindUnknown, "unexpected error", err)
}
