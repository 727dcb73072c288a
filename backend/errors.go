package backend

import (
	"context"
	"errors"
	"fmt"
)

// Common errors for the backend core.
var (
	// ErrNoSupportedBackend means zero backends are even structurally
	// supported on the current platform.
	ErrNoSupportedBackend = errors.New("no backend supported on this platform")
	// ErrNoneAvailable means supported backends exist but none passed a
	// live availability check.
	ErrNoneAvailable = errors.New("no backend passed its availability check")
	// ErrExhaustedRetries means every retry attempt failed.
	ErrExhaustedRetries = errors.New("all retry attempts exhausted")
	// ErrNotFound is the discovery loop's terminal "nothing configured yet"
	// outcome.
	ErrNotFound = errors.New("no working endpoint discovered")
	// ErrEmptyText rejects requests with no input.
	ErrEmptyText = errors.New("request text is empty")
	// ErrClientDisposed rejects calls on a disposed client handle.
	ErrClientDisposed = errors.New("client has been disposed")
)

// Kind classifies a backend failure for retry decisions.
type Kind int

const (
	// KindUnknown is an unclassified failure. Treated as retryable.
	KindUnknown Kind = iota
	// KindUnavailable means the backend is unreachable or not installed.
	KindUnavailable
	// KindInvalidInput means the request itself was rejected.
	KindInvalidInput
	// KindAuthFailure means credentials were missing or rejected.
	KindAuthFailure
	// KindTimeout means the call exceeded its deadline.
	KindTimeout
	// KindBusy means the backend signalled transient resource contention.
	KindBusy
)

// String returns the string representation of the error kind.
func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindInvalidInput:
		return "invalid-input"
	case KindAuthFailure:
		return "auth-failure"
	case KindTimeout:
		return "timeout"
	case KindBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// Retryable reports whether failures of this kind are worth retrying.
// Bad input and bad credentials never heal on their own.
func (k Kind) Retryable() bool {
	switch k {
	case KindInvalidInput, KindAuthFailure:
		return false
	default:
		return true
	}
}

// Error is a classified backend failure with enough context for the caller
// to log and display without digging through wrap chains.
type Error struct {
	Backend  ID    // Backend that failed
	Kind     Kind  // Failure classification
	Attempts int   // Underlying call attempts made, zero if not from a retry loop
	Err      error // Underlying cause
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("%s backend: %s after %d attempts: %v", e.Backend, e.Kind, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s backend: %s: %v", e.Backend, e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err as a classified backend failure.
func NewError(id ID, kind Kind, err error) *Error {
	return &Error{Backend: id, Kind: kind, Err: err}
}

// InitializationError means a specific backend failed to construct its
// client. Recoverable by falling back to the next candidate.
type InitializationError struct {
	Backend ID
	Err     error
}

// Error implements the error interface.
func (e *InitializationError) Error() string {
	return fmt.Sprintf("initializing %s backend: %v", e.Backend, e.Err)
}

// Unwrap returns the underlying cause.
func (e *InitializationError) Unwrap() error { return e.Err }

// ValidationError means the caller's input was invalid. Never retried.
type ValidationError struct {
	Field string
	Err   error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ValidationError) Unwrap() error { return e.Err }

// Classify extracts the failure kind from err. Unwrapped and unrecognized
// errors come back as KindUnknown.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return KindInvalidInput
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindUnknown
}

// IsRetryable is the default retryable classifier used by RetryPolicy when
// none is supplied.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return Classify(err).Retryable()
}
