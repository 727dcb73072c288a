package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// TestKindRetryable tests the retryability of every error kind.
func TestKindRetryable(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{KindUnknown, true},
		{KindUnavailable, true},
		{KindTimeout, true},
		{KindBusy, true},
		{KindInvalidInput, false},
		{KindAuthFailure, false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.kind.Retryable(); got != tt.want {
				t.Errorf("%v.Retryable() = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}
}

// TestClassify tests error-kind extraction across wrap chains.
func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain error", errors.New("boom"), KindUnknown},
		{"backend error", NewError(IDEdge, KindBusy, errors.New("busy")), KindBusy},
		{
			"wrapped backend error",
			fmt.Errorf("outer: %w", NewError(IDOllama, KindAuthFailure, errors.New("401"))),
			KindAuthFailure,
		},
		{"validation error", &ValidationError{Field: "text", Err: ErrEmptyText}, KindInvalidInput},
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{
			"wrapped deadline",
			fmt.Errorf("request: %w", context.DeadlineExceeded),
			KindTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestIsRetryable tests the default classifier, including the cancellation
// carve-out.
func TestIsRetryable(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("IsRetryable(nil) = true")
	}
	if IsRetryable(context.Canceled) {
		t.Error("IsRetryable(context.Canceled) = true")
	}
	if !IsRetryable(context.DeadlineExceeded) {
		t.Error("IsRetryable(DeadlineExceeded) = false")
	}
	if IsRetryable(NewError(IDEdge, KindInvalidInput, errors.New("bad"))) {
		t.Error("invalid input reported retryable")
	}
}

// TestErrorMessage tests that the classified error names the backend, the
// kind and the attempt count.
func TestErrorMessage(t *testing.T) {
	err := &Error{Backend: IDEdge, Kind: KindTimeout, Attempts: 3, Err: errors.New("deadline")}
	msg := err.Error()
	for _, want := range []string{"edge", "timeout", "3 attempts"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}

	single := NewError(IDNative, KindUnavailable, errors.New("not installed"))
	if strings.Contains(single.Error(), "attempts") {
		t.Errorf("single-attempt error mentions attempts: %q", single.Error())
	}
}

// TestErrorUnwrap tests the wrap chain of classified errors.
func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewError(IDOllama, KindUnavailable, cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is does not reach the cause")
	}

	init := &InitializationError{Backend: IDEdge, Err: cause}
	if !errors.Is(init, cause) {
		t.Error("InitializationError does not unwrap to the cause")
	}

	val := &ValidationError{Field: "text", Err: ErrEmptyText}
	if !errors.Is(val, ErrEmptyText) {
		t.Error("ValidationError does not unwrap to the sentinel")
	}
}

// TestBackendIDString tests backend ID formatting.
func TestBackendIDString(t *testing.T) {
	tests := []struct {
		id       ID
		expected string
	}{
		{IDEdge, "edge"},
		{IDNative, "native"},
		{IDOllama, "ollama"},
		{IDLMStudio, "lmstudio"},
		{IDMock, "mock"},
		{IDUnknown, "unknown"},
	}
	for _, tt := range tests {
		if got := tt.id.String(); got != tt.expected {
			t.Errorf("ID(%d).String() = %q, want %q", tt.id, got, tt.expected)
		}
	}
}
