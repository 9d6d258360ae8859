package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainErrorUnwrap(t *testing.T) {
	err := NewDomainError("Bridge.Poll", ErrRequestNotFound, "req-1")
	if !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("errors.Is(err, ErrRequestNotFound) = false")
	}
	want := "Bridge.Poll: req-1: capture request not found"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	bare := NewDomainError("Bridge.Poll", ErrRequestNotFound, "")
	if bare.Error() != "Bridge.Poll: capture request not found" {
		t.Errorf("Error() = %q", bare.Error())
	}
}

func TestWrapOp(t *testing.T) {
	if WrapOp("op", nil) != nil {
		t.Error("WrapOp(op, nil) != nil")
	}
	err := WrapOp("Wizard.Submit", ErrSubmissionDuplicate)
	if !errors.Is(err, ErrSubmissionDuplicate) {
		t.Errorf("errors.Is = false for %v", err)
	}
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("category not in chain for %v", err)
	}
}

func TestErrorCodeOf(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorCode
	}{
		{ErrLocationPermission, CodeLocationPermission},
		{ErrLocationUnavailable, CodeLocationUnavailable},
		{ErrLocationTimeout, CodeLocationTimeout},
		{ErrLocationUnsupported, CodeLocationUnsupported},
		{ErrLocationTransport, CodeLocationTransport},
		{ErrRequestNotFound, CodeRequestNotFound},
		{ErrRequestAbandoned, CodeRequestAbandoned},
		{ErrSessionNotFound, CodeSessionNotFound},
		{ErrStepOrder, CodeStepOrder},
		{ErrConsentRequired, CodeConsentRequired},
		{ErrSubmissionDuplicate, CodeSubmissionDuplicate},
		{ErrAuthInvalid, CodeAuthInvalid},
		{ErrTokenExpired, CodeTokenExpired},
		{ErrInvalidInput, CodeInvalidInput},
		{nil, CodeUnknown},
		{fmt.Errorf("something else"), CodeUnknown},
	}
	for _, tt := range tests {
		if got := ErrorCodeOf(tt.err); got != tt.want {
			t.Errorf("ErrorCodeOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestErrorCodeOfPrefersSpecificSentinel(t *testing.T) {
	// ErrLocationTimeout wraps ErrTimeout; the specific code must win.
	err := NewDomainError("Bridge.Poll", ErrLocationTimeout, "host deadline")
	if got := ErrorCodeOf(err); got != CodeLocationTimeout {
		t.Errorf("ErrorCodeOf = %q, want %q", got, CodeLocationTimeout)
	}
	// Same for the duplicate category.
	if got := ErrorCodeOf(ErrSubmissionDuplicate); got != CodeSubmissionDuplicate {
		t.Errorf("ErrorCodeOf = %q, want %q", got, CodeSubmissionDuplicate)
	}
}
