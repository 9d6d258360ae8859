package domain

import (
	"errors"
	"fmt"
)

// Category sentinels.
var (
	ErrNotFound         = fmt.Errorf("not found")
	ErrDuplicate        = fmt.Errorf("duplicate")
	ErrTimeout          = fmt.Errorf("operation timed out")
	ErrPermissionDenied = fmt.Errorf("permission denied")
	ErrInvalidInput     = fmt.Errorf("invalid input")
)

// Sentinel errors for the domain layer.
var (
	// Capture bridge errors.
	ErrLocationPermission  = fmt.Errorf("location: %w", ErrPermissionDenied)
	ErrLocationUnavailable = fmt.Errorf("location position unavailable")
	ErrLocationTimeout     = fmt.Errorf("location: %w", ErrTimeout)
	ErrLocationUnsupported = fmt.Errorf("geolocation not supported")
	ErrLocationTransport   = fmt.Errorf("location transport payload invalid")

	ErrRequestNotFound  = fmt.Errorf("capture request not found")
	ErrRequestAbandoned = fmt.Errorf("capture request abandoned")

	// Wizard / session errors.
	ErrSessionNotFound = fmt.Errorf("session not found")
	ErrStepOrder       = fmt.Errorf("wizard step not reachable yet")
	ErrConsentRequired = fmt.Errorf("consent required")

	// Persistence errors.
	ErrSubmissionNotFound  = fmt.Errorf("submission not found")
	ErrSubmissionDuplicate = fmt.Errorf("submission: %w", ErrDuplicate)

	// Auth errors.
	ErrAuthInvalid  = fmt.Errorf("authentication failed")
	ErrTokenExpired = fmt.Errorf("session token expired")
)

// DomainError wraps a sentinel error with context.
type DomainError struct {
	Op     string // operation name (e.g. "Bridge.Deliver")
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a new DomainError.
func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// WrapOp adds operation context to an error using fmt.Errorf wrapping.
// Returns nil if err is nil, enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ErrorCode is a machine-parseable error category for monitoring and alerting.
type ErrorCode string

const (
	CodeUnknown             ErrorCode = "UNKNOWN"
	CodeLocationPermission  ErrorCode = "LOCATION_PERMISSION"
	CodeLocationUnavailable ErrorCode = "LOCATION_UNAVAILABLE"
	CodeLocationTimeout     ErrorCode = "LOCATION_TIMEOUT"
	CodeLocationUnsupported ErrorCode = "LOCATION_UNSUPPORTED"
	CodeLocationTransport   ErrorCode = "LOCATION_TRANSPORT"
	CodeRequestNotFound     ErrorCode = "REQUEST_NOT_FOUND"
	CodeRequestAbandoned    ErrorCode = "REQUEST_ABANDONED"
	CodeSessionNotFound     ErrorCode = "SESSION_NOT_FOUND"
	CodeStepOrder           ErrorCode = "STEP_ORDER"
	CodeConsentRequired     ErrorCode = "CONSENT_REQUIRED"
	CodeSubmissionNotFound  ErrorCode = "SUBMISSION_NOT_FOUND"
	CodeSubmissionDuplicate ErrorCode = "SUBMISSION_DUPLICATE"
	CodeAuthInvalid         ErrorCode = "AUTH_INVALID"
	CodeTokenExpired        ErrorCode = "TOKEN_EXPIRED"
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeDuplicate           ErrorCode = "DUPLICATE"
	CodeTimeout             ErrorCode = "TIMEOUT"
	CodePermissionDenied    ErrorCode = "PERMISSION_DENIED"
	CodeInvalidInput        ErrorCode = "INVALID_INPUT"
)

// errorCodeMap maps sentinel errors to their machine-parseable codes.
// Specific sentinels come before the category fallbacks in ErrorCodeOf.
var errorCodeMap = []struct {
	err  error
	code ErrorCode
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
	{ErrSubmissionNotFound, CodeSubmissionNotFound},
	{ErrSubmissionDuplicate, CodeSubmissionDuplicate},
	{ErrTokenExpired, CodeTokenExpired},
	{ErrAuthInvalid, CodeAuthInvalid},
	{ErrNotFound, CodeNotFound},
	{ErrDuplicate, CodeDuplicate},
	{ErrTimeout, CodeTimeout},
	{ErrPermissionDenied, CodePermissionDenied},
	{ErrInvalidInput, CodeInvalidInput},
}

// ErrorCodeOf returns the machine-parseable error code for the given error.
// It walks the error chain with errors.Is, matching specific sentinels before
// category fallbacks. Returns CodeUnknown if nothing matches.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}
	for _, entry := range errorCodeMap {
		if errors.Is(err, entry.err) {
			return entry.code
		}
	}
	return CodeUnknown
}
