package domain

import (
	"fmt"
	"math"
	"time"
)

// Capture option bounds. Values outside these ranges are rejected before a
// request is created.
const (
	MaxCaptureTimeoutMs = 60000  // 60 seconds
	MaxCaptureMaxAgeMs  = 300000 // 5 minutes

	DefaultCaptureTimeoutMs = 15000
)

// CaptureOptions are the recognized options forwarded to the device
// geolocation API.
type CaptureOptions struct {
	HighAccuracy bool `json:"high_accuracy"`
	TimeoutMs    int  `json:"timeout_ms"`
	MaxAgeMs     int  `json:"max_age_ms"`
}

// Normalize fills defaults for zero-value fields.
func (o CaptureOptions) Normalize() CaptureOptions {
	if o.TimeoutMs == 0 {
		o.TimeoutMs = DefaultCaptureTimeoutMs
	}
	return o
}

// Validate checks option bounds.
func (o CaptureOptions) Validate() error {
	if o.TimeoutMs < 0 || o.TimeoutMs > MaxCaptureTimeoutMs {
		return NewDomainError("CaptureOptions.Validate", ErrInvalidInput,
			fmt.Sprintf("timeout_ms %d outside [0, %d]", o.TimeoutMs, MaxCaptureTimeoutMs))
	}
	if o.MaxAgeMs < 0 || o.MaxAgeMs > MaxCaptureMaxAgeMs {
		return NewDomainError("CaptureOptions.Validate", ErrInvalidInput,
			fmt.Sprintf("max_age_ms %d outside [0, %d]", o.MaxAgeMs, MaxCaptureMaxAgeMs))
	}
	return nil
}

// Timeout returns the device timeout as a duration.
func (o CaptureOptions) Timeout() time.Duration {
	return time.Duration(o.TimeoutMs) * time.Millisecond
}

// RequestState is the lifecycle state of a CaptureRequest.
type RequestState string

const (
	RequestPending   RequestState = "pending"
	RequestResolved  RequestState = "resolved"
	RequestAbandoned RequestState = "abandoned"
)

// CaptureRequest identifies a single capture attempt on a logical slot.
// A slot (e.g. one form's location field) holds at most one pending request;
// a newer request abandons the older one.
type CaptureRequest struct {
	ID        string
	Slot      string
	Options   CaptureOptions
	StartedAt time.Time
	State     RequestState
}

// FailureKind classifies a failed capture.
type FailureKind string

const (
	FailurePermissionDenied    FailureKind = "permission_denied"
	FailurePositionUnavailable FailureKind = "position_unavailable"
	FailureTimeout             FailureKind = "timeout"
	FailureUnsupported         FailureKind = "unsupported"
	FailureTransportError      FailureKind = "transport_error"
)

// Wire error codes (navigator.geolocation PositionError codes; 0 covers
// unsupported environments and anything else).
const (
	WireErrOther               = 0
	WireErrPermissionDenied    = 1
	WireErrPositionUnavailable = 2
	WireErrTimeout             = 3
)

// FailureKindFromWireCode maps a wire error_code to a FailureKind.
func FailureKindFromWireCode(code int) FailureKind {
	switch code {
	case WireErrPermissionDenied:
		return FailurePermissionDenied
	case WireErrPositionUnavailable:
		return FailurePositionUnavailable
	case WireErrTimeout:
		return FailureTimeout
	default:
		return FailureUnsupported
	}
}

// WireCode maps a FailureKind back to its wire error_code.
func (k FailureKind) WireCode() int {
	switch k {
	case FailurePermissionDenied:
		return WireErrPermissionDenied
	case FailurePositionUnavailable:
		return WireErrPositionUnavailable
	case FailureTimeout:
		return WireErrTimeout
	default:
		return WireErrOther
	}
}

// Err returns the sentinel error matching the failure kind.
func (k FailureKind) Err() error {
	switch k {
	case FailurePermissionDenied:
		return ErrLocationPermission
	case FailurePositionUnavailable:
		return ErrLocationUnavailable
	case FailureTimeout:
		return ErrLocationTimeout
	case FailureUnsupported:
		return ErrLocationUnsupported
	default:
		return ErrLocationTransport
	}
}

// CaptureResult is the single outcome of a capture request: either a reading
// or a classified failure, never both.
type CaptureResult struct {
	OK bool

	// Success fields.
	Latitude       float64
	Longitude      float64
	AccuracyMeters float64
	CapturedAt     time.Time

	// Failure fields.
	Kind    FailureKind
	Message string

	// Source records how the reading was obtained ("gps" or "manual").
	Source string
}

// NewFailure builds a failure result.
func NewFailure(kind FailureKind, message string) *CaptureResult {
	return &CaptureResult{OK: false, Kind: kind, Message: message}
}

// NewReading builds a success result after joint coordinate validation.
// The source tags where the fix came from. Invalid coordinates return an
// error; callers on the transport path downgrade that to a transport failure.
func NewReading(lat, lon, accuracy float64, capturedAt time.Time, source string) (*CaptureResult, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	if math.IsNaN(accuracy) || math.IsInf(accuracy, 0) || accuracy < 0 {
		return nil, NewDomainError("NewReading", ErrInvalidInput,
			fmt.Sprintf("accuracy %v must be a finite value >= 0", accuracy))
	}
	return &CaptureResult{
		OK:             true,
		Latitude:       lat,
		Longitude:      lon,
		AccuracyMeters: accuracy,
		CapturedAt:     capturedAt,
		Source:         source,
	}, nil
}

// ManualReading is the fallback entry point for user-typed coordinates.
// Accuracy is unknown for manual entry and recorded as zero.
func ManualReading(lat, lon float64, enteredAt time.Time) (*CaptureResult, error) {
	return NewReading(lat, lon, 0, enteredAt, SourceManual)
}

// Location sources.
const (
	SourceGPS    = "gps"
	SourceManual = "manual"
)

// ValidateCoordinates checks that latitude and longitude are jointly within
// Earth ranges and finite.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return NewDomainError("ValidateCoordinates", ErrInvalidInput,
			fmt.Sprintf("non-finite coordinates lat=%v lon=%v", lat, lon))
	}
	if lat < -90 || lat > 90 {
		return NewDomainError("ValidateCoordinates", ErrInvalidInput,
			fmt.Sprintf("latitude %f outside [-90, 90]", lat))
	}
	if lon < -180 || lon > 180 {
		return NewDomainError("ValidateCoordinates", ErrInvalidInput,
			fmt.Sprintf("longitude %f outside [-180, 180]", lon))
	}
	return nil
}
