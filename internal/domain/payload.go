package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Payload is the wire contract between the capture agent and the bridge host.
// Success carries a reading, failure carries a classified error code; the
// Success flag disambiguates. Pointer fields distinguish "absent" from zero,
// which matters for schema validation of malformed payloads.
type Payload struct {
	Success bool `json:"success"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"` // ISO-8601

	ErrorCode *int   `json:"error_code,omitempty"`
	Message   string `json:"message,omitempty"`
}

// PayloadSchema is the JSON Schema every inbound payload must satisfy before
// the bridge decodes it. Range checks are repeated host-side after decoding;
// the schema rejects shape violations early.
const PayloadSchema = `{
	"type": "object",
	"properties": {
		"success": {"type": "boolean"},
		"latitude": {"type": "number"},
		"longitude": {"type": "number"},
		"accuracy": {"type": "number"},
		"timestamp": {"type": "string"},
		"error_code": {"type": "integer", "minimum": 0, "maximum": 3},
		"message": {"type": "string"}
	},
	"required": ["success"],
	"allOf": [
		{
			"if": {"properties": {"success": {"const": true}}},
			"then": {"required": ["latitude", "longitude", "accuracy", "timestamp"]}
		},
		{
			"if": {"properties": {"success": {"const": false}}},
			"then": {"required": ["error_code", "message"]}
		}
	]
}`

// SuccessPayload encodes a device reading for the wire.
func SuccessPayload(lat, lon, accuracy float64, capturedAt time.Time) []byte {
	ts := capturedAt.UTC().Format(time.RFC3339Nano)
	raw, _ := json.Marshal(Payload{
		Success:   true,
		Latitude:  &lat,
		Longitude: &lon,
		Accuracy:  &accuracy,
		Timestamp: ts,
	})
	return raw
}

// FailurePayload encodes a classified failure for the wire.
func FailurePayload(code int, message string) []byte {
	raw, _ := json.Marshal(Payload{
		Success:   false,
		ErrorCode: &code,
		Message:   message,
	})
	return raw
}

// ToResult converts a decoded payload into a CaptureResult. Shape violations
// and out-of-range coordinates return an error; the bridge downgrades that to
// Failure{TransportError} rather than propagating bad data.
func (p *Payload) ToResult() (*CaptureResult, error) {
	if !p.Success {
		if p.ErrorCode == nil {
			return nil, NewDomainError("Payload.ToResult", ErrLocationTransport, "failure payload missing error_code")
		}
		return NewFailure(FailureKindFromWireCode(*p.ErrorCode), p.Message), nil
	}

	if p.Latitude == nil || p.Longitude == nil || p.Accuracy == nil {
		return nil, NewDomainError("Payload.ToResult", ErrLocationTransport, "success payload missing coordinates")
	}
	capturedAt, err := time.Parse(time.RFC3339Nano, p.Timestamp)
	if err != nil {
		capturedAt, err = time.Parse(time.RFC3339, p.Timestamp)
	}
	if err != nil {
		return nil, NewDomainError("Payload.ToResult", ErrLocationTransport,
			fmt.Sprintf("timestamp %q is not ISO-8601", p.Timestamp))
	}

	res, err := NewReading(*p.Latitude, *p.Longitude, *p.Accuracy, capturedAt, SourceGPS)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLocationTransport, err)
	}
	return res, nil
}
