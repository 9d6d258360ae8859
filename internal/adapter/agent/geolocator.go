package agent

import (
	"fmt"

	"github.com/DCloudHub/station-onboarding/internal/domain"
)

// Position is one device fix.
type Position struct {
	Latitude       float64
	Longitude      float64
	AccuracyMeters float64
}

// DeviceError mirrors the geolocation API's PositionError: a numeric code
// (1=permission denied, 2=position unavailable, 3=timeout) and a message.
type DeviceError struct {
	Code    int
	Message string
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device error %d: %s", e.Code, e.Message)
}

// Geolocator abstracts the device geolocation API. CurrentPosition returns
// immediately; the implementation later invokes exactly one of the callbacks,
// possibly long after the agent has already resolved the activation. The
// agent drops such late callbacks.
type Geolocator interface {
	CurrentPosition(opts domain.CaptureOptions, success func(Position), failure func(*DeviceError))
}
