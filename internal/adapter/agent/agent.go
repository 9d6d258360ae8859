package agent

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/DCloudHub/station-onboarding/internal/domain"
)

// State is the agent's position in its capture lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StateDelivering State = "delivering"
	StateDone       State = "done"
)

// Deliverer carries a wire payload for a request to the bridge host.
type Deliverer func(ctx context.Context, requestID string, payload []byte) error

// Agent obtains one geolocation reading per activation and delivers it,
// success or classified failure, exactly once through the same path. It is
// the server-side twin of the in-browser script (web/agent.js): same state
// machine, same wire payloads, driven by a Geolocator instead of
// navigator.geolocation.
//
// A nil Geolocator models an environment without geolocation capability; the
// agent then resolves unsupported immediately without waiting.
type Agent struct {
	mu      sync.Mutex
	geo     Geolocator
	deliver Deliverer
	logger  *slog.Logger

	requestID string
	state     State
	timer     *time.Timer
	now       func() time.Time
}

// New creates a capture agent. deliver must not be nil.
func New(geo Geolocator, deliver Deliverer, logger *slog.Logger) *Agent {
	return &Agent{
		geo:     geo,
		deliver: deliver,
		logger:  logger,
		state:   StateIdle,
		now:     time.Now,
	}
}

// State reports the state of the current activation.
func (a *Agent) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Activate starts a capture for requestID. It resets any prior activation:
// callbacks still in flight for an older request id are dropped on arrival.
// The device API's own prompt/timeout behavior is out of the agent's hands;
// it only observes the outcome. The local timer bounds the wait regardless.
func (a *Agent) Activate(ctx context.Context, requestID string, opts domain.CaptureOptions) error {
	opts = opts.Normalize()
	if err := opts.Validate(); err != nil {
		return domain.WrapOp("Agent.Activate", err)
	}

	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.requestID = requestID
	a.state = StateRequesting
	geo := a.geo
	a.mu.Unlock()

	if geo == nil {
		a.logger.Debug("geolocation unsupported", "request_id", requestID)
		a.finish(ctx, requestID,
			domain.FailurePayload(domain.WireErrOther, "geolocation is not supported in this environment"))
		return nil
	}

	a.mu.Lock()
	a.timer = time.AfterFunc(opts.Timeout(), func() {
		a.finish(ctx, requestID,
			domain.FailurePayload(domain.WireErrTimeout, "timed out waiting for a device fix"))
	})
	a.mu.Unlock()

	geo.CurrentPosition(opts,
		func(pos Position) {
			a.finish(ctx, requestID,
				domain.SuccessPayload(pos.Latitude, pos.Longitude, pos.AccuracyMeters, a.now()))
		},
		func(derr *DeviceError) {
			a.finish(ctx, requestID, domain.FailurePayload(derr.Code, derr.Message))
		},
	)
	return nil
}

// finish delivers the payload for requestID if that activation is still the
// current one and still requesting. Every other invocation is dropped here:
// the losing side of the timer/callback race, a duplicate device callback, a
// callback for a superseded activation. Delivery errors are logged, never
// raised past the agent boundary.
func (a *Agent) finish(ctx context.Context, requestID string, payload []byte) {
	a.mu.Lock()
	if a.requestID != requestID || a.state != StateRequesting {
		a.mu.Unlock()
		a.logger.Debug("dropping late capture callback", "request_id", requestID)
		return
	}
	a.state = StateDelivering
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()

	if err := a.deliver(ctx, requestID, payload); err != nil {
		a.logger.Warn("capture payload delivery failed", "request_id", requestID, "error", err)
	}

	a.mu.Lock()
	if a.requestID == requestID && a.state == StateDelivering {
		a.state = StateDone
	}
	a.mu.Unlock()
}
