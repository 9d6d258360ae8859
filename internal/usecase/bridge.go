package usecase

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kaptinlin/jsonschema"
	"github.com/oklog/ulid/v2"

	"github.com/DCloudHub/station-onboarding/internal/domain"
	"github.com/DCloudHub/station-onboarding/internal/infra/tracer"
)

// defaultGrace is the transport-latency margin added to the host-side
// timeout when none is configured.
const defaultGrace = 2 * time.Second

// captureEntry tracks one request and, once resolved, its single result.
type captureEntry struct {
	req        *domain.CaptureRequest
	result     *domain.CaptureResult // nil while pending
	resolvedAt time.Time
}

// Bridge is the server-side half of the geolocation capture bridge. It owns
// the request/response state for every logical capture slot, enforces
// at-most-once delivery and the host-side timeout, and exposes a stable
// result to callers across any number of redraws.
//
// BeginCapture and Poll are the only mutators the application calls; Deliver
// is the transport's inbound path. All three are non-blocking.
type Bridge struct {
	mu       sync.Mutex
	requests map[string]*captureEntry // request id -> entry
	slots    map[string]string        // slot -> current request id
	defaults domain.CaptureOptions
	grace    time.Duration
	schema   *jsonschema.Schema
	logger   *slog.Logger
	now      func() time.Time
}

// NewBridge creates a bridge with the given default capture options.
// grace is the transport-latency margin added on top of each request's
// timeout before the host force-resolves it as a timeout failure.
func NewBridge(defaults domain.CaptureOptions, grace time.Duration, logger *slog.Logger) (*Bridge, error) {
	schema, err := jsonschema.NewCompiler().Compile([]byte(domain.PayloadSchema))
	if err != nil {
		return nil, fmt.Errorf("compile payload schema: %w", err)
	}
	if grace <= 0 {
		grace = defaultGrace
	}
	return &Bridge{
		requests: make(map[string]*captureEntry),
		slots:    make(map[string]string),
		defaults: defaults.Normalize(),
		grace:    grace,
		schema:   schema,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Defaults returns the options a zero-value BeginCapture call uses.
func (b *Bridge) Defaults() domain.CaptureOptions { return b.defaults }

// BeginCapture creates a new pending request for the given slot and returns
// its id. A previous pending request on the same slot is abandoned; its late
// payload, if it ever arrives, is discarded by id mismatch.
func (b *Bridge) BeginCapture(ctx context.Context, slot string, opts domain.CaptureOptions) (string, error) {
	_, span := tracer.StartSpan(ctx, "bridge.begin_capture")
	defer span.End()
	span.SetAttributes(tracer.StringAttr("capture.slot", slot))

	if opts == (domain.CaptureOptions{}) {
		opts = b.defaults
	}
	opts = opts.Normalize()
	if err := opts.Validate(); err != nil {
		tracer.RecordError(span, err)
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if prevID, ok := b.slots[slot]; ok {
		if prev, ok := b.requests[prevID]; ok && prev.req.State == domain.RequestPending {
			prev.req.State = domain.RequestAbandoned
			prev.resolvedAt = now
			b.logger.Debug("capture request abandoned", "request_id", prevID, "slot", slot)
		}
	}

	id := generateULID(now)
	b.requests[id] = &captureEntry{
		req: &domain.CaptureRequest{
			ID:        id,
			Slot:      slot,
			Options:   opts,
			StartedAt: now,
			State:     domain.RequestPending,
		},
	}
	b.slots[slot] = id

	span.SetAttributes(tracer.StringAttr("capture.request_id", id))
	tracer.SetOK(span)
	b.logger.Info("capture started", "request_id", id, "slot", slot, "timeout_ms", opts.TimeoutMs)
	return id, nil
}

// Poll reports the state of a request. It returns (nil, nil) while the
// request is legitimately pending, the same result value on every call after
// resolution, and a sentinel error for unknown or abandoned requests.
//
// Poll also enforces the host-side deadline: if the request's timeout plus
// the grace margin has elapsed with no delivery, the request resolves as a
// timeout failure here, guarding against payloads that never arrive.
func (b *Bridge) Poll(requestID string) (*domain.CaptureResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.requests[requestID]
	if !ok {
		return nil, domain.NewDomainError("Bridge.Poll", domain.ErrRequestNotFound, requestID)
	}

	switch entry.req.State {
	case domain.RequestAbandoned:
		return nil, domain.NewDomainError("Bridge.Poll", domain.ErrRequestAbandoned, requestID)
	case domain.RequestResolved:
		return entry.result, nil
	}

	deadline := entry.req.StartedAt.Add(entry.req.Options.Timeout() + b.grace)
	if !b.now().Before(deadline) {
		b.resolveLocked(entry, domain.NewFailure(domain.FailureTimeout,
			"no payload received before host deadline"))
		return entry.result, nil
	}
	return nil, nil
}

// Deliver applies a transport payload to its request. Payloads for unknown,
// abandoned, or already-resolved requests are discarded as stale no-ops;
// payloads that fail schema or range validation resolve the request as a
// transport failure rather than surfacing bad data.
//
// The boolean reports whether this call resolved the request: false means
// the payload was discarded as stale.
func (b *Bridge) Deliver(ctx context.Context, requestID string, raw []byte) (bool, error) {
	_, span := tracer.StartSpan(ctx, "bridge.deliver")
	defer span.End()
	span.SetAttributes(tracer.StringAttr("capture.request_id", requestID))

	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.requests[requestID]
	if !ok || entry.req.State != domain.RequestPending {
		b.logger.Debug("stale capture payload discarded", "request_id", requestID)
		tracer.SetOK(span)
		return false, nil
	}

	result := b.decodePayload(raw)
	b.resolveLocked(entry, result)

	if !result.OK {
		span.SetAttributes(tracer.StringAttr("capture.failure", string(result.Kind)))
	}
	tracer.SetOK(span)
	return true, nil
}

// decodePayload validates the raw payload against the wire schema and
// converts it into a result, downgrading every malformation to a transport
// failure.
func (b *Bridge) decodePayload(raw []byte) *domain.CaptureResult {
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return domain.NewFailure(domain.FailureTransportError, "payload is not valid JSON: "+err.Error())
	}
	if res := b.schema.Validate(data); !res.IsValid() {
		return domain.NewFailure(domain.FailureTransportError, "payload failed schema validation")
	}

	var p domain.Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.NewFailure(domain.FailureTransportError, "payload decode: "+err.Error())
	}
	result, err := p.ToResult()
	if err != nil {
		return domain.NewFailure(domain.FailureTransportError, err.Error())
	}
	return result
}

func (b *Bridge) resolveLocked(entry *captureEntry, result *domain.CaptureResult) {
	entry.req.State = domain.RequestResolved
	entry.result = result
	entry.resolvedAt = b.now()
	if result.OK {
		b.logger.Info("capture resolved",
			"request_id", entry.req.ID,
			"slot", entry.req.Slot,
			"accuracy_m", result.AccuracyMeters,
		)
	} else {
		b.logger.Info("capture failed",
			"request_id", entry.req.ID,
			"slot", entry.req.Slot,
			"kind", string(result.Kind),
		)
	}
}

// Sweep discards resolved and abandoned requests older than retention and
// returns how many were removed. Pending requests are never swept; the
// host-side timeout bounds how long they can stay pending.
func (b *Bridge) Sweep(retention time.Duration) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff := b.now().Add(-retention)
	removed := 0
	for id, entry := range b.requests {
		if entry.req.State == domain.RequestPending {
			continue
		}
		if entry.resolvedAt.Before(cutoff) {
			delete(b.requests, id)
			if b.slots[entry.req.Slot] == id {
				delete(b.slots, entry.req.Slot)
			}
			removed++
		}
	}
	return removed
}

// generateULID returns a lexicographically sortable unique id. The entropy
// bytes never derive from t, so two calls at the same clock reading still
// produce distinct ids.
func generateULID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}
