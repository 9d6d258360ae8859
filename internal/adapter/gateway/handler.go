package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/DCloudHub/station-onboarding/internal/domain"
	"github.com/DCloudHub/station-onboarding/internal/usecase"
)

// HandlerDeps bundles the use cases the gateway handlers call into.
type HandlerDeps struct {
	Bridge *usecase.Bridge
	Wizard *usecase.Wizard
	Admin  *usecase.AdminService
	Store  domain.SubmissionStore
	Logger *slog.Logger
}

// RegisterAll wires every RPC method and HTTP route onto the server. The
// capture endpoints are exposed both ways: the embedded page uses WebSocket
// RPC when available and falls back to plain HTTP.
func RegisterAll(s *Server, deps HandlerDeps) {
	startTime := time.Now()

	s.RegisterHandler("capture.begin", rpcCaptureBegin(s, deps))
	s.RegisterHandler("capture.poll", rpcCapturePoll(s, deps))
	s.RegisterHandler("capture.deliver", rpcCaptureDeliver(s, deps))

	s.RegisterHTTPRoute("/api/v1/capture/begin", httpCaptureBegin(s, deps))
	s.RegisterHTTPRoute("/api/v1/capture/poll", httpCapturePoll(s, deps))
	s.RegisterHTTPRoute("/api/v1/capture/deliver", httpCaptureDeliver(s, deps))

	registerWizardRoutes(s, deps)
	registerAdminRoutes(s, deps)
	registerStaticRoutes(s)

	s.RegisterHTTPRoute("/api/v1/status", statusHandler(startTime, s.metrics))
	s.RegisterHTTPRoute("/metrics", metricsHandler(startTime, s.metrics))
}

// beginCaptureRequest is the body of capture.begin / POST /api/v1/capture/begin.
type beginCaptureRequest struct {
	Slot    string                `json:"slot"`
	Options domain.CaptureOptions `json:"options"`
}

type beginCaptureResponse struct {
	RequestID string `json:"request_id"`
}

// pollRequest is the body of capture.poll.
type pollRequest struct {
	RequestID string `json:"request_id"`
}

// pollResponse reports the state of a capture request. Result is set only
// when Status is "resolved".
type pollResponse struct {
	Status string         `json:"status"` // "pending" or "resolved"
	Result *captureResult `json:"result,omitempty"`
}

// captureResult is the JSON rendering of a domain.CaptureResult.
type captureResult struct {
	OK             bool    `json:"ok"`
	Latitude       float64 `json:"latitude,omitempty"`
	Longitude      float64 `json:"longitude,omitempty"`
	AccuracyMeters float64 `json:"accuracy,omitempty"`
	CapturedAt     string  `json:"captured_at,omitempty"`
	Source         string  `json:"source,omitempty"`
	Kind           string  `json:"kind,omitempty"`
	Message        string  `json:"message,omitempty"`
}

func renderResult(res *domain.CaptureResult) *captureResult {
	out := &captureResult{OK: res.OK}
	if res.OK {
		out.Latitude = res.Latitude
		out.Longitude = res.Longitude
		out.AccuracyMeters = res.AccuracyMeters
		out.CapturedAt = res.CapturedAt.UTC().Format(time.RFC3339Nano)
		out.Source = res.Source
	} else {
		out.Kind = string(res.Kind)
		out.Message = res.Message
	}
	return out
}

// deliverRequest carries the agent's raw wire payload to the bridge.
type deliverRequest struct {
	RequestID string          `json:"request_id"`
	Payload   json.RawMessage `json:"payload"`
}

func beginCapture(ctx context.Context, s *Server, deps HandlerDeps, req beginCaptureRequest) (*beginCaptureResponse, error) {
	id, err := deps.Bridge.BeginCapture(ctx, req.Slot, req.Options)
	if err != nil {
		return nil, err
	}
	s.metrics.CapturesStarted.Add(1)
	return &beginCaptureResponse{RequestID: id}, nil
}

func pollCapture(s *Server, deps HandlerDeps, requestID string) (*pollResponse, error) {
	res, err := deps.Bridge.Poll(requestID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return &pollResponse{Status: "pending"}, nil
	}
	return &pollResponse{Status: "resolved", Result: renderResult(res)}, nil
}

func deliverCapture(ctx context.Context, s *Server, deps HandlerDeps, req deliverRequest) error {
	resolved, err := deps.Bridge.Deliver(ctx, req.RequestID, req.Payload)
	if err != nil {
		return err
	}
	if !resolved {
		// Stale or duplicate payload; nothing changed, count nothing.
		return nil
	}
	if res, err := deps.Bridge.Poll(req.RequestID); err == nil && res != nil {
		if res.OK {
			s.metrics.CapturesResolved.Add(1)
		} else {
			s.metrics.CapturesFailed.Add(1)
			if res.Kind == domain.FailureTransportError {
				s.metrics.PayloadsRejected.Add(1)
			}
		}
	}
	return nil
}

func rpcCaptureBegin(s *Server, deps HandlerDeps) RPCHandler {
	return func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
		var req beginCaptureRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, domain.NewDomainError("capture.begin", domain.ErrInvalidInput, err.Error())
		}
		resp, err := beginCapture(ctx, s, deps, req)
		if err != nil {
			return nil, err
		}
		return json.Marshal(resp)
	}
}

func rpcCapturePoll(s *Server, deps HandlerDeps) RPCHandler {
	return func(_ context.Context, payload json.RawMessage) (json.RawMessage, error) {
		var req pollRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, domain.NewDomainError("capture.poll", domain.ErrInvalidInput, err.Error())
		}
		resp, err := pollCapture(s, deps, req.RequestID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(resp)
	}
}

func rpcCaptureDeliver(s *Server, deps HandlerDeps) RPCHandler {
	return func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
		var req deliverRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, domain.NewDomainError("capture.deliver", domain.ErrInvalidInput, err.Error())
		}
		if err := deliverCapture(ctx, s, deps, req); err != nil {
			return nil, err
		}
		return json.Marshal(map[string]bool{"accepted": true})
	}
}

func httpCaptureBegin(s *Server, deps HandlerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req beginCaptureRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, domain.NewDomainError("capture.begin", domain.ErrInvalidInput, err.Error()))
			return
		}
		resp, err := beginCapture(r.Context(), s, deps, req)
		if err != nil {
			writeError(w, httpStatusOf(err), err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func httpCapturePoll(s *Server, deps HandlerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		resp, err := pollCapture(s, deps, r.URL.Query().Get("request_id"))
		if err != nil {
			writeError(w, httpStatusOf(err), err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func httpCaptureDeliver(s *Server, deps HandlerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req deliverRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, domain.NewDomainError("capture.deliver", domain.ErrInvalidInput, err.Error()))
			return
		}
		if err := deliverCapture(r.Context(), s, deps, req); err != nil {
			writeError(w, httpStatusOf(err), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// errorResponse is the JSON body of every error reply.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{
		Error: err.Error(),
		Code:  string(domain.ErrorCodeOf(err)),
	})
}

// httpStatusOf maps domain errors onto HTTP status codes.
func httpStatusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrRequestAbandoned):
		return http.StatusGone
	case errors.Is(err, domain.ErrAuthInvalid), errors.Is(err, domain.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrStepOrder), errors.Is(err, domain.ErrConsentRequired),
		errors.Is(err, domain.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrRequestNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrSubmissionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
