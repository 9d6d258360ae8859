package gateway

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/DCloudHub/station-onboarding/internal/domain"
)

func registerWizardRoutes(s *Server, deps HandlerDeps) {
	s.RegisterHTTPRoute("/api/v1/wizard/start", wizardStart(deps))
	s.RegisterHTTPRoute("/api/v1/wizard/consent", wizardConsent(deps))
	s.RegisterHTTPRoute("/api/v1/wizard/info", wizardInfo(deps))
	s.RegisterHTTPRoute("/api/v1/wizard/photo", wizardPhoto(deps))
	s.RegisterHTTPRoute("/api/v1/wizard/location/request", wizardRequestLocation(deps))
	s.RegisterHTTPRoute("/api/v1/wizard/location/status", wizardLocationStatus(deps))
	s.RegisterHTTPRoute("/api/v1/wizard/location/manual", wizardManualLocation(deps))
	s.RegisterHTTPRoute("/api/v1/wizard/location/confirm", wizardConfirmLocation(deps))
	s.RegisterHTTPRoute("/api/v1/wizard/submit", wizardSubmit(s, deps))
}

type sessionRequest struct {
	SessionID string `json:"session_id"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, domain.NewDomainError("wizard", domain.ErrInvalidInput, err.Error()))
		return false
	}
	return true
}

func wizardStart(deps HandlerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		sess := deps.Wizard.StartSession()
		writeJSON(w, http.StatusOK, map[string]any{
			"session_id": sess.ID,
			"step":       sess.Step.String(),
		})
	}
}

func wizardConsent(deps HandlerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sessionRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := deps.Wizard.GiveConsent(req.SessionID); err != nil {
			writeError(w, httpStatusOf(err), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func wizardInfo(deps HandlerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SessionID string             `json:"session_id"`
			Info      domain.StationInfo `json:"info"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if err := deps.Wizard.SubmitInfo(req.SessionID, req.Info); err != nil {
			writeError(w, httpStatusOf(err), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func wizardPhoto(deps HandlerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SessionID string            `json:"session_id"`
			Photo     string            `json:"photo"` // base64
			Meta      *domain.PhotoMeta `json:"meta,omitempty"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		photo, err := base64.StdEncoding.DecodeString(req.Photo)
		if err != nil {
			writeError(w, http.StatusBadRequest, domain.NewDomainError("wizard.photo", domain.ErrInvalidInput, "photo is not valid base64"))
			return
		}
		if err := deps.Wizard.AttachPhoto(req.SessionID, photo, req.Meta); err != nil {
			writeError(w, httpStatusOf(err), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func wizardRequestLocation(deps HandlerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SessionID string                `json:"session_id"`
			Options   domain.CaptureOptions `json:"options"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		reqID, err := deps.Wizard.RequestLocation(r.Context(), req.SessionID, req.Options)
		if err != nil {
			writeError(w, httpStatusOf(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"request_id": reqID})
	}
}

func wizardLocationStatus(deps HandlerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		res, pending, err := deps.Wizard.LocationStatus(r.URL.Query().Get("session_id"))
		if err != nil {
			writeError(w, httpStatusOf(err), err)
			return
		}
		if pending {
			writeJSON(w, http.StatusOK, pollResponse{Status: "pending"})
			return
		}
		writeJSON(w, http.StatusOK, pollResponse{Status: "resolved", Result: renderResult(res)})
	}
}

func wizardManualLocation(deps HandlerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SessionID string  `json:"session_id"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if err := deps.Wizard.SetManualLocation(req.SessionID, req.Latitude, req.Longitude); err != nil {
			writeError(w, httpStatusOf(err), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func wizardConfirmLocation(deps HandlerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sessionRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := deps.Wizard.ConfirmLocation(req.SessionID); err != nil {
			writeError(w, httpStatusOf(err), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func wizardSubmit(s *Server, deps HandlerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SessionID string `json:"session_id"`
			Confirmed bool   `json:"confirmed"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		sub, err := deps.Wizard.Submit(r.Context(), req.SessionID, req.Confirmed)
		if err != nil {
			writeError(w, httpStatusOf(err), err)
			return
		}
		s.metrics.SubmissionsTotal.Add(1)
		writeJSON(w, http.StatusCreated, map[string]string{"submission_id": sub.ID})
	}
}
