package gateway

import (
	"net/http"
	"time"

	"github.com/DCloudHub/station-onboarding/internal/adapter/storage"
	"github.com/DCloudHub/station-onboarding/internal/domain"
)

func registerAdminRoutes(s *Server, deps HandlerDeps) {
	s.RegisterHTTPRoute("/api/v1/admin/login", adminLogin(deps))
	s.RegisterHTTPRoute("/api/v1/admin/logout", adminLogout(deps))
	s.RegisterHTTPRoute("/api/v1/admin/submissions", requireAdmin(deps.Admin, adminListSubmissions(deps)))
	s.RegisterHTTPRoute("/api/v1/admin/submissions/status", requireAdmin(deps.Admin, adminUpdateStatus(deps)))
	s.RegisterHTTPRoute("/api/v1/admin/submissions/export", requireAdmin(deps.Admin, adminExportCSV(deps)))
	s.RegisterHTTPRoute("/api/v1/admin/stats", requireAdmin(deps.Admin, adminStats(deps)))
}

func adminLogin(deps HandlerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		token, err := deps.Admin.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			writeError(w, httpStatusOf(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}

func adminLogout(deps HandlerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		deps.Admin.Logout(bearerToken(r))
		w.WriteHeader(http.StatusNoContent)
	}
}

// submissionSummary is the list rendering of a stored registration. The
// photo blob is omitted from list responses.
type submissionSummary struct {
	ID             string  `json:"submission_id"`
	FullName       string  `json:"full_name"`
	StationName    string  `json:"station_name"`
	StationType    string  `json:"station_type"`
	Zone           string  `json:"geopolitical_zone"`
	State          string  `json:"state"`
	LGA            string  `json:"lga"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	AccuracyMeters float64 `json:"accuracy"`
	LocationSource string  `json:"location_source"`
	Status         string  `json:"status"`
	SubmittedAt    string  `json:"submission_timestamp"`
	HasPhoto       bool    `json:"has_photo"`
}

func adminListSubmissions(deps HandlerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		subs, err := deps.Store.List(r.Context())
		if err != nil {
			writeError(w, httpStatusOf(err), err)
			return
		}
		out := make([]submissionSummary, 0, len(subs))
		for _, sub := range subs {
			out = append(out, submissionSummary{
				ID:             sub.ID,
				FullName:       sub.Info.FullName,
				StationName:    sub.Info.StationName,
				StationType:    sub.Info.StationType,
				Zone:           sub.Info.Zone,
				State:          sub.Info.State,
				LGA:            sub.Info.LGA,
				Latitude:       sub.Latitude,
				Longitude:      sub.Longitude,
				AccuracyMeters: sub.AccuracyMeters,
				LocationSource: sub.LocationSource,
				Status:         string(sub.Status),
				SubmittedAt:    sub.SubmittedAt.UTC().Format(time.RFC3339),
				HasPhoto:       len(sub.Photo) > 0,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"submissions": out})
	}
}

func adminUpdateStatus(deps HandlerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SubmissionID string `json:"submission_id"`
			Status       string `json:"status"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		switch domain.SubmissionStatus(req.Status) {
		case domain.StatusPending, domain.StatusApproved, domain.StatusRejected:
		default:
			writeError(w, http.StatusBadRequest,
				domain.NewDomainError("admin.status", domain.ErrInvalidInput, "status must be pending, approved or rejected"))
			return
		}
		if err := deps.Store.UpdateStatus(r.Context(), req.SubmissionID, domain.SubmissionStatus(req.Status)); err != nil {
			writeError(w, httpStatusOf(err), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func adminExportCSV(deps HandlerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="submissions.csv"`)
		if err := storage.ExportCSV(r.Context(), deps.Store, w); err != nil {
			deps.Logger.Error("csv export failed", "error", err)
		}
	}
}

func adminStats(deps HandlerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		stats, err := deps.Store.Stats(r.Context())
		if err != nil {
			writeError(w, httpStatusOf(err), err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
