package gateway

import (
	"encoding/json"
	"net/http"
	"time"
)

// StatusResponse is the JSON body returned by GET /api/v1/status.
type StatusResponse struct {
	Service  string        `json:"service"`
	Version  string        `json:"version"`
	Uptime   int64         `json:"uptime_seconds"`
	Captures CaptureStatus `json:"captures"`
}

// CaptureStatus holds capture counters.
type CaptureStatus struct {
	Started  int64 `json:"started"`
	Resolved int64 `json:"resolved"`
	Failed   int64 `json:"failed"`
}

// statusHandler returns an HTTP handler for GET /api/v1/status.
func statusHandler(startTime time.Time, metrics *Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		resp := StatusResponse{
			Service: "station-onboarding",
			Version: "1.0",
			Uptime:  int64(time.Since(startTime).Seconds()),
			Captures: CaptureStatus{
				Started:  metrics.CapturesStarted.Load(),
				Resolved: metrics.CapturesResolved.Load(),
				Failed:   metrics.CapturesFailed.Load(),
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}
