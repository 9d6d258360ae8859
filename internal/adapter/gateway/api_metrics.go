package gateway

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics tracks counters for the status API and the /metrics endpoint.
type Metrics struct {
	CapturesStarted  atomic.Int64
	CapturesResolved atomic.Int64
	CapturesFailed   atomic.Int64
	PayloadsRejected atomic.Int64
	SubmissionsTotal atomic.Int64
	WSConnects       atomic.Int64
}

// metricsHandler returns an HTTP handler for GET /metrics in Prometheus text
// format. The lightweight text format avoids pulling in the full prometheus
// client.
func metricsHandler(startTime time.Time, metrics *Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

		fmt.Fprintf(w, "# HELP stationonboarding_captures_started_total Capture requests begun.\n")
		fmt.Fprintf(w, "# TYPE stationonboarding_captures_started_total counter\n")
		fmt.Fprintf(w, "stationonboarding_captures_started_total %d\n", metrics.CapturesStarted.Load())

		fmt.Fprintf(w, "# HELP stationonboarding_captures_resolved_total Capture requests resolved with a reading.\n")
		fmt.Fprintf(w, "# TYPE stationonboarding_captures_resolved_total counter\n")
		fmt.Fprintf(w, "stationonboarding_captures_resolved_total %d\n", metrics.CapturesResolved.Load())

		fmt.Fprintf(w, "# HELP stationonboarding_captures_failed_total Capture requests resolved with a failure.\n")
		fmt.Fprintf(w, "# TYPE stationonboarding_captures_failed_total counter\n")
		fmt.Fprintf(w, "stationonboarding_captures_failed_total %d\n", metrics.CapturesFailed.Load())

		fmt.Fprintf(w, "# HELP stationonboarding_payloads_rejected_total Inbound payloads that failed validation.\n")
		fmt.Fprintf(w, "# TYPE stationonboarding_payloads_rejected_total counter\n")
		fmt.Fprintf(w, "stationonboarding_payloads_rejected_total %d\n", metrics.PayloadsRejected.Load())

		fmt.Fprintf(w, "# HELP stationonboarding_submissions_total Registrations persisted.\n")
		fmt.Fprintf(w, "# TYPE stationonboarding_submissions_total counter\n")
		fmt.Fprintf(w, "stationonboarding_submissions_total %d\n", metrics.SubmissionsTotal.Load())

		fmt.Fprintf(w, "# HELP stationonboarding_ws_connects_total WebSocket connections accepted.\n")
		fmt.Fprintf(w, "# TYPE stationonboarding_ws_connects_total counter\n")
		fmt.Fprintf(w, "stationonboarding_ws_connects_total %d\n", metrics.WSConnects.Load())

		fmt.Fprintf(w, "# HELP stationonboarding_uptime_seconds Seconds since the server started.\n")
		fmt.Fprintf(w, "# TYPE stationonboarding_uptime_seconds gauge\n")
		fmt.Fprintf(w, "stationonboarding_uptime_seconds %.0f\n", time.Since(startTime).Seconds())

		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		fmt.Fprintf(w, "# HELP go_goroutines Number of goroutines.\n")
		fmt.Fprintf(w, "# TYPE go_goroutines gauge\n")
		fmt.Fprintf(w, "go_goroutines %d\n", runtime.NumGoroutine())

		fmt.Fprintf(w, "# HELP go_memstats_alloc_bytes Bytes of allocated heap objects.\n")
		fmt.Fprintf(w, "# TYPE go_memstats_alloc_bytes gauge\n")
		fmt.Fprintf(w, "go_memstats_alloc_bytes %d\n", mem.Alloc)
	}
}
