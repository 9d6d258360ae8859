package middleware

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(okHandler())

	req := httptest.NewRequest("GET", "/register", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	expected := map[string]string{
		"X-Frame-Options":         "DENY",
		"X-Content-Type-Options":  "nosniff",
		"Content-Security-Policy": "default-src 'self'; script-src 'self'",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
	}
	for header, want := range expected {
		if got := w.Header().Get(header); got != want {
			t.Errorf("header %s = %q, want %q", header, got, want)
		}
	}
	if hsts := w.Header().Get("Strict-Transport-Security"); hsts != "" {
		t.Errorf("HSTS set without TLS: %q", hsts)
	}
}

func TestSecurityHeadersHSTSWithTLS(t *testing.T) {
	handler := SecurityHeaders(okHandler())

	req := httptest.NewRequest("GET", "/register", nil)
	req.TLS = &tls.ConnectionState{}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if hsts := w.Header().Get("Strict-Transport-Security"); hsts == "" {
		t.Error("HSTS missing on TLS request")
	}
}

func TestRateLimitAllowsWithinBurst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := RateLimit(ctx, RateLimitConfig{RequestsPerMin: 60, BurstSize: 5})(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("GET", "/api/v1/capture/poll", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, w.Code)
		}
	}

	req := httptest.NewRequest("GET", "/api/v1/capture/poll", nil)
	req.RemoteAddr = "10.0.0.1:12345"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("burst exceeded: status = %d, want 429", w.Code)
	}
}

func TestRateLimitIsolatesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := RateLimit(ctx, RateLimitConfig{RequestsPerMin: 60, BurstSize: 1})(okHandler())

	exhaust := httptest.NewRequest("GET", "/", nil)
	exhaust.RemoteAddr = "10.0.0.1:1"
	handler.ServeHTTP(httptest.NewRecorder(), exhaust)

	blocked := httptest.NewRequest("GET", "/", nil)
	blocked.RemoteAddr = "10.0.0.1:2" // same IP, different port
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, blocked)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("same IP not throttled: status = %d", w.Code)
	}

	other := httptest.NewRequest("GET", "/", nil)
	other.RemoteAddr = "10.0.0.2:1"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, other)
	if w.Code != http.StatusOK {
		t.Errorf("different IP throttled: status = %d", w.Code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		xff     string
		trusted []string
		want    string
	}{
		{"direct", "10.0.0.1:1234", "", nil, "10.0.0.1"},
		{"xff ignored without trust", "10.0.0.1:1234", "1.2.3.4", nil, "10.0.0.1"},
		{"xff honored from trusted proxy", "10.0.0.1:1234", "1.2.3.4", []string{"10.0.0.1"}, "1.2.3.4"},
		{"xff first hop wins", "10.0.0.1:1234", "1.2.3.4, 5.6.7.8", []string{"10.0.0.1"}, "1.2.3.4"},
		{"untrusted proxy", "10.9.9.9:1234", "1.2.3.4", []string{"10.0.0.1"}, "10.9.9.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := clientIP(req, tt.trusted); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
