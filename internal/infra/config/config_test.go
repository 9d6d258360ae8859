package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, ":8080")
	}
	if cfg.Capture.TimeoutMs != 15000 {
		t.Errorf("Capture.TimeoutMs = %d, want 15000", cfg.Capture.TimeoutMs)
	}
	if !cfg.Capture.HighAccuracy {
		t.Error("Capture.HighAccuracy = false, want true")
	}
	if cfg.Logger.Level != "info" {
		t.Errorf("Logger.Level = %q, want %q", cfg.Logger.Level, "info")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadNonExistentReturnsDefaults(t *testing.T) {
	cfg, err := Load("/tmp/nonexistent-config-12345.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "submissions.db" {
		t.Errorf("expected defaults, got Database.Path=%q", cfg.Database.Path)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  addr: ":9090"
  requests_per_min: 60
capture:
  timeout_ms: 30000
  grace_ms: 500
  retention: "30m"
admin:
  username: "ops"
  token_ttl: "1h"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, ":9090")
	}
	if cfg.Server.RequestsPerMin != 60 {
		t.Errorf("Server.RequestsPerMin = %d, want 60", cfg.Server.RequestsPerMin)
	}
	// Unset fields keep their defaults.
	if cfg.Server.BurstSize != 30 {
		t.Errorf("Server.BurstSize = %d, want default 30", cfg.Server.BurstSize)
	}
	if cfg.Capture.TimeoutMs != 30000 {
		t.Errorf("Capture.TimeoutMs = %d, want 30000", cfg.Capture.TimeoutMs)
	}
	if got := cfg.Capture.RetentionDuration(); got != 30*time.Minute {
		t.Errorf("RetentionDuration() = %v, want 30m", got)
	}
	if got := cfg.Admin.TokenTTLDuration(); got != time.Hour {
		t.Errorf("TokenTTLDuration() = %v, want 1h", got)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted malformed YAML")
	}
}

func TestLoadValidatesParsedConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	// Well-formed YAML with a value Validate rejects.
	if err := os.WriteFile(path, []byte("server:\n  burst_size: -1\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted a config with a negative burst size")
	}
}

func TestDurationFallbacks(t *testing.T) {
	c := CaptureConfig{Retention: "bogus"}
	if got := c.RetentionDuration(); got != 10*time.Minute {
		t.Errorf("RetentionDuration() = %v, want 10m fallback", got)
	}
	a := AdminConfig{TokenTTL: ""}
	if got := a.TokenTTLDuration(); got != 12*time.Hour {
		t.Errorf("TokenTTLDuration() = %v, want 12h fallback", got)
	}
}
