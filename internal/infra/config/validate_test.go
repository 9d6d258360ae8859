package config

import (
	"strings"
	"testing"
)

func TestValidateCollectsProblems(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"zero rate", func(c *Config) { c.Server.RequestsPerMin = 0 }, "server.requests_per_min"},
		{"zero burst", func(c *Config) { c.Server.BurstSize = -1 }, "server.burst_size"},
		{"empty db path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"capture timeout too large", func(c *Config) { c.Capture.TimeoutMs = 120000 }, "capture:"},
		{"negative grace", func(c *Config) { c.Capture.GraceMs = -1 }, "capture.grace_ms"},
		{"bad retention", func(c *Config) { c.Capture.Retention = "ten minutes" }, "capture.retention"},
		{"empty admin user", func(c *Config) { c.Admin.Username = "" }, "admin.username"},
		{"bad token ttl", func(c *Config) { c.Admin.TokenTTL = "soon" }, "admin.token_ttl"},
		{"bad schedule", func(c *Config) { c.Janitor.Schedule = "whenever" }, "janitor.schedule"},
		{"bad log format", func(c *Config) { c.Logger.Format = "xml" }, "logger.format"},
		{"bad exporter", func(c *Config) { c.Tracer.Exporter = "jaeger" }, "tracer.exporter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() accepted bad config")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateReportsAllProblemsAtOnce(t *testing.T) {
	cfg := Default()
	cfg.Server.Addr = ""
	cfg.Database.Path = ""
	cfg.Admin.Username = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() accepted bad config")
	}
	for _, want := range []string{"server.addr", "database.path", "admin.username"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestValidateSkipsScheduleWhenJanitorDisabled(t *testing.T) {
	cfg := Default()
	cfg.Janitor.Enabled = false
	cfg.Janitor.Schedule = "whenever"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}
