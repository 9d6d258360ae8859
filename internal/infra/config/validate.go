package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/DCloudHub/station-onboarding/internal/domain"
)

// Validate checks the configuration for values that would misbehave at
// runtime. Called by Load after parsing; safe to call on Default().
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Addr == "" {
		problems = append(problems, "server.addr must not be empty")
	}
	if c.Server.RequestsPerMin <= 0 {
		problems = append(problems, "server.requests_per_min must be positive")
	}
	if c.Server.BurstSize <= 0 {
		problems = append(problems, "server.burst_size must be positive")
	}

	if c.Database.Path == "" {
		problems = append(problems, "database.path must not be empty")
	}

	opts := domain.CaptureOptions{
		TimeoutMs: c.Capture.TimeoutMs,
		MaxAgeMs:  c.Capture.MaxAgeMs,
	}
	if err := opts.Validate(); err != nil {
		problems = append(problems, fmt.Sprintf("capture: %v", err))
	}
	if c.Capture.GraceMs < 0 {
		problems = append(problems, "capture.grace_ms must not be negative")
	}
	if c.Capture.Retention != "" {
		if _, err := time.ParseDuration(c.Capture.Retention); err != nil {
			problems = append(problems, fmt.Sprintf("capture.retention: %v", err))
		}
	}

	if c.Admin.Username == "" {
		problems = append(problems, "admin.username must not be empty")
	}
	if c.Admin.TokenTTL != "" {
		if _, err := time.ParseDuration(c.Admin.TokenTTL); err != nil {
			problems = append(problems, fmt.Sprintf("admin.token_ttl: %v", err))
		}
	}

	if c.Janitor.Enabled && c.Janitor.Schedule != "" {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(c.Janitor.Schedule); err != nil {
			problems = append(problems, fmt.Sprintf("janitor.schedule: %v", err))
		}
	}

	switch strings.ToLower(c.Logger.Format) {
	case "", "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("logger.format %q is not text or json", c.Logger.Format))
	}

	switch c.Tracer.Exporter {
	case "", "noop", "stdout":
	default:
		problems = append(problems, fmt.Sprintf("tracer.exporter %q is not supported", c.Tracer.Exporter))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
