package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	// Includes lists additional YAML files merged over this one, resolved
	// relative to the including file. Cleared after processing.
	Includes []string `yaml:"includes,omitempty"`

	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Capture  CaptureConfig  `yaml:"capture"`
	Admin    AdminConfig    `yaml:"admin"`
	Janitor  JanitorConfig  `yaml:"janitor"`
	Logger   LoggerConfig   `yaml:"logger"`
	Tracer   TracerConfig   `yaml:"tracer"`
}

// ServerConfig holds HTTP/WebSocket gateway settings.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	RequestsPerMin int      `yaml:"requests_per_min"`
	BurstSize      int      `yaml:"burst_size"`
	TrustedProxies []string `yaml:"trusted_proxies"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// CaptureConfig holds geolocation capture defaults.
type CaptureConfig struct {
	TimeoutMs    int    `yaml:"timeout_ms"`
	MaxAgeMs     int    `yaml:"max_age_ms"`
	HighAccuracy bool   `yaml:"high_accuracy"`
	GraceMs      int    `yaml:"grace_ms"`  // transport-latency margin added to the host-side timeout
	Retention    string `yaml:"retention"` // duration string; how long resolved requests are kept
}

// AdminConfig bootstraps the first dashboard account on an empty database.
type AdminConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	TokenTTL string `yaml:"token_ttl"` // duration string
}

// JanitorConfig holds the cleanup schedule.
type JanitorConfig struct {
	Schedule string `yaml:"schedule"` // cron spec, e.g. "@every 5m"
	Enabled  bool   `yaml:"enabled"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
	Output string `yaml:"output"` // stdout, stderr, or a file path
}

// TracerConfig holds OpenTelemetry settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // "stdout" or "noop"
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			RequestsPerMin: 120,
			BurstSize:      30,
		},
		Database: DatabaseConfig{Path: "submissions.db"},
		Capture: CaptureConfig{
			TimeoutMs:    15000,
			MaxAgeMs:     0,
			HighAccuracy: true,
			GraceMs:      2000,
			Retention:    "10m",
		},
		Admin: AdminConfig{
			Username: "admin",
			TokenTTL: "12h",
		},
		Janitor: JanitorConfig{
			Schedule: "@every 5m",
			Enabled:  true,
		},
		Logger: LoggerConfig{Level: "info", Format: "text", Output: "stderr"},
		Tracer: TracerConfig{Enabled: false, Exporter: "noop"},
	}
}

// Load reads the YAML file at path, layered over Default. A missing file is
// not an error; the defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if len(cfg.Includes) > 0 {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve config path %s: %w", path, err)
		}
		visited := map[string]bool{absPath: true}
		if err := applyIncludes(cfg, filepath.Dir(absPath), visited, 0); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validatePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}
	mode := info.Mode().Perm()
	// Allow 0600 and 0644 (readable by others but not writable)
	if mode&0o077 > 0o044 {
		return fmt.Errorf("config file %s has insecure permissions %o (want 0600 or 0644)", path, mode)
	}
	return nil
}

// RetentionDuration parses Capture.Retention, falling back to 10 minutes.
func (c *CaptureConfig) RetentionDuration() time.Duration {
	d, err := time.ParseDuration(c.Retention)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// TokenTTLDuration parses Admin.TokenTTL, falling back to 12 hours.
func (a *AdminConfig) TokenTTLDuration() time.Duration {
	d, err := time.ParseDuration(a.TokenTTL)
	if err != nil || d <= 0 {
		return 12 * time.Hour
	}
	return d
}
