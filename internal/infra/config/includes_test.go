package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfigFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIncludesSingleFile(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "capture.yaml", `
capture:
  timeout_ms: 30000
  grace_ms: 1000
`)
	path := writeConfigFile(t, dir, "config.yaml", `
includes:
  - "capture.yaml"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Capture.TimeoutMs != 30000 {
		t.Errorf("Capture.TimeoutMs = %d, want 30000 from include", cfg.Capture.TimeoutMs)
	}
	if cfg.Capture.GraceMs != 1000 {
		t.Errorf("Capture.GraceMs = %d, want 1000 from include", cfg.Capture.GraceMs)
	}
}

func TestIncludesGlobPattern(t *testing.T) {
	dir := t.TempDir()
	subdir := filepath.Join(dir, "conf.d")
	if err := os.Mkdir(subdir, 0755); err != nil {
		t.Fatal(err)
	}
	writeConfigFile(t, subdir, "admin.yaml", `
admin:
  username: "ops"
`)
	writeConfigFile(t, subdir, "server.yaml", `
server:
  addr: ":9090"
`)
	path := writeConfigFile(t, dir, "config.yaml", `
includes:
  - "conf.d/*.yaml"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Admin.Username != "ops" {
		t.Errorf("Admin.Username = %q, want %q", cfg.Admin.Username, "ops")
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, ":9090")
	}
}

func TestIncludesNested(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "inner.yaml", `
janitor:
  schedule: "@every 1m"
`)
	writeConfigFile(t, dir, "middle.yaml", `
includes:
  - "inner.yaml"
database:
  path: "other.db"
`)
	path := writeConfigFile(t, dir, "config.yaml", `
includes:
  - "middle.yaml"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "other.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "other.db")
	}
	if cfg.Janitor.Schedule != "@every 1m" {
		t.Errorf("Janitor.Schedule = %q, want %q", cfg.Janitor.Schedule, "@every 1m")
	}
}

func TestIncludesCircularDetected(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "a.yaml", `
includes:
  - "b.yaml"
`)
	writeConfigFile(t, dir, "b.yaml", `
includes:
  - "a.yaml"
`)
	path := writeConfigFile(t, dir, "config.yaml", `
includes:
  - "a.yaml"
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load accepted circular includes")
	}
	if !strings.Contains(err.Error(), "circular") {
		t.Errorf("error %q does not mention circular include", err)
	}
}

func TestIncludesPathTraversalRejected(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, "config.yaml", `
includes:
  - "../outside.yaml"
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load accepted a path escaping the config directory")
	}
	if !strings.Contains(err.Error(), "escapes") {
		t.Errorf("error %q does not mention escaping path", err)
	}
}

func TestIncludesMissingFileIsError(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, "config.yaml", `
includes:
  - "absent.yaml"
`)

	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted a missing include")
	}
}

func TestIncludesEmptyGlobIsNoop(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, "config.yaml", `
includes:
  - "conf.d/*.yaml"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want default", cfg.Server.Addr)
	}
}
