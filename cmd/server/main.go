package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/DCloudHub/station-onboarding/internal/adapter/gateway"
	"github.com/DCloudHub/station-onboarding/internal/adapter/storage"
	"github.com/DCloudHub/station-onboarding/internal/domain"
	"github.com/DCloudHub/station-onboarding/internal/infra/config"
	"github.com/DCloudHub/station-onboarding/internal/infra/logger"
	"github.com/DCloudHub/station-onboarding/internal/infra/tracer"
	"github.com/DCloudHub/station-onboarding/internal/usecase"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "--help", "-h", "help":
			showUsage()
			return
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`station-onboarding - Fuel station registration service

USAGE:
    station-onboarding [FLAGS]

FLAGS:
    -h, --help         Show this help message
    --config PATH      Config file path (default: ./config.yaml)

CONFIGURATION:
    Config file: ./config.yaml (YAML)
    A missing file runs the built-in defaults: listen on :8080,
    SQLite database at ./submissions.db.

ADMIN BOOTSTRAP:
    Set admin.password in the config (or leave the database populated
    from a previous run) to enable the dashboard endpoints.`)
}

// configPath returns the --config flag value, or ./config.yaml.
func configPath() string {
	for i := 1; i < len(os.Args); i++ {
		switch {
		case os.Args[i] == "--config" && i+1 < len(os.Args):
			return os.Args[i+1]
		case strings.HasPrefix(os.Args[i], "--config="):
			return strings.TrimPrefix(os.Args[i], "--config=")
		}
	}
	return "config.yaml"
}

func run() error {
	// 1. Config
	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// 2. Logger & tracer
	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logCloser()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracerShutdown, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer tracerShutdown(context.Background())

	// 3. Storage
	store, err := storage.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer store.Close()

	// 4. Use cases
	defaults := domain.CaptureOptions{
		HighAccuracy: cfg.Capture.HighAccuracy,
		TimeoutMs:    cfg.Capture.TimeoutMs,
		MaxAgeMs:     cfg.Capture.MaxAgeMs,
	}
	grace := time.Duration(cfg.Capture.GraceMs) * time.Millisecond
	bridge, err := usecase.NewBridge(defaults, grace, log)
	if err != nil {
		return fmt.Errorf("bridge: %w", err)
	}

	wizard := usecase.NewWizard(bridge, store, log)

	tokenTTL, err := time.ParseDuration(cfg.Admin.TokenTTL)
	if err != nil {
		return fmt.Errorf("admin token_ttl: %w", err)
	}
	admin := usecase.NewAdminService(store, tokenTTL, log)
	if cfg.Admin.Password != "" {
		if err := admin.Bootstrap(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
			return fmt.Errorf("admin bootstrap: %w", err)
		}
	} else {
		log.Warn("admin password not configured, dashboard login limited to existing accounts")
	}

	// 5. Janitor
	if cfg.Janitor.Enabled {
		retention, err := time.ParseDuration(cfg.Capture.Retention)
		if err != nil {
			return fmt.Errorf("capture retention: %w", err)
		}
		janitor, err := usecase.NewJanitor(cfg.Janitor.Schedule, bridge, wizard, admin, retention, log)
		if err != nil {
			return fmt.Errorf("janitor: %w", err)
		}
		janitor.Start()
		defer janitor.Stop()
	}

	// 6. Gateway
	metrics := &gateway.Metrics{}
	srv := gateway.NewServer(cfg.Server, metrics, log)
	gateway.RegisterAll(srv, gateway.HandlerDeps{
		Bridge: bridge,
		Wizard: wizard,
		Admin:  admin,
		Store:  store,
		Logger: log,
	})

	log.Info("starting station onboarding service", "addr", cfg.Server.Addr, "db", cfg.Database.Path)
	return srv.Start(ctx)
}
