package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/DCloudHub/station-onboarding/internal/infra/config"
)

// New builds the service logger from the logger config section. Output is
// stderr, stdout, or a file path; the closer flushes and releases the file
// handle and is a no-op for the standard streams. Unknown levels and formats
// fall back to info and text rather than failing startup.
func New(cfg config.LoggerConfig) (*slog.Logger, func() error, error) {
	var (
		writer io.Writer
		closer = func() error { return nil }
	)
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		writer = os.Stdout
	case "stderr", "":
		writer = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log output: %w", err)
		}
		writer = f
		closer = f.Close
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}
	return slog.New(handler), closer, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
