// Package obs contains observability plumbing: structured logging and
// OpenTelemetry setup shared by the api and worker binaries.
package obs

import (
	"log/slog"
	"os"
)

// NewLogger builds the JSON structured logger for a service. It is
// constructed once at process start and passed to whoever logs.
func NewLogger(service string) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(h).With("service", service)
}
