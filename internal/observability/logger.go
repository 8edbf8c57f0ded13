// Package observability carries the request-scoped plumbing shared by every
// endpoint: the service logger, trace-ID propagation, and HTTP metrics.
package observability

import (
	"io"
	"log/slog"

	"github.com/sqlscratch/sqlscratch/internal/config"
)

// NewLogger builds the service logger. Every line carries the service name
// and profile so log aggregation can separate environments.
func NewLogger(cfg config.Config, writer io.Writer) *slog.Logger {
	if writer == nil {
		writer = io.Discard
	}
	opts := &slog.HandlerOptions{Level: cfg.Observability.LogLevel}
	var handler slog.Handler = slog.NewTextHandler(writer, opts)
	if cfg.Observability.LogJSON {
		handler = slog.NewJSONHandler(writer, opts)
	}
	return slog.New(handler).With(
		slog.String("service", cfg.Service.Name),
		slog.String("profile", string(cfg.Profile)),
	)
}
