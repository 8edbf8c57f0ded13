package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/sqlscratch/sqlscratch/internal/config"
	"github.com/sqlscratch/sqlscratch/internal/observability"
	"github.com/sqlscratch/sqlscratch/internal/sandbox"
	"github.com/sqlscratch/sqlscratch/internal/synth"
)

type ReadinessCheck func(ctx context.Context) error

type Dependencies struct {
	Logger            *slog.Logger
	Readiness         ReadinessCheck
	DependencyTimeout time.Duration
	Generator         synth.Generator
	Runner            sandbox.Runner
	// DefaultRowLimit applies when an execution request does not set its own
	// row limit. Zero means unlimited.
	DefaultRowLimit int
}

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": cfg.Service.Name})
	})

	mux.HandleFunc("GET /v1/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Readiness == nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
			return
		}
		timeout := deps.DependencyTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := deps.Readiness(ctx); err != nil {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NOT_READY", err.Error(), true, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	mux.Handle("GET /v1/metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/synthesize", func(w http.ResponseWriter, r *http.Request) {
		handleSynthesize(deps, w, r)
	})
	mux.HandleFunc("POST /v1/execute", func(w http.ResponseWriter, r *http.Request) {
		handleExecute(deps, w, r)
	})

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", observability.TraceHeader},
	})

	return chain(mux,
		corsMiddleware.Handler,
		observability.Middleware(deps.Logger),
	)
}

func CheckGeneratorConfig(cfg config.Config) ReadinessCheck {
	return func(_ context.Context) error {
		if cfg.AI.APIKey == "" {
			return errors.New("ai api key is not configured")
		}
		return nil
	}
}

// CheckSandbox opens and discards one ephemeral database, proving the engine
// bindings work in this environment.
func CheckSandbox(runner sandbox.Runner) ReadinessCheck {
	return func(ctx context.Context) error {
		if runner == nil {
			return errors.New("sandbox runner is not configured")
		}
		_, err := runner.Run(ctx, sandbox.Run{
			TableDefinition: "CREATE TABLE readiness_probe (ok INTEGER)",
			Query:           "SELECT 1 AS ok",
		})
		return err
	}
}

func CombineReadinessChecks(checks ...ReadinessCheck) ReadinessCheck {
	filtered := make([]ReadinessCheck, 0, len(checks))
	for _, check := range checks {
		if check != nil {
			filtered = append(filtered, check)
		}
	}
	return func(ctx context.Context) error {
		for _, check := range filtered {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func chain(base http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string, retryable bool, extra map[string]any) {
	writeJSON(w, status, map[string]any{
		"error":      message,
		"error_code": code,
		"retryable":  retryable,
		"context":    extra,
		"trace_id":   observability.TraceIDFromContext(ctx),
	})
}
