package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sqlscratch/sqlscratch/internal/api"
	"github.com/sqlscratch/sqlscratch/internal/config"
	"github.com/sqlscratch/sqlscratch/internal/observability"
	duckdbengine "github.com/sqlscratch/sqlscratch/internal/sandbox/duckdb"
	"github.com/sqlscratch/sqlscratch/internal/synth"
)

func main() {
	// A .env file is a local-dev convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv("sqlscratch-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	var generator synth.Generator
	if cfg.AI.APIKey != "" {
		generator, err = synth.NewOpenAIGenerator(synth.OpenAIConfig{
			BaseURL:     cfg.AI.BaseURL,
			APIKey:      cfg.AI.APIKey,
			Model:       cfg.AI.Model,
			Temperature: cfg.AI.Temperature,
			Timeout:     cfg.AI.Timeout,
			SeedRows:    cfg.AI.SeedRows,
		})
		if err != nil {
			logger.Error("failed to initialize generator", slog.Any("error", err))
			os.Exit(1)
		}
	} else {
		logger.Warn("SQLSCRATCH_AI_API_KEY is not set, synthesis endpoint disabled")
	}

	engine := duckdbengine.NewEngine()

	deps := api.Dependencies{
		Logger:          logger,
		Generator:       generator,
		Runner:          engine,
		DefaultRowLimit: cfg.Sandbox.RowLimit,
		Readiness: api.CombineReadinessChecks(
			api.CheckGeneratorConfig(cfg),
			api.CheckSandbox(engine),
		),
		DependencyTimeout: time.Second,
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
