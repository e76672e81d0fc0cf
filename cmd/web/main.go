// Command web serves the results API. It runs the pipeline once at startup
// and then exposes the summaries over HTTP; POST /api/run recomputes them.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ephcli/internal/app"
	"ephcli/internal/config"
	"ephcli/internal/infrastructure"
	transport "ephcli/internal/transport/http"
)

func main() {
	configFile := flag.String("config", "config.yaml", "path to the YAML config file")
	skipInitialRun := flag.Bool("skip-initial-run", false, "start serving without running the pipeline first")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	if err := cfg.Paths.EnsureDirectories(); err != nil {
		logger.Error("failed to create directories", "error", err)
		os.Exit(1)
	}

	providers, err := infrastructure.InitializeOTel(nil, logger)
	if err != nil {
		logger.Error("failed to initialize observability", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Error("observability shutdown failed", "error", err)
		}
	}()

	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		logger.Error("failed to create pipeline metrics", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := app.NewRunner(cfg, logger, metrics)
	store := transport.NewResultsStore(runner)

	if !*skipInitialRun {
		if _, err := store.Refresh(ctx, app.Options{}); err != nil {
			logger.Error("initial pipeline run failed", "error", err)
			os.Exit(1)
		}
	}

	server := transport.NewServer(cfg, logger, store, metrics)
	server.MetricsHandler = providers.PrometheusHTTP

	if err := server.ListenAndServe(ctx); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
