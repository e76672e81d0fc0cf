// Command pipeline runs the survey analysis end to end: load raw extracts,
// normalize, deflate, aggregate and export the result tables.
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
)

func main() {
	configFile := flag.String("config", "config.yaml", "path to the YAML config file")
	force := flag.Bool("force", false, "reload from raw extracts even when a clean file exists")
	noExport := flag.Bool("no-export", false, "compute results without writing output tables")
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
	results, err := runner.Run(ctx, app.Options{Force: *force, SkipExport: *noExport})
	if err != nil {
		logger.Error("pipeline run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("pipeline finished",
		slog.String("run_id", results.RunID),
		slog.Int("rate_cells", len(results.Rates)),
		slog.Int("income_regions", len(results.GeneralIncome)),
		slog.Int("participation_rows", len(results.Participation)))
}
