package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"meteoval/internal/config"
	apperrors "meteoval/internal/errors"
	"meteoval/internal/infrastructure"
	"meteoval/internal/pipeline"
	"meteoval/pkg/contracts"
)

func main() {
	configFile := flag.String("config", "", "path to YAML configuration file (optional)")
	csvPath := flag.String("csv", "", "CSV encoding of the dataset (overrides config)")
	parquetPath := flag.String("parquet", "", "parquet encoding of the dataset (overrides config)")
	out := flag.String("out", "", "evidence output directory (overrides config)")
	dateCol := flag.String("date-col", "", "timestamp column name (overrides config)")
	workbook := flag.Bool("workbook", false, "also write a consolidated xlsx workbook")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetVersionString())
		return
	}

	cfg, err := config.Load(*configFile, func(c *config.Config) {
		if *csvPath != "" {
			c.Inputs.CSVPath = *csvPath
		}
		if *parquetPath != "" {
			c.Inputs.ParquetPath = *parquetPath
		}
		if *out != "" {
			c.Output.Dir = *out
		}
		if *dateCol != "" {
			c.Temporal.DateColumn = *dateCol
		}
		if *workbook {
			c.Output.Workbook = true
		}
	})
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(apperrors.ExitCode(err))
	}

	// Paths are resolved before the logger so the run log lands inside the
	// run's own evidence tree.
	paths := config.NewPaths(cfg.Output.Dir, time.Now().UTC())
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create evidence directories", "error", err)
		os.Exit(apperrors.ExitCode(apperrors.NewStorageError("failed to create evidence directories", err)))
	}
	if cfg.Logging.FilePath == "" {
		cfg.Logging.FilePath = paths.RunLogPath()
	}

	logger, closeLogger, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
		closeLogger = func() error { return nil }
	}
	defer closeLogger()

	ctx := infrastructure.WithTraceID(context.Background(), uuid.NewString())

	providers, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		logger.Warn("Failed to initialize tracing, continuing without spans",
			slog.String("error", err.Error()))
	} else {
		defer func() {
			if err := providers.Shutdown(context.Background()); err != nil {
				logger.Warn("Tracing shutdown failed", slog.String("error", err.Error()))
			}
		}()
	}

	runner := pipeline.NewRunner(cfg, logger, tracerOf(providers), infrastructure.NewSystemProbe(logger, nil))
	meta, err := runner.Run(ctx, paths)
	if err != nil {
		logger.Error("Validation run failed",
			slog.String("run_id", paths.RunID),
			slog.String("error_type", string(apperrors.TypeOf(err))),
			slog.String("error", err.Error()))
		closeLogger()
		os.Exit(apperrors.ExitCode(err))
	}

	fmt.Printf("Run %s completed: %d rows, %d cols, evidence in %s\n",
		meta.RunID, meta.Rows, meta.Cols, cfg.Output.Dir)
}

func tracerOf(providers *infrastructure.OTelProviders) trace.Tracer {
	if providers == nil {
		return nil
	}
	return providers.Tracer
}
