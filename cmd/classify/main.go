package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"meteoval/internal/classify"
	"meteoval/internal/config"
	apperrors "meteoval/internal/errors"
	"meteoval/internal/infrastructure"
	"meteoval/pkg/contracts"
)

func main() {
	inventory := flag.String("inventory", "", "file inventory CSV (required)")
	outCSV := flag.String("out", "", "classification CSV path (defaults next to the inventory)")
	outSummary := flag.String("summary", "", "summary text path (defaults next to the output CSV)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetVersionString())
		return
	}
	if *inventory == "" {
		fmt.Fprintln(os.Stderr, "usage: classify -inventory files_inventory.csv [-out classification.csv] [-summary summary.txt]")
		os.Exit(1)
	}
	if *outCSV == "" {
		*outCSV = filepath.Join(filepath.Dir(*inventory), "classification.csv")
	}
	if *outSummary == "" {
		*outSummary = filepath.Join(filepath.Dir(*outCSV), "classification_summary.txt")
	}

	logger, closeLogger, err := infrastructure.NewLogger(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	})
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
		closeLogger = func() error { return nil }
	}
	defer closeLogger()

	summary, err := classify.NewClassifier(logger).Run(*inventory, *outCSV, *outSummary)
	if err != nil {
		logger.Error("Classification failed",
			slog.String("inventory", *inventory),
			slog.String("error", err.Error()))
		closeLogger()
		os.Exit(apperrors.ExitCode(err))
	}

	fmt.Printf("Classified %d files (%d ignored)\n", summary.Total, summary.Ignored)
	fmt.Printf(" - %s\n - %s\n", *outCSV, *outSummary)
}
