// Command export converts a raw release notes export into a formatted
// workbook or CSV file without starting the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"relnotes/internal/config"
	"relnotes/internal/exporter"
	"relnotes/internal/infrastructure"
	"relnotes/internal/services"
)

func main() {
	in := flag.String("in", "", "raw export file (defaults to the configured ingest export file)")
	out := flag.String("out", "release_notes.xlsx", "output file; extension selects the format (.xlsx or .csv)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		cfg = &config.Config{}
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}

	if *in == "" {
		*in = cfg.Ingest.ExportFile
	}

	ctx := context.Background()
	service := services.NewReleaseServiceWithLogger(cfg, logger)
	report, err := service.IngestFile(ctx, *in)
	if err != nil {
		logger.Error("ingest failed", slog.String("file", *in), slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("export parsed",
		slog.Int("releases", report.Releases),
		slog.Int("skipped", report.Skipped),
		slog.Int("dropped", report.Dropped))

	doc, err := service.Grouped(ctx)
	if err != nil {
		logger.Error("nothing to export", slog.String("error", err.Error()))
		os.Exit(1)
	}

	switch {
	case strings.HasSuffix(*out, ".csv"):
		err = exporter.NewCSVWriter(logger).WriteFile(*out, doc)
	case strings.HasSuffix(*out, ".xlsx"):
		err = exporter.NewExcelWriter(logger).WriteFile(*out, doc)
	default:
		err = fmt.Errorf("unsupported output format %q, use .xlsx or .csv", *out)
	}
	if err != nil {
		logger.Error("export failed", slog.String("file", *out), slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Printf("Wrote %d releases across %d quarters to %s\n", doc.Total, len(doc.Groups), *out)
}
