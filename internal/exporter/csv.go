package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"relnotes/internal/dataprocessing"
	"relnotes/pkg/contracts/domain"
)

// csvHeaders are the flat export columns.
var csvHeaders = []string{"Quarter", "Report", "Details", "Category", "Date", "Module", "New Release"}

// CSVWriter renders a grouped release document as a flat CSV file.
type CSVWriter struct {
	logger *slog.Logger

	// BOMPrefix prepends a UTF-8 BOM so Excel opens the file correctly.
	BOMPrefix bool
}

// NewCSVWriter creates a CSV writer with the BOM enabled.
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{
		logger:    logger.With(slog.String("component", "csv_writer")),
		BOMPrefix: true,
	}
}

// WriteTo streams the document to w, one row per release, quarters
// newest first and releases chronological within a quarter.
func (w *CSVWriter) WriteTo(out io.Writer, doc dataprocessing.GroupedDocument) error {
	if w.BOMPrefix {
		if _, err := out.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(csvHeaders); err != nil {
		return fmt.Errorf("write headers: %w", err)
	}

	for _, group := range doc.Groups {
		for _, release := range group.Releases {
			newRelease := ""
			if release.NewRelease {
				newRelease = "yes"
			}
			record := []string{
				group.Quarter.String(),
				release.Title,
				release.Body,
				release.Category.Display(),
				release.Date.Format(domain.DateFormat),
				release.ModuleName,
				newRelease,
			}
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("write record: %w", err)
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteFile saves the CSV to disk, creating parent directories.
func (w *CSVWriter) WriteFile(path string, doc dataprocessing.GroupedDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer file.Close()

	if err := w.WriteTo(file, doc); err != nil {
		return err
	}

	w.logger.Info("csv written",
		slog.String("path", path),
		slog.Int("releases", doc.Total))
	return nil
}
