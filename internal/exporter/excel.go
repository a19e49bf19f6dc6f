package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"relnotes/internal/dataprocessing"
	"relnotes/pkg/contracts/domain"
)

const (
	releasesSheet = "Release Notes"
	summarySheet  = "Summary"
)

// entryHeaders are the columns of each quarter block.
var entryHeaders = []string{"Report", "Details", "Category", "Date", "Module"}

// ExcelWriter renders a grouped release document as an Excel workbook.
type ExcelWriter struct {
	logger *slog.Logger
}

// NewExcelWriter creates an Excel writer.
func NewExcelWriter(logger *slog.Logger) *ExcelWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelWriter{logger: logger.With(slog.String("component", "excel_writer"))}
}

// WriteTo streams the workbook to w. The layout mirrors the on-page
// report: one block per quarter, newest first, each with a banner row,
// a header row and the quarter's releases in chronological order,
// followed by a summary sheet with per-quarter category counts and
// year totals.
func (w *ExcelWriter) WriteTo(out io.Writer, doc dataprocessing.GroupedDocument) error {
	file, err := w.build(doc)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := file.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteFile saves the workbook to disk, creating parent directories.
func (w *ExcelWriter) WriteFile(path string, doc dataprocessing.GroupedDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	file, err := w.build(doc)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	w.logger.Info("workbook written",
		slog.String("path", path),
		slog.Int("releases", doc.Total),
		slog.Int("quarters", len(doc.Groups)))
	return nil
}

func (w *ExcelWriter) build(doc dataprocessing.GroupedDocument) (*excelize.File, error) {
	file := excelize.NewFile()
	file.SetSheetName(file.GetSheetName(0), releasesSheet)

	styles, err := newWorkbookStyles(file)
	if err != nil {
		return nil, fmt.Errorf("create styles: %w", err)
	}

	if err := w.writeReleases(file, styles, doc); err != nil {
		return nil, err
	}
	if err := w.writeSummary(file, styles, doc); err != nil {
		return nil, err
	}

	index, err := file.GetSheetIndex(releasesSheet)
	if err != nil {
		return nil, fmt.Errorf("locate sheet: %w", err)
	}
	file.SetActiveSheet(index)
	return file, nil
}

func (w *ExcelWriter) writeReleases(file *excelize.File, styles workbookStyles, doc dataprocessing.GroupedDocument) error {
	widths := []float64{45, 70, 14, 12, 28}
	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := file.SetColWidth(releasesSheet, col, col, width); err != nil {
			return err
		}
	}

	row := 1
	for _, group := range doc.Groups {
		banner := fmt.Sprintf("%s (%s)", group.Quarter.String(), group.Quarter.MonthRange())
		if err := setRow(file, releasesSheet, row, []interface{}{banner}); err != nil {
			return err
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		end, _ := excelize.CoordinatesToCellName(len(entryHeaders), row)
		if err := file.MergeCell(releasesSheet, start, end); err != nil {
			return err
		}
		if err := file.SetCellStyle(releasesSheet, start, end, styles.banner); err != nil {
			return err
		}
		row++

		headers := make([]interface{}, len(entryHeaders))
		for i, header := range entryHeaders {
			headers[i] = header
		}
		if err := setRow(file, releasesSheet, row, headers); err != nil {
			return err
		}
		start, _ = excelize.CoordinatesToCellName(1, row)
		end, _ = excelize.CoordinatesToCellName(len(entryHeaders), row)
		if err := file.SetCellStyle(releasesSheet, start, end, styles.header); err != nil {
			return err
		}
		row++

		for _, release := range group.Releases {
			title := release.Title
			if release.NewRelease {
				title += " (new module)"
			}
			values := []interface{}{
				title,
				release.Body,
				release.Category.Display(),
				release.Date.Format(domain.DateFormat),
				release.ModuleName,
			}
			if err := setRow(file, releasesSheet, row, values); err != nil {
				return err
			}
			row++
		}

		// Blank spacer between quarters.
		row++
	}
	return nil
}

func (w *ExcelWriter) writeSummary(file *excelize.File, styles workbookStyles, doc dataprocessing.GroupedDocument) error {
	if _, err := file.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	if err := file.SetColWidth(summarySheet, "A", "F", 14); err != nil {
		return err
	}

	headers := []interface{}{"Quarter"}
	for _, category := range domain.Categories() {
		headers = append(headers, category.Display())
	}
	headers = append(headers, "Total")
	if err := setRow(file, summarySheet, 1, headers); err != nil {
		return err
	}
	start, _ := excelize.CoordinatesToCellName(1, 1)
	end, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := file.SetCellStyle(summarySheet, start, end, styles.header); err != nil {
		return err
	}

	releases := make([]domain.Release, 0, doc.Total)
	for _, group := range doc.Groups {
		releases = append(releases, group.Releases...)
	}

	row := 2
	for _, line := range dataprocessing.BuildSummaryMatrix(releases) {
		values := []interface{}{line.Label}
		for _, category := range domain.Categories() {
			values = append(values, line.Counts[category])
		}
		values = append(values, line.Total)
		if err := setRow(file, summarySheet, row, values); err != nil {
			return err
		}
		if line.YearRow {
			start, _ := excelize.CoordinatesToCellName(1, row)
			end, _ := excelize.CoordinatesToCellName(len(values), row)
			if err := file.SetCellStyle(summarySheet, start, end, styles.total); err != nil {
				return err
			}
		}
		row++
	}
	return nil
}

type workbookStyles struct {
	banner int
	header int
	total  int
}

func newWorkbookStyles(file *excelize.File) (workbookStyles, error) {
	banner, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
	})
	if err != nil {
		return workbookStyles{}, err
	}

	header, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9E1F2"}},
	})
	if err != nil {
		return workbookStyles{}, err
	}

	total, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return workbookStyles{}, err
	}

	return workbookStyles{banner: banner, header: header, total: total}, nil
}

func setRow(file *excelize.File, sheet string, row int, values []interface{}) error {
	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
	}
	return nil
}
