package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "relnotes/internal/errors"
	"relnotes/internal/exporter"
	"relnotes/internal/middleware"
)

// ExportHandler serves workbook and CSV downloads of the release
// collection.
type ExportHandler struct {
	service      ReleaseServiceInterface
	excel        *exporter.ExcelWriter
	csv          *exporter.CSVWriter
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewExportHandler creates an export handler.
func NewExportHandler(service ReleaseServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ExportHandler {
	return &ExportHandler{
		service:      service,
		excel:        exporter.NewExcelWriter(logger),
		csv:          exporter.NewCSVWriter(logger),
		logger:       logger.With(slog.String("component", "export_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the export routes, mounted under /api/export.
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/xlsx", h.DownloadExcel)
	r.Get("/csv", h.DownloadCSV)
	return r
}

// DownloadExcel handles GET /api/export/xlsx.
func (h *ExportHandler) DownloadExcel(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Grouped(r.Context())
	if err != nil {
		handleServiceError(h.errorHandler, w, r, err)
		return
	}

	filename := fmt.Sprintf("release_notes_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := h.excel.WriteTo(w, doc); err != nil {
		// Headers are already sent; log instead of writing a problem body.
		h.logger.ErrorContext(r.Context(), "workbook streaming failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())))
		return
	}

	h.logger.InfoContext(r.Context(), "workbook exported",
		slog.Int("releases", doc.Total),
		slog.String("filename", filename))
}

// DownloadCSV handles GET /api/export/csv.
func (h *ExportHandler) DownloadCSV(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Grouped(r.Context())
	if err != nil {
		handleServiceError(h.errorHandler, w, r, err)
		return
	}

	filename := fmt.Sprintf("release_notes_%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := h.csv.WriteTo(w, doc); err != nil {
		h.logger.ErrorContext(r.Context(), "csv streaming failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())))
		return
	}

	h.logger.InfoContext(r.Context(), "csv exported",
		slog.Int("releases", doc.Total),
		slog.String("filename", filename))
}
