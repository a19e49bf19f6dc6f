package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"relnotes/internal/dataprocessing"
	apierrors "relnotes/internal/errors"
	"relnotes/internal/middleware"
	"relnotes/internal/services"
	"relnotes/pkg/contracts/domain"
)

const (
	defaultPageSize   = 50
	maxPageSize       = 500
	defaultTopModules = 15
)

// listRequest carries the parsed query parameters of a release listing.
type listRequest struct {
	Category string `validate:"omitempty,max=40"`
	Quarter  string `validate:"omitempty,max=20"`
	Module   string `validate:"omitempty,max=200"`
	Search   string `validate:"omitempty,max=200"`
	Offset   int    `validate:"min=0"`
	Limit    int    `validate:"min=1,max=500"`
}

// Boundary payload shapes. Aggregates travel as parallel arrays, the
// way charting consumers read them.
type listResponse struct {
	Releases []domain.Release `json:"releases"`
	Total    int              `json:"total"`
	Offset   int              `json:"offset"`
	Limit    int              `json:"limit"`
}

type categoryChartResponse struct {
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}

type timelineChartResponse struct {
	Quarters []string `json:"quarters"`
	Counts   []int    `json:"counts"`
}

type moduleChartResponse struct {
	Modules []string `json:"modules"`
	Counts  []int    `json:"counts"`
}

// ReleaseHandler serves the release listing, aggregates and reload
// endpoints.
type ReleaseHandler struct {
	service      ReleaseServiceInterface
	exportFile   string
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate
}

// NewReleaseHandler creates a release handler. exportFile is the path
// reloaded by POST /reload.
func NewReleaseHandler(service ReleaseServiceInterface, exportFile string, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReleaseHandler {
	return &ReleaseHandler{
		service:      service,
		exportFile:   exportFile,
		logger:       logger.With(slog.String("component", "release_handler")),
		errorHandler: errorHandler,
		validate:     validator.New(),
	}
}

// Routes returns the release routes, mounted under /api.
func (h *ReleaseHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/releases", h.ListReleases)
	r.Get("/summary", h.GetSummary)
	r.Get("/filters", h.GetFilters)
	r.Route("/charts", func(r chi.Router) {
		r.Get("/category", h.GetCategoryChart)
		r.Get("/timeline", h.GetTimelineChart)
		r.Get("/modules", h.GetModuleChart)
	})
	r.Post("/reload", h.Reload)

	return r
}

// ListReleases handles GET /api/releases.
func (h *ReleaseHandler) ListReleases(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseListRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	result, err := h.service.Query(r.Context(), dataprocessing.QueryRequest{
		Category: req.Category,
		Quarter:  req.Quarter,
		Module:   req.Module,
		Search:   req.Search,
		Offset:   req.Offset,
		Limit:    req.Limit,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": listResponse{
			Releases: result.Releases,
			Total:    result.Total,
			Offset:   req.Offset,
			Limit:    req.Limit,
		},
	})
}

// parseListRequest validates the listing query parameters. Only shape
// errors are rejected; out-of-domain filter values pass through and
// simply match nothing.
func (h *ReleaseHandler) parseListRequest(r *http.Request) (listRequest, error) {
	query := r.URL.Query()
	req := listRequest{
		Category: strings.TrimSpace(query.Get("category")),
		Quarter:  strings.TrimSpace(query.Get("quarter")),
		Module:   strings.TrimSpace(query.Get("module")),
		Search:   strings.TrimSpace(query.Get("search")),
		Limit:    defaultPageSize,
	}
	if req.Search == "" {
		req.Search = strings.TrimSpace(query.Get("q"))
	}

	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return listRequest{}, apierrors.ErrValidation("offset", "offset must be a non-negative integer")
		}
		req.Offset = offset
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxPageSize {
			return listRequest{}, apierrors.ErrValidation("limit", fmt.Sprintf("limit must be between 1 and %d", maxPageSize))
		}
		req.Limit = limit
	}

	if err := h.validate.Struct(req); err != nil {
		return listRequest{}, apierrors.InvalidRequestWithError(err)
	}
	return req, nil
}

// GetSummary handles GET /api/summary.
func (h *ReleaseHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	req, err := h.filterRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	summary, err := h.service.Summary(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}

// GetFilters handles GET /api/filters.
func (h *ReleaseHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	options, err := h.service.FilterOptions(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   options,
	})
}

// filterRequest extracts the filter portion of the listing parameters.
// Chart endpoints accept the same filters as /releases but no paging.
func (h *ReleaseHandler) filterRequest(r *http.Request) (dataprocessing.QueryRequest, error) {
	req, err := h.parseListRequest(r)
	if err != nil {
		return dataprocessing.QueryRequest{}, err
	}
	return dataprocessing.QueryRequest{
		Category: req.Category,
		Quarter:  req.Quarter,
		Module:   req.Module,
		Search:   req.Search,
	}, nil
}

// GetCategoryChart handles GET /api/charts/category.
func (h *ReleaseHandler) GetCategoryChart(w http.ResponseWriter, r *http.Request) {
	req, err := h.filterRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	histogram, err := h.service.CategoryChart(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	payload := categoryChartResponse{
		Labels: make([]string, 0, len(histogram)),
		Values: make([]int, 0, len(histogram)),
	}
	for _, bar := range histogram {
		payload.Labels = append(payload.Labels, bar.Label)
		payload.Values = append(payload.Values, bar.Count)
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   payload,
	})
}

// GetTimelineChart handles GET /api/charts/timeline.
func (h *ReleaseHandler) GetTimelineChart(w http.ResponseWriter, r *http.Request) {
	req, err := h.filterRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	series, err := h.service.TimelineChart(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	payload := timelineChartResponse{
		Quarters: make([]string, 0, len(series)),
		Counts:   make([]int, 0, len(series)),
	}
	for _, point := range series {
		payload.Quarters = append(payload.Quarters, point.Label)
		payload.Counts = append(payload.Counts, point.Count)
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   payload,
	})
}

// GetModuleChart handles GET /api/charts/modules.
func (h *ReleaseHandler) GetModuleChart(w http.ResponseWriter, r *http.Request) {
	req, err := h.filterRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	limit := defaultTopModules
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxPageSize {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("limit", fmt.Sprintf("limit must be between 1 and %d", maxPageSize)))
			return
		}
		limit = parsed
	}

	ranking, err := h.service.ModuleChart(r.Context(), req, limit)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	payload := moduleChartResponse{
		Modules: make([]string, 0, len(ranking)),
		Counts:  make([]int, 0, len(ranking)),
	}
	for _, entry := range ranking {
		payload.Modules = append(payload.Modules, entry.Module)
		payload.Counts = append(payload.Counts, entry.Count)
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   payload,
	})
}

// Reload handles POST /api/reload: it re-ingests the configured export
// file and swaps the collection snapshot on success.
func (h *ReleaseHandler) Reload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	h.logger.InfoContext(r.Context(), "reload requested",
		slog.String("request_id", reqID),
		slog.String("export_file", h.exportFile))

	report, err := h.service.IngestFile(r.Context(), h.exportFile)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "reload failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   report,
	})
}

func (h *ReleaseHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	handleServiceError(h.errorHandler, w, r, err)
}

// handleServiceError maps service sentinels onto API errors.
func handleServiceError(errorHandler *apierrors.ErrorHandler, w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNoDataLoaded):
		errorHandler.HandleError(w, r, apierrors.ErrNoDataLoaded)
	case errors.Is(err, services.ErrEmptyExport):
		errorHandler.HandleError(w, r, apierrors.New(
			http.StatusUnprocessableEntity,
			"EMPTY_EXPORT",
			"Export contains no extractable releases",
		))
	case errors.Is(err, services.ErrInvalidInput):
		errorHandler.HandleError(w, r, apierrors.ErrValidation("export", err.Error()))
	case errors.Is(err, services.ErrIngestionFailed):
		errorHandler.HandleError(w, r, apierrors.IngestionError(err))
	case errors.Is(err, services.ErrNoReleasesToExport):
		errorHandler.HandleError(w, r, apierrors.NotFoundError("releases"))
	default:
		errorHandler.HandleError(w, r, err)
	}
}
