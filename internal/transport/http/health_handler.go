package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"relnotes/internal/services"
	"relnotes/pkg/contracts"
)

// HealthHandler serves liveness and version endpoints.
type HealthHandler struct {
	service *services.HealthService
	logger  *slog.Logger
	version string
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(service *services.HealthService, version string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		logger:  logger.With(slog.String("component", "health_handler")),
		version: version,
	}
}

// Routes returns the health routes, mounted under /api.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/health", h.GetHealth)
	r.Get("/version", h.GetVersion)
	return r
}

// GetHealth handles GET /api/health. Degraded status still returns 200:
// the process is serving, it just has no data yet.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := h.service.Check(r.Context())
	render.JSON(w, r, status)
}

// GetVersion handles GET /api/version.
func (h *HealthHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	info := contracts.GetVersionInfo()
	info.Version = h.version
	render.JSON(w, r, info)
}
