package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// HealthService reports process liveness and ingestion state.
type HealthService struct {
	version   string
	buildTime string
	releases  *ReleaseService
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus is the health endpoint response.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Data      *DataHealth            `json:"data,omitempty"`
}

// DataHealth describes the loaded release collection.
type DataHealth struct {
	Loaded     bool      `json:"loaded"`
	Source     string    `json:"source,omitempty"`
	Releases   int       `json:"releases"`
	ParseSkips int       `json:"parse_skips"`
	LoadedAt   time.Time `json:"loaded_at,omitempty"`
}

// NewHealthService creates a health service.
func NewHealthService(version, buildTime string, releases *ReleaseService, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		buildTime: buildTime,
		releases:  releases,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// Check returns the current health status. The service reports degraded
// rather than unhealthy when no data is loaded yet: the process serves
// requests either way.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   s.version,
		Runtime: map[string]interface{}{
			"go_version":     runtime.Version(),
			"os":             runtime.GOOS,
			"arch":           runtime.GOARCH,
			"goroutines":     runtime.NumGoroutine(),
			"uptime_seconds": time.Since(s.startTime).Seconds(),
			"build_time":     s.buildTime,
		},
	}

	data := &DataHealth{}
	if s.releases != nil {
		st := s.releases.Status()
		data.Loaded = st.Loaded
		data.Source = st.Source
		data.Releases = st.Releases
		data.ParseSkips = st.Skipped
		data.LoadedAt = st.LoadedAt
		if !st.Loaded {
			status.Status = "degraded"
		}
	}
	status.Data = data
	return status
}
