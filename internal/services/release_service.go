package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"relnotes/internal/config"
	"relnotes/internal/dataprocessing"
	"relnotes/internal/infrastructure"
	"relnotes/pkg/contracts/domain"
)

// Snapshot is one immutable view of the release collection. Readers
// hold a snapshot for the duration of a request; ingestion builds a new
// one and swaps the pointer, so queries never see a half-loaded state.
type Snapshot struct {
	Releases []domain.Release
	Source   string
	LoadedAt time.Time
	Skipped  int
	Dropped  int
}

// ServiceStatus describes the currently served snapshot.
type ServiceStatus struct {
	Loaded   bool
	Source   string
	LoadedAt time.Time
	Releases int
	Skipped  int
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	Source   string        `json:"source"`
	Releases int           `json:"releases"`
	Skipped  int           `json:"skipped"`
	Dropped  int           `json:"dropped"`
	Duration time.Duration `json:"-"`
	LoadedAt time.Time     `json:"loaded_at"`
}

// SummaryResponse is the aggregate view: per-quarter matrix plus the
// overall category histogram and totals.
type SummaryResponse struct {
	Rows          []dataprocessing.SummaryRow    `json:"rows"`
	Categories    []dataprocessing.CategoryCount `json:"categories"`
	Total         int                            `json:"total_releases"`
	TotalModules  int                            `json:"total_modules"`
	TotalQuarters int                            `json:"total_quarters"`
	NewReleases   int                            `json:"new_releases"`
	Source        string                         `json:"source"`
	LoadedAt      time.Time                      `json:"loaded_at"`
}

// ReleaseService owns the ingested release collection.
type ReleaseService struct {
	config   *config.Config
	logger   *slog.Logger
	metrics  *infrastructure.BusinessMetrics
	snapshot atomic.Pointer[Snapshot]
	ingestMu sync.Mutex
}

// NewReleaseService creates a release service using the default logger.
func NewReleaseService(cfg *config.Config) *ReleaseService {
	return NewReleaseServiceWithLogger(cfg, slog.Default())
}

// NewReleaseServiceWithLogger creates a release service with a specific logger.
func NewReleaseServiceWithLogger(cfg *config.Config, logger *slog.Logger) *ReleaseService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReleaseService{
		config: cfg,
		logger: logger.With(slog.String("component", "release_service")),
	}
}

// SetMetrics wires the OTel business instruments. Optional; the service
// works without them.
func (s *ReleaseService) SetMetrics(metrics *infrastructure.BusinessMetrics) {
	s.metrics = metrics
}

// IngestFile reads an export file from disk and ingests it.
func (s *ReleaseService) IngestFile(ctx context.Context, path string) (IngestReport, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return IngestReport{}, fmt.Errorf("%w: read export %s: %v", ErrIngestionFailed, path, err)
	}
	return s.Ingest(ctx, path, raw)
}

// Ingest parses a raw export and replaces the current snapshot. The
// old snapshot stays live until the new one is fully built, and is kept
// when ingestion fails. Re-ingesting the same export is idempotent.
func (s *ReleaseService) Ingest(ctx context.Context, source string, raw []byte) (IngestReport, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return IngestReport{}, fmt.Errorf("%w: export payload is empty", ErrInvalidInput)
	}

	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	started := time.Now()
	logger := s.logger
	logger.InfoContext(ctx, "ingestion started",
		slog.String("source", source),
		slog.Int("bytes", len(raw)))

	markup, records, err := dataprocessing.DecodeExport(raw)
	if err != nil {
		s.recordIngestion(ctx, "error", time.Since(started))
		return IngestReport{}, fmt.Errorf("%w: %v", ErrIngestionFailed, err)
	}

	var (
		releases []domain.Release
		skipped  int
		dropped  int
	)
	if len(records) > 0 {
		releases, dropped = s.normalizeRecords(records)
	} else {
		releases, skipped, dropped, err = s.extractMarkup(ctx, markup)
		if err != nil {
			s.recordIngestion(ctx, "error", time.Since(started))
			return IngestReport{}, err
		}
	}

	if len(releases) == 0 {
		s.recordIngestion(ctx, "empty", time.Since(started))
		logger.WarnContext(ctx, "ingestion produced no releases, keeping previous snapshot",
			slog.String("source", source),
			slog.Int("skipped", skipped),
			slog.Int("dropped", dropped))
		return IngestReport{}, ErrEmptyExport
	}

	snapshot := &Snapshot{
		Releases: releases,
		Source:   source,
		LoadedAt: time.Now().UTC(),
		Skipped:  skipped,
		Dropped:  dropped,
	}
	s.snapshot.Store(snapshot)

	duration := time.Since(started)
	s.recordIngestion(ctx, "success", duration)
	if s.metrics != nil {
		s.metrics.ReleasesIngested.Record(ctx, int64(len(releases)))
		s.metrics.ParseSkips.Record(ctx, int64(skipped+dropped))
	}

	logger.InfoContext(ctx, "ingestion complete",
		slog.String("source", source),
		slog.Int("releases", len(releases)),
		slog.Int("skipped", skipped),
		slog.Int("dropped", dropped),
		slog.Duration("duration", duration))

	return IngestReport{
		Source:   source,
		Releases: len(releases),
		Skipped:  skipped,
		Dropped:  dropped,
		Duration: duration,
		LoadedAt: snapshot.LoadedAt,
	}, nil
}

// extractMarkup runs the extractor over export markup and normalizes
// the fragments across a bounded worker group.
func (s *ReleaseService) extractMarkup(ctx context.Context, markup string) (releases []domain.Release, skipped, dropped int, err error) {
	extractor := dataprocessing.NewExtractor(markup)
	var fragments []dataprocessing.Fragment
	for {
		frag, ok := extractor.Next()
		if !ok {
			break
		}
		fragments = append(fragments, frag)
	}
	skipped = extractor.Skipped()

	workers := runtime.NumCPU()
	if s.config != nil && s.config.Ingest.Workers > 0 {
		workers = s.config.Ingest.Workers
	}

	type slot struct {
		release domain.Release
		ok      bool
	}
	slots := make([]slot, len(fragments))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for i, frag := range fragments {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			release, ok := dataprocessing.NormalizeFragment(frag)
			slots[i] = slot{release: release, ok: ok}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", ErrIngestionFailed, err)
	}

	releases = make([]domain.Release, 0, len(slots))
	for _, sl := range slots {
		if sl.ok {
			releases = append(releases, sl.release)
		} else {
			dropped++
		}
	}
	return releases, skipped, dropped, nil
}

func (s *ReleaseService) normalizeRecords(records []dataprocessing.RawRecord) (releases []domain.Release, dropped int) {
	releases = make([]domain.Release, 0, len(records))
	for _, record := range records {
		release, ok := dataprocessing.NormalizeRecord(record)
		if !ok {
			dropped++
			continue
		}
		releases = append(releases, release)
	}
	return releases, dropped
}

func (s *ReleaseService) recordIngestion(ctx context.Context, status string, duration time.Duration) {
	if s.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	s.metrics.IngestionsTotal.Add(ctx, 1, attrs)
	s.metrics.IngestionDuration.Record(ctx, duration.Seconds(), attrs)
}

// current returns the live snapshot or ErrNoDataLoaded.
func (s *ReleaseService) current() (*Snapshot, error) {
	snapshot := s.snapshot.Load()
	if snapshot == nil {
		return nil, ErrNoDataLoaded
	}
	return snapshot, nil
}

// Status reports the live snapshot's provenance for health checks.
// Loaded is false before the first successful ingestion.
func (s *ReleaseService) Status() ServiceStatus {
	snapshot := s.snapshot.Load()
	if snapshot == nil {
		return ServiceStatus{}
	}
	return ServiceStatus{
		Loaded:   true,
		Source:   snapshot.Source,
		LoadedAt: snapshot.LoadedAt,
		Releases: len(snapshot.Releases),
		Skipped:  snapshot.Skipped,
	}
}

// Query answers a filtered, paged release listing.
func (s *ReleaseService) Query(ctx context.Context, req dataprocessing.QueryRequest) (dataprocessing.QueryResult, error) {
	snapshot, err := s.current()
	if err != nil {
		return dataprocessing.QueryResult{}, err
	}
	return dataprocessing.Query(snapshot.Releases, req), nil
}

// Summary returns the per-quarter matrix and overall counts, over the
// filtered subset when the request carries filters.
func (s *ReleaseService) Summary(ctx context.Context, req dataprocessing.QueryRequest) (SummaryResponse, error) {
	snapshot, err := s.current()
	if err != nil {
		return SummaryResponse{}, err
	}
	releases := dataprocessing.Filter(snapshot.Releases, req)
	modules := make(map[string]struct{})
	quarters := make(map[domain.QuarterKey]struct{})
	newReleases := 0
	for _, release := range releases {
		if release.ModuleName != "" {
			modules[release.ModuleName] = struct{}{}
		}
		quarters[release.Quarter()] = struct{}{}
		if release.NewRelease {
			newReleases++
		}
	}
	return SummaryResponse{
		Rows:          dataprocessing.BuildSummaryMatrix(releases),
		Categories:    dataprocessing.CategoryHistogram(releases),
		Total:         len(releases),
		TotalModules:  len(modules),
		TotalQuarters: len(quarters),
		NewReleases:   newReleases,
		Source:        snapshot.Source,
		LoadedAt:      snapshot.LoadedAt,
	}, nil
}

// CategoryChart returns the category histogram over the filtered subset.
func (s *ReleaseService) CategoryChart(ctx context.Context, req dataprocessing.QueryRequest) ([]dataprocessing.CategoryCount, error) {
	snapshot, err := s.current()
	if err != nil {
		return nil, err
	}
	return dataprocessing.CategoryHistogram(dataprocessing.Filter(snapshot.Releases, req)), nil
}

// TimelineChart returns the quarterly series over the filtered subset,
// oldest quarter first.
func (s *ReleaseService) TimelineChart(ctx context.Context, req dataprocessing.QueryRequest) ([]dataprocessing.QuarterCount, error) {
	snapshot, err := s.current()
	if err != nil {
		return nil, err
	}
	return dataprocessing.QuarterlySeries(dataprocessing.Filter(snapshot.Releases, req)), nil
}

// ModuleChart returns the most active modules of the filtered subset,
// capped at limit.
func (s *ReleaseService) ModuleChart(ctx context.Context, req dataprocessing.QueryRequest, limit int) ([]dataprocessing.ModuleCount, error) {
	snapshot, err := s.current()
	if err != nil {
		return nil, err
	}
	return dataprocessing.ModuleRanking(dataprocessing.Filter(snapshot.Releases, req), limit), nil
}

// FilterOptions returns the distinct filter values in the collection.
func (s *ReleaseService) FilterOptions(ctx context.Context) (dataprocessing.FilterOptions, error) {
	snapshot, err := s.current()
	if err != nil {
		return dataprocessing.FilterOptions{}, err
	}
	return dataprocessing.BuildFilterOptions(snapshot.Releases), nil
}

// Grouped returns the quarter-grouped document used by the exporters.
func (s *ReleaseService) Grouped(ctx context.Context) (dataprocessing.GroupedDocument, error) {
	snapshot, err := s.current()
	if err != nil {
		return dataprocessing.GroupedDocument{}, err
	}
	doc := dataprocessing.GroupByQuarter(snapshot.Releases)
	if doc.Total == 0 {
		return dataprocessing.GroupedDocument{}, ErrNoReleasesToExport
	}
	return doc, nil
}
