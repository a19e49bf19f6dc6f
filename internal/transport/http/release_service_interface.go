package http

import (
	"context"

	"relnotes/internal/dataprocessing"
	"relnotes/internal/services"
)

// ReleaseServiceInterface defines the release operations the handlers need.
type ReleaseServiceInterface interface {
	Query(ctx context.Context, req dataprocessing.QueryRequest) (dataprocessing.QueryResult, error)
	Summary(ctx context.Context, req dataprocessing.QueryRequest) (services.SummaryResponse, error)
	CategoryChart(ctx context.Context, req dataprocessing.QueryRequest) ([]dataprocessing.CategoryCount, error)
	TimelineChart(ctx context.Context, req dataprocessing.QueryRequest) ([]dataprocessing.QuarterCount, error)
	ModuleChart(ctx context.Context, req dataprocessing.QueryRequest, limit int) ([]dataprocessing.ModuleCount, error)
	FilterOptions(ctx context.Context) (dataprocessing.FilterOptions, error)
	Grouped(ctx context.Context) (dataprocessing.GroupedDocument, error)
	IngestFile(ctx context.Context, path string) (services.IngestReport, error)
	Status() services.ServiceStatus
}
