package services

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relnotes/internal/config"
	"relnotes/internal/dataprocessing"
	"relnotes/pkg/contracts/domain"
)

const testMarkup = `
<h3><time datetime="2025-01-15"></time> | Bug Fixes</h3>
<table>
<tr><th>Type</th><th>Service</th><th>Jira</th><th>Module</th><th>Notes</th><th>Deps</th><th>Date</th></tr>
<tr><td>Login fix</td><td>auth</td><td>JIRA-101</td><td>terraform-auth</td><td>Fixed a session timeout.</td><td>none</td><td>2025-01-15</td></tr>
<tr><td>Session fix</td><td>auth</td><td>JIRA-102</td><td>terraform-auth</td><td>Patched token refresh.</td><td>none</td><td>2025-02-01</td></tr>
</table>
<h3><time datetime="2025-04-02"></time> | Enhancements</h3>
<table>
<tr><td>Faster exports</td><td>reporting</td><td>JIRA-202</td><td>terraform-reporting</td><td>Report generation updated.</td><td>none</td><td>2025-04-02</td></tr>
</table>
`

// wrapExport builds the storage API envelope around markup the way the
// wiki export endpoint does.
func wrapExport(t *testing.T, markup string) []byte {
	t.Helper()
	envelope := map[string]interface{}{
		"body": map[string]interface{}{
			"storage": map[string]interface{}{"value": markup},
		},
	}
	raw, err := json.Marshal(envelope)
	require.NoError(t, err)
	return raw
}

func newTestService(t *testing.T) *ReleaseService {
	t.Helper()
	cfg := &config.Config{}
	cfg.Ingest.Workers = 2
	return NewReleaseService(cfg)
}

func TestIngestMarkupExport(t *testing.T) {
	service := newTestService(t)

	report, err := service.Ingest(context.Background(), "test-export", wrapExport(t, testMarkup))
	require.NoError(t, err)
	assert.Equal(t, 3, report.Releases)
	assert.Zero(t, report.Skipped)
	assert.Zero(t, report.Dropped)

	result, err := service.Query(context.Background(), dataprocessing.QueryRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, "Faster exports", result.Releases[0].Title, "newest first")
	assert.Equal(t, domain.CategoryBugFix, result.Releases[2].Category)
}

func TestIngestFile(t *testing.T) {
	service := newTestService(t)

	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(path, wrapExport(t, testMarkup), 0o644))

	report, err := service.IngestFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, report.Source)
	assert.Equal(t, 3, report.Releases)
}

func TestIngestFileMissing(t *testing.T) {
	service := newTestService(t)

	_, err := service.IngestFile(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, ErrIngestionFailed)
}

func TestIngestItemizedRecords(t *testing.T) {
	service := newTestService(t)

	raw := []byte(`[
		{"Report":"Login fix","Details":"session timeout","Type":"Bug Fixes","Date":"2025-01-15"},
		{"Title":"Dark mode","Body":"new dashboard theme","Category":"New Features","Date":"2025-02-10"},
		{"Title":"undated entry"}
	]`)

	report, err := service.Ingest(context.Background(), "itemized", raw)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Releases)
	assert.Equal(t, 1, report.Dropped)
}

func TestQueryBeforeIngest(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	_, err := service.Query(ctx, dataprocessing.QueryRequest{})
	assert.ErrorIs(t, err, ErrNoDataLoaded)
	_, err = service.Summary(ctx, dataprocessing.QueryRequest{})
	assert.ErrorIs(t, err, ErrNoDataLoaded)
	_, err = service.CategoryChart(ctx, dataprocessing.QueryRequest{})
	assert.ErrorIs(t, err, ErrNoDataLoaded)
	_, err = service.TimelineChart(ctx, dataprocessing.QueryRequest{})
	assert.ErrorIs(t, err, ErrNoDataLoaded)
	_, err = service.ModuleChart(ctx, dataprocessing.QueryRequest{}, 10)
	assert.ErrorIs(t, err, ErrNoDataLoaded)
	_, err = service.FilterOptions(ctx)
	assert.ErrorIs(t, err, ErrNoDataLoaded)
	_, err = service.Grouped(ctx)
	assert.ErrorIs(t, err, ErrNoDataLoaded)

	assert.False(t, service.Status().Loaded)
}

func TestIngestReplacesSnapshot(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	_, err := service.Ingest(ctx, "first", wrapExport(t, testMarkup))
	require.NoError(t, err)

	replacement := []byte(`[{"Title":"Only entry","Body":"body","Category":"Other","Date":"2025-06-01"}]`)
	_, err = service.Ingest(ctx, "second", replacement)
	require.NoError(t, err)

	result, err := service.Query(ctx, dataprocessing.QueryRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total, "old snapshot must be fully replaced")
	assert.Equal(t, "Only entry", result.Releases[0].Title)

	status := service.Status()
	require.True(t, status.Loaded)
	assert.Equal(t, "second", status.Source)
	assert.Equal(t, 1, status.Releases)
}

func TestIngestIsIdempotent(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	first, err := service.Ingest(ctx, "export", wrapExport(t, testMarkup))
	require.NoError(t, err)
	second, err := service.Ingest(ctx, "export", wrapExport(t, testMarkup))
	require.NoError(t, err)

	assert.Equal(t, first.Releases, second.Releases)

	result, err := service.Query(ctx, dataprocessing.QueryRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total, "re-ingesting must not duplicate releases")
}

func TestFailedIngestKeepsPreviousSnapshot(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	_, err := service.Ingest(ctx, "good", wrapExport(t, testMarkup))
	require.NoError(t, err)

	_, err = service.Ingest(ctx, "bad", []byte("<p>nothing extractable</p>"))
	assert.ErrorIs(t, err, ErrEmptyExport)

	result, err := service.Query(ctx, dataprocessing.QueryRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total, "failed ingest must not disturb the live snapshot")

	status := service.Status()
	require.True(t, status.Loaded)
	assert.Equal(t, "good", status.Source)
}

func TestSummary(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	_, err := service.Ingest(ctx, "export", wrapExport(t, testMarkup))
	require.NoError(t, err)

	summary, err := service.Summary(ctx, dataprocessing.QueryRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.TotalModules)
	assert.Equal(t, 2, summary.TotalQuarters)
	assert.Zero(t, summary.NewReleases)
	require.Len(t, summary.Categories, 4)

	sum := 0
	for _, bar := range summary.Categories {
		sum += bar.Count
	}
	assert.Equal(t, summary.Total, sum)

	// 2025 Q2, 2025 Q1, 2025 total.
	require.Len(t, summary.Rows, 3)
	assert.Equal(t, "2025 Q2", summary.Rows[0].Label)
	assert.True(t, summary.Rows[2].YearRow)
}

func TestGrouped(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	_, err := service.Ingest(ctx, "export", wrapExport(t, testMarkup))
	require.NoError(t, err)

	doc, err := service.Grouped(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, doc.Total)
	require.Len(t, doc.Groups, 2)
	assert.Equal(t, domain.QuarterKey{Year: 2025, Quarter: 2}, doc.Groups[0].Quarter)
}

func TestFilterOptionsAfterIngest(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	_, err := service.Ingest(ctx, "export", wrapExport(t, testMarkup))
	require.NoError(t, err)

	options, err := service.FilterOptions(ctx)
	require.NoError(t, err)
	assert.Contains(t, options.Categories, "BugFix")
	assert.Contains(t, options.Quarters, "2025 Q1")
	assert.Contains(t, options.Modules, "terraform-auth")
}

func TestConcurrentQueriesDuringReingest(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	_, err := service.Ingest(ctx, "seed", wrapExport(t, testMarkup))
	require.NoError(t, err)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				result, err := service.Query(ctx, dataprocessing.QueryRequest{})
				if err != nil {
					t.Errorf("query during reingest: %v", err)
					return
				}
				if result.Total != 3 {
					t.Errorf("torn snapshot: got %d releases", result.Total)
					return
				}
			}
		}()
	}

	for i := 0; i < 25; i++ {
		_, err := service.Ingest(ctx, "reload", wrapExport(t, testMarkup))
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()
}

func TestChartsRespectFilters(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	_, err := service.Ingest(ctx, "export", wrapExport(t, testMarkup))
	require.NoError(t, err)

	histogram, err := service.CategoryChart(ctx, dataprocessing.QueryRequest{Quarter: "2025 Q1"})
	require.NoError(t, err)
	sum := 0
	for _, bar := range histogram {
		sum += bar.Count
	}
	assert.Equal(t, 2, sum)

	series, err := service.TimelineChart(ctx, dataprocessing.QueryRequest{Category: "Enhancement"})
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "2025 Q2", series[0].Label)

	ranking, err := service.ModuleChart(ctx, dataprocessing.QueryRequest{Module: "terraform-auth"}, 10)
	require.NoError(t, err)
	require.Len(t, ranking, 1)
	assert.Equal(t, 2, ranking[0].Count)
}

func TestIngestEmptyPayload(t *testing.T) {
	service := newTestService(t)

	_, err := service.Ingest(context.Background(), "empty", []byte(" \n\t"))
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.False(t, service.Status().Loaded)
}
