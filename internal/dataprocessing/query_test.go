package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relnotes/pkg/contracts/domain"
)

func TestQueryFilters(t *testing.T) {
	releases := sampleReleases()

	tests := []struct {
		name       string
		req        QueryRequest
		wantTotal  int
		wantTitles []string
	}{
		{
			name:       "no filters returns everything newest first",
			req:        QueryRequest{},
			wantTotal:  6,
			wantTitles: []string{"Routing fix", "Faster exports", "Dark mode", "Session fix", "Login fix", "Year-end cleanup"},
		},
		{
			name:       "category filter",
			req:        QueryRequest{Category: "BugFix"},
			wantTotal:  3,
			wantTitles: []string{"Routing fix", "Session fix", "Login fix"},
		},
		{
			name:       "all is no filter",
			req:        QueryRequest{Category: "all"},
			wantTotal:  6,
			wantTitles: nil,
		},
		{
			name:       "quarter filter",
			req:        QueryRequest{Quarter: "2025 Q1"},
			wantTotal:  3,
			wantTitles: []string{"Dark mode", "Session fix", "Login fix"},
		},
		{
			name:       "module filter",
			req:        QueryRequest{Module: "terraform-auth"},
			wantTotal:  2,
			wantTitles: []string{"Session fix", "Login fix"},
		},
		{
			name:       "category and quarter combine",
			req:        QueryRequest{Category: "BugFix", Quarter: "2025 Q2"},
			wantTotal:  1,
			wantTitles: []string{"Routing fix"},
		},
		{
			name:       "search applies after filters",
			req:        QueryRequest{Category: "BugFix", Search: "session"},
			wantTotal:  1,
			wantTitles: []string{"Session fix"},
		},
		{
			name:       "search matches body",
			req:        QueryRequest{Search: "body of dark"},
			wantTotal:  1,
			wantTitles: []string{"Dark mode"},
		},
		{
			name:      "unknown quarter matches nothing",
			req:       QueryRequest{Quarter: "1800 Q1"},
			wantTotal: 0,
		},
		{
			name:      "malformed quarter matches nothing",
			req:       QueryRequest{Quarter: "sometime"},
			wantTotal: 0,
		},
		{
			name:      "unknown category matches nothing",
			req:       QueryRequest{Category: "Bogus"},
			wantTotal: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Query(releases, tt.req)
			assert.Equal(t, tt.wantTotal, result.Total)
			if tt.wantTitles != nil {
				titles := make([]string, len(result.Releases))
				for i, release := range result.Releases {
					titles[i] = release.Title
				}
				assert.Equal(t, tt.wantTitles, titles)
			}
		})
	}
}

func TestQueryPagination(t *testing.T) {
	releases := sampleReleases()

	first := Query(releases, QueryRequest{Limit: 2})
	second := Query(releases, QueryRequest{Offset: 2, Limit: 2})
	third := Query(releases, QueryRequest{Offset: 4, Limit: 2})

	assert.Equal(t, 6, first.Total)
	require.Len(t, first.Releases, 2)
	require.Len(t, second.Releases, 2)
	require.Len(t, third.Releases, 2)

	seen := make(map[string]bool)
	for _, page := range [][]domain.Release{first.Releases, second.Releases, third.Releases} {
		for _, release := range page {
			assert.False(t, seen[release.Title], "pages must not overlap: %s", release.Title)
			seen[release.Title] = true
		}
	}
	assert.Len(t, seen, 6)
}

func TestQueryPaginationStable(t *testing.T) {
	releases := sampleReleases()
	// Same-date entries must keep a deterministic order across calls.
	releases = append(releases,
		makeRelease("Alpha change", domain.CategoryOther, "2025-02-10", ""),
		makeRelease("Beta change", domain.CategoryOther, "2025-02-10", ""),
	)

	first := Query(releases, QueryRequest{})
	second := Query(releases, QueryRequest{})
	assert.Equal(t, first, second)

	// "2025-02-10" holds Alpha change, Beta change, Dark mode in title order.
	titles := make([]string, 0, 3)
	for _, release := range first.Releases {
		if release.Date.Format(domain.DateFormat) == "2025-02-10" {
			titles = append(titles, release.Title)
		}
	}
	assert.Equal(t, []string{"Alpha change", "Beta change", "Dark mode"}, titles)
}

func TestQueryPaginationBounds(t *testing.T) {
	releases := sampleReleases()

	t.Run("offset past the end", func(t *testing.T) {
		result := Query(releases, QueryRequest{Offset: 100, Limit: 10})
		assert.Equal(t, 6, result.Total)
		assert.Empty(t, result.Releases)
	})

	t.Run("negative offset treated as zero", func(t *testing.T) {
		result := Query(releases, QueryRequest{Offset: -5, Limit: 2})
		assert.Len(t, result.Releases, 2)
	})

	t.Run("zero limit means no cap", func(t *testing.T) {
		result := Query(releases, QueryRequest{Offset: 0, Limit: 0})
		assert.Len(t, result.Releases, 6)
	})
}

func TestBuildFilterOptions(t *testing.T) {
	options := BuildFilterOptions(sampleReleases())

	assert.Equal(t, []string{"BugFix", "Enhancement", "NewFeature", "Other"}, options.Categories)
	assert.Equal(t, []string{"2025 Q2", "2025 Q1", "2024 Q4"}, options.Quarters)
	assert.Equal(t, []string{"terraform-auth", "terraform-reporting", "terraform-ui", "terraform-vpc"}, options.Modules)
}

func TestBuildFilterOptionsEmpty(t *testing.T) {
	options := BuildFilterOptions(nil)
	assert.Empty(t, options.Categories)
	assert.Empty(t, options.Quarters)
	assert.Empty(t, options.Modules)
}
