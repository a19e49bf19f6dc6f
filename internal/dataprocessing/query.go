package dataprocessing

import (
	"sort"
	"strings"

	"relnotes/pkg/contracts/domain"
)

// QueryRequest narrows and pages the release collection. Empty or "all"
// filter values match everything. Offset and Limit page the filtered
// result; Limit <= 0 means no cap.
type QueryRequest struct {
	Category string
	Quarter  string
	Module   string
	Search   string
	Offset   int
	Limit    int
}

// QueryResult carries one page of releases plus the total match count
// before pagination.
type QueryResult struct {
	Releases []domain.Release `json:"releases"`
	Total    int              `json:"total"`
}

// FilterOptions lists the distinct values present in the collection,
// for populating filter dropdowns.
type FilterOptions struct {
	Categories []string `json:"categories"`
	Quarters   []string `json:"quarters"`
	Modules    []string `json:"modules"`
}

// Query filters, searches, orders and pages a release collection.
// Filters apply before the search term; ordering is newest first with
// title as the tiebreaker, so pages are stable across repeated calls.
func Query(releases []domain.Release, req QueryRequest) QueryResult {
	matched := Filter(releases, req)

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.After(matched[j].Date)
		}
		return matched[i].Title < matched[j].Title
	})

	total := len(matched)
	page := paginate(matched, req.Offset, req.Limit)
	return QueryResult{Releases: page, Total: total}
}

// Filter returns the subset matching the request's filters and search
// term, in input order. Offset and Limit are ignored; aggregate views
// filter without paging.
func Filter(releases []domain.Release, req QueryRequest) []domain.Release {
	matched := make([]domain.Release, 0, len(releases))
	for _, release := range releases {
		if matchesFilters(release, req) && matchesSearch(release, req.Search) {
			matched = append(matched, release)
		}
	}
	return matched
}

// BuildFilterOptions collects the distinct filter values, categories in
// canonical order and the rest sorted.
func BuildFilterOptions(releases []domain.Release) FilterOptions {
	categorySet := make(map[domain.Category]bool)
	quarterSet := make(map[domain.QuarterKey]bool)
	moduleSet := make(map[string]bool)
	for _, release := range releases {
		categorySet[release.Category] = true
		quarterSet[release.Quarter()] = true
		if release.ModuleName != "" {
			moduleSet[release.ModuleName] = true
		}
	}

	options := FilterOptions{
		Categories: make([]string, 0, len(categorySet)),
		Quarters:   make([]string, 0, len(quarterSet)),
		Modules:    make([]string, 0, len(moduleSet)),
	}
	for _, category := range domain.Categories() {
		if categorySet[category] {
			options.Categories = append(options.Categories, string(category))
		}
	}

	quarters := make([]domain.QuarterKey, 0, len(quarterSet))
	for quarter := range quarterSet {
		quarters = append(quarters, quarter)
	}
	sort.Slice(quarters, func(i, j int) bool {
		return quarters[j].Before(quarters[i])
	})
	for _, quarter := range quarters {
		options.Quarters = append(options.Quarters, quarter.String())
	}

	for module := range moduleSet {
		options.Modules = append(options.Modules, module)
	}
	sort.Strings(options.Modules)
	return options
}

func matchesFilters(release domain.Release, req QueryRequest) bool {
	if category := normalizeFilter(req.Category); category != "" {
		if !strings.EqualFold(string(release.Category), category) {
			return false
		}
	}
	if quarter := normalizeFilter(req.Quarter); quarter != "" {
		key, err := domain.ParseQuarterKey(quarter)
		if err != nil || release.Quarter() != key {
			return false
		}
	}
	if module := normalizeFilter(req.Module); module != "" {
		if !strings.EqualFold(release.ModuleName, module) {
			return false
		}
	}
	return true
}

// matchesSearch checks the search term against title and body,
// case-insensitively.
func matchesSearch(release domain.Release, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(release.Title), term) ||
		strings.Contains(strings.ToLower(release.Body), term)
}

func normalizeFilter(value string) string {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, "all") {
		return ""
	}
	return value
}

func paginate(releases []domain.Release, offset, limit int) []domain.Release {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(releases) {
		return []domain.Release{}
	}
	releases = releases[offset:]
	if limit > 0 && limit < len(releases) {
		releases = releases[:limit]
	}
	return releases
}
