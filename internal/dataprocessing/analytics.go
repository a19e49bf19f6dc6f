package dataprocessing

import (
	"fmt"
	"sort"

	"relnotes/pkg/contracts/domain"
)

// CategoryCount is one bar of the category histogram.
type CategoryCount struct {
	Category domain.Category `json:"category"`
	Label    string          `json:"label"`
	Count    int             `json:"count"`
}

// QuarterCount is one point of the quarterly timeline.
type QuarterCount struct {
	Quarter domain.QuarterKey `json:"quarter"`
	Label   string            `json:"label"`
	Count   int               `json:"count"`
}

// ModuleCount is one row of the module ranking.
type ModuleCount struct {
	Module string `json:"module"`
	Count  int    `json:"count"`
}

// SummaryRow is one line of the per-quarter summary matrix. Total rows
// aggregate a whole year and carry Quarter.Quarter == 0.
type SummaryRow struct {
	Quarter domain.QuarterKey       `json:"quarter"`
	Label   string                  `json:"label"`
	Counts  map[domain.Category]int `json:"counts"`
	Total   int                     `json:"total"`
	YearRow bool                    `json:"year_row,omitempty"`
}

// CategoryHistogram counts releases per category in canonical column
// order. Every category appears even when its count is zero, so the
// bucket counts always sum to the number of releases.
func CategoryHistogram(releases []domain.Release) []CategoryCount {
	counts := make(map[domain.Category]int, 4)
	for _, release := range releases {
		counts[release.Category]++
	}

	histogram := make([]CategoryCount, 0, len(domain.Categories()))
	for _, category := range domain.Categories() {
		histogram = append(histogram, CategoryCount{
			Category: category,
			Label:    category.Display(),
			Count:    counts[category],
		})
	}
	return histogram
}

// QuarterlySeries counts releases per quarter, ascending in time. Only
// quarters that actually contain releases appear.
func QuarterlySeries(releases []domain.Release) []QuarterCount {
	counts := make(map[domain.QuarterKey]int)
	for _, release := range releases {
		counts[release.Quarter()]++
	}

	series := make([]QuarterCount, 0, len(counts))
	for quarter, count := range counts {
		series = append(series, QuarterCount{Quarter: quarter, Label: quarter.String(), Count: count})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Quarter.Before(series[j].Quarter)
	})
	return series
}

// ModuleRanking counts releases per module, most active first. Ties
// break alphabetically; releases without a module are excluded.
func ModuleRanking(releases []domain.Release, limit int) []ModuleCount {
	counts := make(map[string]int)
	for _, release := range releases {
		if release.ModuleName != "" {
			counts[release.ModuleName]++
		}
	}

	ranking := make([]ModuleCount, 0, len(counts))
	for module, count := range counts {
		ranking = append(ranking, ModuleCount{Module: module, Count: count})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Count != ranking[j].Count {
			return ranking[i].Count > ranking[j].Count
		}
		return ranking[i].Module < ranking[j].Module
	})

	if limit > 0 && len(ranking) > limit {
		ranking = ranking[:limit]
	}
	return ranking
}

// BuildSummaryMatrix produces the per-quarter category breakdown, most
// recent quarter first, with a year total row after each year's last
// listed quarter.
func BuildSummaryMatrix(releases []domain.Release) []SummaryRow {
	buckets := make(map[domain.QuarterKey]*quarterBucket)
	for _, release := range releases {
		key := release.Quarter()
		b, ok := buckets[key]
		if !ok {
			b = &quarterBucket{counts: make(map[domain.Category]int, 4)}
			buckets[key] = b
		}
		b.counts[release.Category]++
		b.total++
	}

	quarters := make([]domain.QuarterKey, 0, len(buckets))
	for key := range buckets {
		quarters = append(quarters, key)
	}
	sort.Slice(quarters, func(i, j int) bool {
		return quarters[j].Before(quarters[i])
	})

	var rows []SummaryRow
	for i, quarter := range quarters {
		b := buckets[quarter]
		rows = append(rows, SummaryRow{
			Quarter: quarter,
			Label:   quarter.String(),
			Counts:  copyCounts(b.counts),
			Total:   b.total,
		})

		// Close out the year when the next quarter belongs to another.
		if i+1 == len(quarters) || quarters[i+1].Year != quarter.Year {
			rows = append(rows, yearTotal(quarter.Year, quarters, buckets))
		}
	}
	return rows
}

type quarterBucket struct {
	counts map[domain.Category]int
	total  int
}

func yearTotal(year int, quarters []domain.QuarterKey, buckets map[domain.QuarterKey]*quarterBucket) SummaryRow {
	row := SummaryRow{
		Quarter: domain.QuarterKey{Year: year},
		Label:   fmt.Sprintf("%d Total", year),
		Counts:  make(map[domain.Category]int, 4),
		YearRow: true,
	}
	for _, quarter := range quarters {
		if quarter.Year != year {
			continue
		}
		b := buckets[quarter]
		for category, count := range b.counts {
			row.Counts[category] += count
		}
		row.Total += b.total
	}
	return row
}

func copyCounts(counts map[domain.Category]int) map[domain.Category]int {
	out := make(map[domain.Category]int, len(counts))
	for category, count := range counts {
		out[category] = count
	}
	return out
}
