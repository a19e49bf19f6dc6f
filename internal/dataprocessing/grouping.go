package dataprocessing

import (
	"sort"

	"relnotes/pkg/contracts/domain"
)

// QuarterGroup is one quarter's worth of releases plus its category
// breakdown, ready for tabular export.
type QuarterGroup struct {
	Quarter  domain.QuarterKey
	Releases []domain.Release
	Counts   map[domain.Category]int
}

// GroupedDocument is the export shape: quarters newest first, releases
// inside each quarter oldest first so a reader scans a quarter in
// chronological order.
type GroupedDocument struct {
	Groups []QuarterGroup
	Total  int
}

// GroupByQuarter buckets releases into the export document structure.
func GroupByQuarter(releases []domain.Release) GroupedDocument {
	buckets := make(map[domain.QuarterKey][]domain.Release)
	for _, release := range releases {
		key := release.Quarter()
		buckets[key] = append(buckets[key], release)
	}

	quarters := make([]domain.QuarterKey, 0, len(buckets))
	for key := range buckets {
		quarters = append(quarters, key)
	}
	sort.Slice(quarters, func(i, j int) bool {
		return quarters[j].Before(quarters[i])
	})

	doc := GroupedDocument{Groups: make([]QuarterGroup, 0, len(quarters))}
	for _, quarter := range quarters {
		group := QuarterGroup{
			Quarter:  quarter,
			Releases: buckets[quarter],
			Counts:   make(map[domain.Category]int, 4),
		}
		sort.SliceStable(group.Releases, func(i, j int) bool {
			if !group.Releases[i].Date.Equal(group.Releases[j].Date) {
				return group.Releases[i].Date.Before(group.Releases[j].Date)
			}
			return group.Releases[i].Title < group.Releases[j].Title
		})
		for _, release := range group.Releases {
			group.Counts[release.Category]++
		}
		doc.Groups = append(doc.Groups, group)
		doc.Total += len(group.Releases)
	}
	return doc
}
