package dataprocessing

import (
	"strings"

	"relnotes/pkg/contracts/domain"
)

// canonicalLabels maps exact section labels to their category. Matching
// is case-insensitive after trimming.
var canonicalLabels = map[string]domain.Category{
	"bug fixes":    domain.CategoryBugFix,
	"bug fix":      domain.CategoryBugFix,
	"bugfix":       domain.CategoryBugFix,
	"bugfixes":     domain.CategoryBugFix,
	"enhancements": domain.CategoryEnhancement,
	"enhancement":  domain.CategoryEnhancement,
	"new features": domain.CategoryNewFeature,
	"new feature":  domain.CategoryNewFeature,
	"newfeature":   domain.CategoryNewFeature,
	"features":     domain.CategoryNewFeature,
}

// Categorize maps a section label to its category. Canonical labels
// resolve through the lookup table; anything else falls back to
// keyword matching on the label alone. Enhancement keywords are
// checked before feature keywords, which are checked before bug
// keywords, so "Updated new modules" lands in Enhancement. Entry
// titles and bodies never influence the category.
func Categorize(sectionLabel string) domain.Category {
	label := strings.ToLower(strings.TrimSpace(sectionLabel))
	if category, ok := canonicalLabels[label]; ok {
		return category
	}

	switch {
	case containsAny(label, "enhanc", "updat", "improv", "upgrad"):
		return domain.CategoryEnhancement
	case containsAny(label, "new", "feature", "creat", "introduc"):
		return domain.CategoryNewFeature
	case containsAny(label, "bug", "fix", "patch"):
		return domain.CategoryBugFix
	default:
		return domain.CategoryOther
	}
}

func containsAny(text string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
