package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relnotes/pkg/contracts/domain"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		expected domain.Category
	}{
		{"canonical bug fixes", "Bug Fixes", domain.CategoryBugFix},
		{"canonical enhancements", "Enhancements", domain.CategoryEnhancement},
		{"canonical new features", "New Features", domain.CategoryNewFeature},
		{"canonical case insensitive", "BUG FIXES", domain.CategoryBugFix},
		{"misspelled label still matches keyword", "Bug Fixies", domain.CategoryBugFix},
		{"hotfix label", "Hotfixes", domain.CategoryBugFix},
		{"created label", "Created Modules", domain.CategoryNewFeature},
		{"improvement label", "Improvements", domain.CategoryEnhancement},
		{"update beats new", "Updated new modules", domain.CategoryEnhancement},
		{"new beats fix", "New hotfix process", domain.CategoryNewFeature},
		{"unrecognized label", "Notes", domain.CategoryOther},
		{"empty label", "", domain.CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Categorize(tt.label))
		})
	}
}

func TestCategorizeIgnoresEntryText(t *testing.T) {
	frag := Fragment{
		SectionLabel: "Notes",
		Title:        "Improved export speed",
		Body:         "updated the writer and fixed a leak",
		DateText:     "2025-03-01",
	}

	release, ok := NormalizeFragment(frag)
	require.True(t, ok)
	assert.Equal(t, domain.CategoryOther, release.Category)
}
