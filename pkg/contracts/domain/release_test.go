package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategory_Valid(t *testing.T) {
	for _, c := range Categories() {
		assert.True(t, c.Valid(), "category %s should be valid", c)
	}
	assert.False(t, Category("Hotfix").Valid())
	assert.False(t, Category("").Valid())
}

func TestCategory_Display(t *testing.T) {
	tests := []struct {
		category Category
		want     string
	}{
		{CategoryBugFix, "Bug Fix"},
		{CategoryEnhancement, "Enhancement"},
		{CategoryNewFeature, "New Feature"},
		{CategoryOther, "Other"},
		{Category("unknown"), "Other"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.category.Display())
	}
}

func TestRelease_MarshalJSON(t *testing.T) {
	rel := Release{
		Title:      "Login fix",
		Body:       "Fixed session expiry on login.",
		Category:   CategoryBugFix,
		Date:       time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC),
		ModuleName: "terraform-aws-auth",
	}

	data, err := json.Marshal(rel)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, "Login fix", got["title"])
	assert.Equal(t, "BugFix", got["category"])
	assert.Equal(t, "2025-01-15", got["date"])
	assert.Equal(t, "2025 Q1", got["quarter"])
	assert.Equal(t, "terraform-aws-auth", got["module_name"])
	assert.Equal(t, false, got["new_release"])
}

func TestRelease_Quarter(t *testing.T) {
	rel := Release{
		Title:    "Metrics endpoint",
		Category: CategoryNewFeature,
		Date:     time.Date(2024, time.November, 2, 0, 0, 0, 0, time.UTC),
	}

	assert.Equal(t, QuarterKey{Year: 2024, Quarter: 4}, rel.Quarter())
}
