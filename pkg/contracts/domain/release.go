package domain

import (
	"encoding/json"
	"time"
)

// DateFormat is the calendar-date wire format used everywhere a Release
// date crosses a boundary (JSON responses, exports, quarter parsing).
const DateFormat = "2006-01-02"

// Release represents one extracted release-note entry.
// Records are immutable after normalization; a re-ingestion replaces the
// whole collection rather than patching individual records.
type Release struct {
	Title      string    `json:"title" validate:"required"`
	Body       string    `json:"body"`
	Category   Category  `json:"category" validate:"required"`
	Date       time.Time `json:"-"`
	ModuleName string    `json:"module_name"`
	NewRelease bool      `json:"new_release"`
}

// Quarter returns the reporting bucket the release falls into.
func (r Release) Quarter() QuarterKey {
	return QuarterOf(r.Date)
}

// MarshalJSON serializes the date as calendar text (YYYY-MM-DD) and the
// quarter in its display form, matching the API boundary contract.
func (r Release) MarshalJSON() ([]byte, error) {
	type alias Release
	return json.Marshal(struct {
		alias
		Date    string `json:"date"`
		Quarter string `json:"quarter"`
	}{
		alias:   alias(r),
		Date:    r.Date.Format(DateFormat),
		Quarter: r.Quarter().String(),
	})
}

// Category is the fixed classification of a Release.
type Category string

const (
	CategoryBugFix      Category = "BugFix"
	CategoryEnhancement Category = "Enhancement"
	CategoryNewFeature  Category = "NewFeature"
	CategoryOther       Category = "Other"
)

// Categories lists all categories in canonical column order.
func Categories() []Category {
	return []Category{CategoryBugFix, CategoryEnhancement, CategoryNewFeature, CategoryOther}
}

// Display returns the human-readable form used in exported documents.
func (c Category) Display() string {
	switch c {
	case CategoryBugFix:
		return "Bug Fix"
	case CategoryEnhancement:
		return "Enhancement"
	case CategoryNewFeature:
		return "New Feature"
	default:
		return "Other"
	}
}

// Valid reports whether c is one of the four fixed categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryBugFix, CategoryEnhancement, CategoryNewFeature, CategoryOther:
		return true
	}
	return false
}
