package dataprocessing

import (
	"regexp"
	"strings"
	"time"

	"relnotes/pkg/contracts/domain"
)

// Date layouts accepted in entry cells and heading attributes, tried in
// order. The wiki editor emits the first two; the rest show up in
// hand-edited pages.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"02/01/2006",
}

var (
	isoDatePattern   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	terraformPattern = regexp.MustCompile(`(?i)\bterraform-[a-z0-9][a-z0-9_-]*`)
	bracketPattern   = regexp.MustCompile(`^\[([^\]]+)\]`)
)

// NormalizeFragment converts a raw fragment into a typed Release.
// Entries without any resolvable date carry no position on the timeline
// and are dropped; the second return value reports whether the fragment
// survived.
func NormalizeFragment(frag Fragment) (domain.Release, bool) {
	date, ok := resolveDate(frag.DateText, frag.HeadingDate)
	if !ok {
		return domain.Release{}, false
	}

	title := strings.TrimSpace(frag.Title)
	body := strings.TrimSpace(frag.Body)
	if title == "" && body == "" {
		return domain.Release{}, false
	}
	if title == "" {
		title = firstWords(body, 8)
	}

	return domain.Release{
		Title:      title,
		Body:       body,
		Category:   Categorize(frag.SectionLabel),
		Date:       date,
		ModuleName: resolveModule(frag.ModuleText, title, body),
		NewRelease: isNewRelease(frag.SectionLabel, title, body),
	}, true
}

// NormalizeRecord converts one itemized record from a list-form export.
// Field names vary across export versions and are resolved through
// aliases before the usual normalization rules apply.
func NormalizeRecord(record RawRecord) (domain.Release, bool) {
	frag := Fragment{
		SectionLabel: fieldValue(record, "category", "type", "section"),
		Title:        fieldValue(record, "title", "report", "name"),
		Body:         fieldValue(record, "body", "details", "description", "release notes", "notes"),
		ModuleText:   fieldValue(record, "module_name", "module", "tfe module name", "service"),
		DateText:     fieldValue(record, "date", "release date", "version/date"),
	}
	return NormalizeFragment(frag)
}

// resolveDate parses the entry's own date cell, falling back to the
// section heading date when the cell holds no parseable value.
func resolveDate(dateText, headingDate string) (time.Time, bool) {
	if date, ok := parseDate(dateText); ok {
		return date, true
	}
	return parseDate(headingDate)
}

// parseDate extracts a date from free text. An embedded ISO token wins
// over whole-string layouts so that mixed cells like "v2.1 2025-03-04"
// still resolve.
func parseDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	if token := isoDatePattern.FindString(text); token != "" {
		if date, err := time.Parse("2006-01-02", token); err == nil {
			return date.UTC().Truncate(24 * time.Hour), true
		}
	}

	for _, layout := range dateLayouts {
		if date, err := time.Parse(layout, text); err == nil {
			return date.UTC().Truncate(24 * time.Hour), true
		}
	}
	return time.Time{}, false
}

// resolveModule determines the module a release belongs to. The
// dedicated column wins; otherwise a terraform module token or a
// bracketed title prefix is recognized.
func resolveModule(moduleText, title, body string) string {
	if module := strings.TrimSpace(moduleText); module != "" && !strings.EqualFold(module, "n/a") {
		return module
	}
	if token := terraformPattern.FindString(title); token != "" {
		return strings.ToLower(token)
	}
	if token := terraformPattern.FindString(body); token != "" {
		return strings.ToLower(token)
	}
	if m := bracketPattern.FindStringSubmatch(strings.TrimSpace(title)); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// isNewRelease flags entries announcing a brand new module.
func isNewRelease(parts ...string) bool {
	for _, part := range parts {
		if strings.Contains(strings.ToLower(part), "new module release") {
			return true
		}
	}
	return false
}

// fieldValue resolves a record field through its known aliases,
// case-insensitively.
func fieldValue(record RawRecord, aliases ...string) string {
	lowered := make(map[string]interface{}, len(record))
	for key, value := range record {
		lowered[strings.ToLower(strings.TrimSpace(key))] = value
	}
	for _, alias := range aliases {
		if value, ok := lowered[alias]; ok {
			if text := stringValue(value); text != "" {
				return text
			}
		}
	}
	return ""
}

func stringValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return ""
	}
}

// firstWords truncates text to a short title when no explicit title
// column exists.
func firstWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + "..."
}
