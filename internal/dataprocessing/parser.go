package dataprocessing

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Fragment is one raw extracted entry: the markup text around a single
// reported change, before any normalization. SectionLabel is the text of
// the nearest preceding heading; HeadingDate is that heading's embedded
// datetime attribute, used as a fallback when the entry itself carries
// no parseable date.
type Fragment struct {
	SectionLabel string
	Title        string
	Body         string
	ModuleText   string
	DateText     string
	HeadingDate  string
}

// RawRecord is one entry of a list-form export (already itemized JSON
// rather than markup). Field names are canonicalized by the Normalizer.
type RawRecord map[string]interface{}

// exportEnvelope mirrors the wiki storage API response shape.
type exportEnvelope struct {
	Body struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
	} `json:"body"`
}

// Pre-compiled scanning patterns. The extractor walks tag boundaries by
// index; regular expressions are only used for attribute and cell capture.
var (
	timeAttrPattern  = regexp.MustCompile(`<time[^>]*datetime="([^"]+)"`)
	tableCellPattern = regexp.MustCompile(`(?s)<td[^>]*>(.*?)</td>`)
	boldTitlePattern = regexp.MustCompile(`(?s)<(strong|b)[^>]*>(.*?)</(strong|b)>`)
	htmlTagPattern   = regexp.MustCompile(`<[^>]*>`)
	entityPattern    = regexp.MustCompile(`&[a-zA-Z0-9#]+;`)
	spacePattern     = regexp.MustCompile(`\s+`)
)

// metadataMarkers identify table rows that repeat the column legend
// instead of describing a change.
var metadataMarkers = []string{
	"type of release change",
	"type of release",
	"release change",
	"service impacted",
	"jira ticket",
	"ticket id",
}

// DecodeExport unwraps the JSON envelope around a raw export. Three
// shapes are accepted: the storage API envelope (markup under
// body.storage.value), a bare JSON array of itemized records, and plain
// markup text. An empty export is an ingestion failure.
func DecodeExport(raw []byte) (string, []RawRecord, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return "", nil, fmt.Errorf("export is empty")
	}

	var envelope exportEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Body.Storage.Value != "" {
		return envelope.Body.Storage.Value, nil, nil
	}

	var records []RawRecord
	if err := json.Unmarshal(raw, &records); err == nil {
		return "", records, nil
	}

	return trimmed, nil, nil
}

// Extractor scans export markup and emits Fragments one at a time.
// It is a single forward pass: once Next returns false the extractor
// is exhausted and cannot be restarted.
type Extractor struct {
	content string
	pos     int
	buffer  []Fragment
	skipped int
}

// NewExtractor creates an extractor over the given markup.
func NewExtractor(markup string) *Extractor {
	return &Extractor{content: markup}
}

// Skipped reports how many table rows were discarded as unparseable so
// far. Only meaningful once extraction has finished.
func (e *Extractor) Skipped() int {
	return e.skipped
}

// Next returns the next fragment, or false when the export is exhausted.
// Malformed sections never abort the scan; the extractor resynchronizes
// on the next recognizable heading.
func (e *Extractor) Next() (Fragment, bool) {
	for {
		if len(e.buffer) > 0 {
			frag := e.buffer[0]
			e.buffer = e.buffer[1:]
			return frag, true
		}
		if !e.scanSection() {
			return Fragment{}, false
		}
	}
}

// scanSection advances to the next heading, extracts all entries in its
// block, and fills the buffer. Returns false at end of input.
func (e *Extractor) scanSection() bool {
	rest := e.content[e.pos:]
	start := strings.Index(rest, "<h3")
	if start == -1 {
		e.pos = len(e.content)
		return false
	}
	start += e.pos

	headEnd := strings.Index(e.content[start:], "</h3>")
	if headEnd == -1 {
		// Unterminated heading: nothing recognizable remains.
		e.pos = len(e.content)
		return false
	}
	headEnd += start + len("</h3>")
	heading := e.content[start:headEnd]

	// Block content runs until the next heading or end of input.
	blockEnd := len(e.content)
	if next := strings.Index(e.content[headEnd:], "<h3"); next != -1 {
		blockEnd = headEnd + next
	}
	block := e.content[headEnd:blockEnd]
	e.pos = blockEnd

	label, headingDate := parseHeading(heading)
	entries := e.extractTableEntries(block, label, headingDate)
	if len(entries) == 0 {
		entries = extractBoldEntries(block, label, headingDate)
	}
	if len(entries) == 0 && label != "" {
		// Section with no recognizable entries still records its heading.
		entries = []Fragment{{
			SectionLabel: label,
			Title:        label,
			Body:         "No details provided in a table format.",
			HeadingDate:  headingDate,
		}}
	}

	e.buffer = entries
	return true
}

// parseHeading pulls the section label and optional datetime attribute
// out of a heading tag. Labels of the form "<date> | <title>" keep only
// the title part.
func parseHeading(heading string) (label, date string) {
	if m := timeAttrPattern.FindStringSubmatch(heading); m != nil {
		date = m[1]
	}

	text := cleanMarkup(heading)
	if idx := strings.LastIndex(text, "|"); idx != -1 {
		text = strings.TrimSpace(text[idx+1:])
	}
	return text, date
}

// extractTableEntries parses the first table of a section block into
// fragments, one per well-formed data row.
func (e *Extractor) extractTableEntries(block, label, headingDate string) []Fragment {
	tableStart := strings.Index(block, "<table")
	if tableStart == -1 {
		return nil
	}
	tableEnd := strings.Index(block[tableStart:], "</table>")
	if tableEnd == -1 {
		tableEnd = len(block) - tableStart
	}
	table := block[tableStart : tableStart+tableEnd]

	var fragments []Fragment
	for _, row := range splitRows(table) {
		if strings.Contains(strings.ToLower(row), "<th") {
			continue
		}

		cellMatches := tableCellPattern.FindAllStringSubmatch(row, -1)
		cells := make([]string, len(cellMatches))
		for i, m := range cellMatches {
			cells[i] = cleanMarkup(m[1])
		}

		if isMetadataRow(cells) {
			continue
		}

		// Expected columns: type, service, ticket, module, notes,
		// dependencies, version/date.
		if len(cells) < 7 {
			if len(cells) > 0 {
				e.skipped++
			}
			continue
		}

		title := cells[0]
		body := cells[4]
		if title == "" && body == "" {
			e.skipped++
			continue
		}

		fragments = append(fragments, Fragment{
			SectionLabel: label,
			Title:        title,
			Body:         body,
			ModuleText:   cells[3],
			DateText:     cells[6],
			HeadingDate:  headingDate,
		})
	}
	return fragments
}

// extractBoldEntries handles sections written as bolded entry titles
// followed by free text instead of a table.
func extractBoldEntries(block, label, headingDate string) []Fragment {
	matches := boldTitlePattern.FindAllStringSubmatchIndex(block, -1)
	if len(matches) == 0 {
		return nil
	}

	var fragments []Fragment
	for i, m := range matches {
		title := cleanMarkup(block[m[4]:m[5]])
		if title == "" {
			continue
		}

		bodyStart := m[1]
		bodyEnd := len(block)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1][0]
		}

		fragments = append(fragments, Fragment{
			SectionLabel: label,
			Title:        title,
			Body:         cleanMarkup(block[bodyStart:bodyEnd]),
			HeadingDate:  headingDate,
		})
	}
	return fragments
}

// splitRows slices a table into row chunks without backtracking.
func splitRows(table string) []string {
	var rows []string
	rest := table
	for {
		start := strings.Index(rest, "<tr")
		if start == -1 {
			return rows
		}
		end := strings.Index(rest[start:], "</tr>")
		if end == -1 {
			rows = append(rows, rest[start:])
			return rows
		}
		rows = append(rows, rest[start:start+end])
		rest = rest[start+end+len("</tr>"):]
	}
}

// isMetadataRow reports whether a row repeats the column legend.
func isMetadataRow(cells []string) bool {
	if len(cells) < 2 {
		return false
	}
	for _, cell := range cells[:2] {
		lower := strings.ToLower(cell)
		for _, marker := range metadataMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return false
}

// cleanMarkup strips tags and entities and collapses whitespace,
// turning insignificant line breaks into single spaces.
func cleanMarkup(raw string) string {
	clean := htmlTagPattern.ReplaceAllString(raw, "")
	clean = entityPattern.ReplaceAllString(clean, " ")
	return strings.TrimSpace(spacePattern.ReplaceAllString(clean, " "))
}
