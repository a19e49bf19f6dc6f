package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMarkup = `
<h2>Release Notes</h2>
<h3><time datetime="2025-01-15"></time> | Bug Fixes</h3>
<table>
  <tr><th>Type</th><th>Service</th><th>Jira</th><th>Module</th><th>Notes</th><th>Deps</th><th>Date</th></tr>
  <tr>
    <td>Type of Release Change</td><td>Service Impacted</td><td>x</td><td>x</td><td>x</td><td>x</td><td>x</td>
  </tr>
  <tr>
    <td>Login fix</td><td>auth</td><td>JIRA-101</td><td>terraform-auth-service</td>
    <td>Fixed a session timeout on <b>login</b>.</td><td>none</td><td>2025-01-15</td>
  </tr>
  <tr>
    <td>Broken row</td><td>only three cells</td><td>x</td>
  </tr>
</table>
<h3><time datetime="2025-04-02"></time> | Enhancements</h3>
<table>
  <tr>
    <td>Faster exports</td><td>reporting</td><td>JIRA-202</td><td></td>
    <td>Report generation updated for large workbooks.</td><td>none</td><td>v3.1 2025-04-02</td>
  </tr>
</table>
<h3>Maintenance window</h3>
<p>No table in this section.</p>
`

func TestExtractorTableEntries(t *testing.T) {
	extractor := NewExtractor(sampleMarkup)

	first, ok := extractor.Next()
	require.True(t, ok)
	assert.Equal(t, "Bug Fixes", first.SectionLabel)
	assert.Equal(t, "Login fix", first.Title)
	assert.Equal(t, "Fixed a session timeout on login.", first.Body)
	assert.Equal(t, "terraform-auth-service", first.ModuleText)
	assert.Equal(t, "2025-01-15", first.DateText)
	assert.Equal(t, "2025-01-15", first.HeadingDate)

	second, ok := extractor.Next()
	require.True(t, ok)
	assert.Equal(t, "Enhancements", second.SectionLabel)
	assert.Equal(t, "Faster exports", second.Title)
	assert.Equal(t, "v3.1 2025-04-02", second.DateText)
	assert.Equal(t, "2025-04-02", second.HeadingDate)

	// The section without a table still yields a placeholder fragment.
	third, ok := extractor.Next()
	require.True(t, ok)
	assert.Equal(t, "Maintenance window", third.SectionLabel)
	assert.Equal(t, "Maintenance window", third.Title)

	_, ok = extractor.Next()
	assert.False(t, ok)
	assert.Equal(t, 1, extractor.Skipped(), "the three-cell row should be counted as skipped")
}

func TestExtractorSkipsMetadataAndHeaderRows(t *testing.T) {
	extractor := NewExtractor(sampleMarkup)

	var titles []string
	for {
		frag, ok := extractor.Next()
		if !ok {
			break
		}
		titles = append(titles, frag.Title)
	}

	assert.NotContains(t, titles, "Type of Release Change")
	assert.NotContains(t, titles, "Type")
	assert.NotContains(t, titles, "Broken row")
}

func TestExtractorBoldEntries(t *testing.T) {
	markup := `<h3><time datetime="2025-02-10"></time> | New Features</h3>
<p><strong>Dark mode</strong> The dashboard gained a dark theme.</p>
<p><strong>CSV import</strong> Bulk import of holdings from CSV.</p>`

	extractor := NewExtractor(markup)

	first, ok := extractor.Next()
	require.True(t, ok)
	assert.Equal(t, "Dark mode", first.Title)
	assert.Contains(t, first.Body, "dark theme")
	assert.Equal(t, "2025-02-10", first.HeadingDate)

	second, ok := extractor.Next()
	require.True(t, ok)
	assert.Equal(t, "CSV import", second.Title)

	_, ok = extractor.Next()
	assert.False(t, ok)
}

func TestExtractorEmptyAndMalformedInput(t *testing.T) {
	tests := []struct {
		name   string
		markup string
	}{
		{"empty", ""},
		{"no headings", "<p>just a paragraph</p>"},
		{"unterminated heading", "<h3>dangling"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := NewExtractor(tt.markup)
			_, ok := extractor.Next()
			assert.False(t, ok)
		})
	}
}

func TestDecodeExport(t *testing.T) {
	t.Run("storage envelope", func(t *testing.T) {
		raw := []byte(`{"body":{"storage":{"value":"<h3>Bug Fixes</h3>"}}}`)
		markup, records, err := DecodeExport(raw)
		require.NoError(t, err)
		assert.Equal(t, "<h3>Bug Fixes</h3>", markup)
		assert.Nil(t, records)
	})

	t.Run("itemized list", func(t *testing.T) {
		raw := []byte(`[{"Report":"Login fix","Type":"Bug Fixes","Date":"2025-01-15"}]`)
		markup, records, err := DecodeExport(raw)
		require.NoError(t, err)
		assert.Empty(t, markup)
		require.Len(t, records, 1)
		assert.Equal(t, "Login fix", records[0]["Report"])
	})

	t.Run("plain markup", func(t *testing.T) {
		markup, records, err := DecodeExport([]byte("<h3>Bug Fixes</h3>"))
		require.NoError(t, err)
		assert.Equal(t, "<h3>Bug Fixes</h3>", markup)
		assert.Nil(t, records)
	})

	t.Run("empty export fails", func(t *testing.T) {
		_, _, err := DecodeExport([]byte("   "))
		assert.Error(t, err)
	})
}

func TestCleanMarkup(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"tags stripped", "<p>hello <b>world</b></p>", "hello world"},
		{"entities collapsed", "a&nbsp;b&amp;c", "a b c"},
		{"whitespace collapsed", "  a\n\t b  ", "a b"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cleanMarkup(tt.input))
		})
	}
}
