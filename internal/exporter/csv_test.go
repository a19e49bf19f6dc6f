package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVWriterWriteTo(t *testing.T) {
	var buf bytes.Buffer
	writer := NewCSVWriter(nil)
	writer.BOMPrefix = false
	require.NoError(t, writer.WriteTo(&buf, testDocument()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4, "header plus three releases")

	assert.Equal(t, csvHeaders, records[0])
	assert.Equal(t, []string{"2025 Q2", "Faster exports", "Report generation updated", "Enhancement", "2025-04-02", "terraform-reporting", ""}, records[1])
	assert.Equal(t, "Login fix", records[2][1])
	assert.Equal(t, "yes", records[3][6], "new module flag")
}

func TestCSVWriterBOM(t *testing.T) {
	var buf bytes.Buffer
	writer := NewCSVWriter(nil)
	require.NoError(t, writer.WriteTo(&buf, testDocument()))

	assert.True(t, strings.HasPrefix(buf.String(), "\xEF\xBB\xBF"))
}

func TestCSVWriterWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exports", "releases.csv")
	writer := NewCSVWriter(nil)
	require.NoError(t, writer.WriteFile(path, testDocument()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Login fix")
}
