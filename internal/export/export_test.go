// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/litfinder/pkg/types"
)

func sampleTable() types.Table {
	return types.Table{Records: []types.Record{
		{
			Title:    "Quantum Cryptography Advances",
			Authors:  "Alice Smith, Bob Jones",
			Year:     types.IntPtr(2021),
			Abstract: "Keys, \"quoted\" and\nmultiline.",
			Journal:  "Physical Review",
			DOI:      "10.1/qc",
			Source:   types.SourceCrossref,
			Summary:  "Short summary.",
			Keywords: []string{"qkd", "lattice"},
		},
		{
			Title:  "Robotics in Manufacturing",
			Source: types.SourceArxiv,
		},
	}}
}

func TestProjectWithoutEnrichmentColumns(t *testing.T) {
	out := Project(sampleTable())
	assert.Equal(t, []string{"title", "authors", "year", "abstract", "journal"}, out.Columns)
	require.Len(t, out.Rows, 2)
	assert.Nil(t, out.Rows[1].Year)
}

func TestProjectWithEnrichmentColumns(t *testing.T) {
	tests := []struct {
		name     string
		summary  bool
		keywords bool
		want     []string
	}{
		{"summary only", true, false, []string{"title", "authors", "year", "abstract", "summary", "journal"}},
		{"keywords only", false, true, []string{"title", "authors", "year", "abstract", "keywords", "journal"}},
		{"both", true, true, []string{"title", "authors", "year", "abstract", "summary", "keywords", "journal"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := sampleTable()
			table.HasSummary = tt.summary
			table.HasKeywords = tt.keywords
			out := Project(table)
			assert.Equal(t, tt.want, out.Columns)
			assert.Equal(t, "qkd, lattice", out.Rows[0].Keywords)
		})
	}
}

func TestProjectEmptyTable(t *testing.T) {
	out := Project(types.Table{})
	assert.Equal(t, []string{"title", "authors", "year", "abstract", "journal"}, out.Columns)
	assert.Empty(t, out.Rows)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(out, &buf))
	assert.Equal(t, "title,authors,year,abstract,journal\n", buf.String())
}

func TestWriteCSV(t *testing.T) {
	table := sampleTable()
	table.HasSummary = true
	out := Project(table)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(out, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"title", "authors", "year", "abstract", "summary", "journal"}, records[0])
	assert.Equal(t, []string{
		"Quantum Cryptography Advances", "Alice Smith, Bob Jones", "2021",
		"Keys, \"quoted\" and\nmultiline.", "Short summary.", "Physical Review",
	}, records[1])
	assert.Equal(t, "", records[2][2], "null year is an empty cell")
}

func TestWriteJSON(t *testing.T) {
	table := sampleTable()
	table.HasKeywords = true
	out := Project(table)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(out, &buf))

	text := buf.String()
	assert.Less(t, strings.Index(text, `"abstract"`), strings.Index(text, `"keywords"`))
	assert.Less(t, strings.Index(text, `"keywords"`), strings.Index(text, `"journal"`))
	assert.NotContains(t, text, `"summary"`)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, 2021.0, rows[0]["year"])
	assert.Nil(t, rows[1]["year"])
	assert.Equal(t, "qkd, lattice", rows[0]["keywords"])
}

func TestWriteYAML(t *testing.T) {
	out := Project(sampleTable())

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(out, &buf))

	text := buf.String()
	assert.True(t, strings.HasPrefix(text, "- title: Quantum Cryptography Advances"), text)

	var rows []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, 2021, rows[0]["year"])
	assert.Nil(t, rows[1]["year"])
	assert.Equal(t, "Physical Review", rows[0]["journal"])
}

func TestWriteDispatch(t *testing.T) {
	out := Project(sampleTable())
	for _, f := range []Format{FormatCSV, FormatJSON, FormatYAML} {
		var buf bytes.Buffer
		assert.NoError(t, Write(out, &buf, f), "format %s", f)
		assert.NotEmpty(t, buf.String())
	}
	assert.Error(t, Write(out, &bytes.Buffer{}, "xlsx"))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"csv", FormatCSV, false},
		{"JSON", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"", FormatCSV, false},
		{"xlsx", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestFormatPreview(t *testing.T) {
	table := sampleTable()
	table.HasSummary = true
	out := Project(table)

	var buf bytes.Buffer
	FormatPreview(out, &buf, 1)
	text := buf.String()
	assert.Contains(t, text, "Quantum Cryptography Advances")
	assert.Contains(t, text, "Alice Smith et al.")
	assert.Contains(t, text, "Short summary.")
	assert.NotContains(t, text, "Robotics")
	assert.Contains(t, text, "showing 1 of 2 results")

	buf.Reset()
	FormatPreview(Project(types.Table{}), &buf, 20)
	assert.Equal(t, "No results found.\n", buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "éééé...", truncate("éééééééééé", 7))
}
