// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export projects a cleaned table onto the output schema and
// writes it as CSV, JSON, or YAML.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/litfinder/pkg/types"
)

// OutputColumns is the output schema in order. Summary and keywords are
// emitted only when the table carries them.
var OutputColumns = []string{
	types.ColTitle,
	types.ColAuthors,
	types.ColYear,
	types.ColAbstract,
	types.ColSummary,
	types.ColKeywords,
	types.ColJournal,
}

// Row is one projected record.
type Row struct {
	Title    string
	Authors  string
	Year     *int
	Abstract string
	Summary  string
	Keywords string
	Journal  string
}

// Output is the projected table: the columns present and one Row per record.
type Output struct {
	Columns []string
	Rows    []Row
}

// Project selects the output columns present on table, in OutputColumns
// order. Keywords are joined with ", ".
func Project(table types.Table) Output {
	out := Output{Rows: make([]Row, 0, table.Len())}
	for _, c := range OutputColumns {
		if table.HasColumn(c) {
			out.Columns = append(out.Columns, c)
		}
	}
	for _, r := range table.Records {
		out.Rows = append(out.Rows, Row{
			Title:    r.Title,
			Authors:  r.Authors,
			Year:     r.Year,
			Abstract: r.Abstract,
			Summary:  r.Summary,
			Keywords: strings.Join(r.Keywords, ", "),
			Journal:  r.Journal,
		})
	}
	return out
}

// value returns the row's value for column as written to CSV.
func (r Row) value(column string) string {
	switch column {
	case types.ColTitle:
		return r.Title
	case types.ColAuthors:
		return r.Authors
	case types.ColYear:
		if r.Year == nil {
			return ""
		}
		return strconv.Itoa(*r.Year)
	case types.ColAbstract:
		return r.Abstract
	case types.ColSummary:
		return r.Summary
	case types.ColKeywords:
		return r.Keywords
	case types.ColJournal:
		return r.Journal
	}
	return ""
}

// field returns the row's value for column with year kept as int-or-null.
func (r Row) field(column string) any {
	if column == types.ColYear {
		if r.Year == nil {
			return nil
		}
		return *r.Year
	}
	return r.value(column)
}

// Format is an output file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat returns the Format named by s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unknown output format %q (want csv, json, or yaml)", s)
}

// Write writes out to w in the given format.
func Write(out Output, w io.Writer, format Format) error {
	switch format {
	case FormatCSV, "":
		return WriteCSV(out, w)
	case FormatJSON:
		return WriteJSON(out, w)
	case FormatYAML:
		return WriteYAML(out, w)
	}
	return fmt.Errorf("unknown output format %q", format)
}

// WriteCSV writes a header of out.Columns followed by one line per row.
func WriteCSV(out Output, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(out.Columns); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	line := make([]string, len(out.Columns))
	for _, r := range out.Rows {
		for i, c := range out.Columns {
			line[i] = r.value(c)
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// orderedRow marshals a row as a JSON object with keys in column order.
type orderedRow struct {
	columns []string
	row     Row
}

func (o orderedRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range o.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(c)
		val, err := json.Marshal(o.row.field(c))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// WriteJSON writes the rows as an indented JSON array of objects.
func WriteJSON(out Output, w io.Writer) error {
	rows := make([]orderedRow, len(out.Rows))
	for i, r := range out.Rows {
		rows[i] = orderedRow{columns: out.Columns, row: r}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// WriteYAML writes the rows as a YAML sequence of mappings with keys in
// column order.
func WriteYAML(out Output, w io.Writer) error {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, r := range out.Rows {
		m := &yaml.Node{Kind: yaml.MappingNode}
		for _, c := range out.Columns {
			var val yaml.Node
			if err := val.Encode(r.field(c)); err != nil {
				return fmt.Errorf("encoding %s: %w", c, err)
			}
			m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: c}, &val)
		}
		seq.Content = append(seq.Content, m)
	}

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(seq)
}
