// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the litfinder pipeline:
// the normalized paper Record, the merged Table, and stage configuration.
package types

import "strings"

// SourceName identifies the bibliographic API a record came from.
type SourceName string

const (
	SourceOpenAlex SourceName = "openalex"
	SourceCrossref SourceName = "crossref"
	SourceArxiv    SourceName = "arxiv"
)

// KnownSources lists every source the pipeline can query, in default order.
var KnownSources = []SourceName{SourceOpenAlex, SourceCrossref, SourceArxiv}

// ParseSourceName returns the SourceName matching s (case-insensitive) and
// whether it is known.
func ParseSourceName(s string) (SourceName, bool) {
	name := SourceName(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range KnownSources {
		if name == known {
			return name, true
		}
	}
	return "", false
}

// NameOrder records how the tokens of each author name are ordered.
type NameOrder string

const (
	// GivenFirst is "John Doe". It is the zero value and the canonical order.
	GivenFirst NameOrder = ""

	// FamilyFirst is "Doe John".
	FamilyFirst NameOrder = "family-first"
)

// Record is one paper, normalized from a provider-specific schema.
type Record struct {
	// Title is the paper title. It may be empty.
	Title string `json:"title" yaml:"title"`

	// Authors holds the display names joined with ", ".
	Authors string `json:"authors" yaml:"authors"`

	// AuthorOrder is the token order of the names in Authors as produced by
	// the adapter. The normalizer rewrites FamilyFirst names to GivenFirst.
	AuthorOrder NameOrder `json:"author_order,omitempty" yaml:"author_order,omitempty"`

	// Year is the publication year, nil when the provider has none.
	Year *int `json:"year" yaml:"year"`

	// Abstract is the abstract text. Until cleaned it may contain markup.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Journal is the venue or container name.
	Journal string `json:"journal" yaml:"journal"`

	// DOI is the normalized identifier (see NormalizeDOI). Empty means the
	// record has no identifier.
	DOI string `json:"doi" yaml:"doi"`

	// Source is provenance only and never used as a merge key.
	Source SourceName `json:"source" yaml:"source"`

	// Summary is the AI-generated summary, set only by enrichment.
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`

	// Keywords are AI-extracted keyphrases, set only by enrichment.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// Table is the merged result of a fetch. Records are in insertion order:
// source completion order, then fetch order within each source. Sources run
// concurrently, so the relative order of records from different sources is
// not deterministic between runs.
type Table struct {
	Records []Record `json:"records" yaml:"records"`

	// HasSummary reports whether the summary column exists on the table.
	HasSummary bool `json:"has_summary,omitempty" yaml:"has_summary,omitempty"`

	// HasKeywords reports whether the keywords column exists on the table.
	HasKeywords bool `json:"has_keywords,omitempty" yaml:"has_keywords,omitempty"`
}

// Len returns the number of records.
func (t Table) Len() int { return len(t.Records) }

// Column names of the fetched table and the exported table.
const (
	ColTitle    = "title"
	ColAuthors  = "authors"
	ColYear     = "year"
	ColAbstract = "abstract"
	ColSummary  = "summary"
	ColKeywords = "keywords"
	ColJournal  = "journal"
	ColDOI      = "doi"
	ColSource   = "source"
)

// BaseColumns is the fixed column set every fetched table carries.
var BaseColumns = []string{ColTitle, ColAuthors, ColYear, ColAbstract, ColJournal, ColDOI, ColSource}

// HasColumn reports whether the named column exists on the table.
func (t Table) HasColumn(name string) bool {
	switch name {
	case ColSummary:
		return t.HasSummary
	case ColKeywords:
		return t.HasKeywords
	}
	for _, c := range BaseColumns {
		if c == name {
			return true
		}
	}
	return false
}

// NormalizeDOI lower-cases a DOI and strips resolver and scheme prefixes so
// that "https://doi.org/10.1/X" and "10.1/x" compare equal.
func NormalizeDOI(doi string) string {
	d := strings.ToLower(strings.TrimSpace(doi))
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi:"} {
		if strings.HasPrefix(d, prefix) {
			d = strings.TrimSpace(d[len(prefix):])
			break
		}
	}
	return d
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }
