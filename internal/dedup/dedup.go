// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup collapses duplicate records from different sources.
package dedup

import (
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"

	"github.com/pdiddy/litfinder/pkg/types"
)

// TitleThreshold is the similarity a DOI-less title must exceed to be
// treated as a duplicate of a kept record.
const TitleThreshold = 95.0

// Stats counts the records dropped by each rule.
type Stats struct {
	ByDOI   int
	ByTitle int
}

// Removed returns the total number of dropped records.
func (s Stats) Removed() int { return s.ByDOI + s.ByTitle }

// RemoveDuplicates keeps the first record for each DOI and drops DOI-less
// records whose title is more than TitleThreshold similar to any record
// kept so far. Records with a DOI are never compared by title. The order
// of kept records is preserved.
//
// DOI-less records are compared only against kept records, so a chain of
// near-identical titles (A~B, B~C, A!~C) may not collapse completely.
func RemoveDuplicates(table types.Table) (types.Table, Stats) {
	var stats Stats
	seen := make(map[string]bool)
	kept := make([]types.Record, 0, len(table.Records))
	keptTitles := make([]string, 0, len(table.Records))

	for _, r := range table.Records {
		doi := types.NormalizeDOI(r.DOI)
		title := normalizeTitle(r.Title)

		if doi != "" {
			if seen[doi] {
				stats.ByDOI++
				continue
			}
			seen[doi] = true
		} else if matchesKept(title, keptTitles) {
			stats.ByTitle++
			continue
		}

		kept = append(kept, r)
		keptTitles = append(keptTitles, title)
	}

	table.Records = kept
	return table, stats
}

func matchesKept(title string, kept []string) bool {
	if title == "" {
		return false
	}
	for _, k := range kept {
		if k != "" && TitleRatio(title, k) > TitleThreshold {
			return true
		}
	}
	return false
}

func normalizeTitle(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// TitleRatio returns the Indel similarity of a and b on a 0-100 scale:
// 100 * (1 - indel / (len(a) + len(b))), measured in runes, where indel
// counts the insertions and deletions turning a into b. A substitution
// costs two.
func TitleRatio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 100
	}
	indel := total - 2*edlib.LCS(a, b)
	return 100 * (1 - float64(indel)/float64(total))
}
