// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/litfinder/pkg/types"
)

// DefaultPreviewRows is the number of rows FormatPreview shows by default.
const DefaultPreviewRows = 20

// FormatPreview writes the first n rows of out as a human-readable table.
func FormatPreview(out Output, w io.Writer, n int) {
	if len(out.Rows) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}
	if n <= 0 {
		n = DefaultPreviewRows
	}
	n = min(n, len(out.Rows))

	has := make(map[string]bool, len(out.Columns))
	for _, c := range out.Columns {
		has[c] = true
	}

	fmt.Fprintf(w, "%-4s  %-56s  %-24s  %-4s  %-28s", "#", "Title", "Authors", "Year", "Journal")
	if has[types.ColKeywords] {
		fmt.Fprintf(w, "  %s", "Keywords")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("-", 124))

	for i, r := range out.Rows[:n] {
		year := ""
		if r.Year != nil {
			year = fmt.Sprintf("%d", *r.Year)
		}
		fmt.Fprintf(w, "%-4d  %-56s  %-24s  %-4s  %-28s", i+1,
			truncate(r.Title, 56), formatAuthors(r.Authors), year, truncate(r.Journal, 28))
		if has[types.ColKeywords] {
			fmt.Fprintf(w, "  %s", truncate(r.Keywords, 40))
		}
		fmt.Fprintln(w)
		if has[types.ColSummary] && r.Summary != "" {
			fmt.Fprintf(w, "      %s\n", truncate(r.Summary, 116))
		}
	}

	fmt.Fprintf(w, "\nshowing %d of %d results\n", n, len(out.Rows))
}

// formatAuthors shortens a ", "-joined author list to the first name and
// "et al." when there is more than one.
func formatAuthors(authors string) string {
	if authors == "" {
		return ""
	}
	names := strings.Split(authors, ", ")
	if len(names) == 1 {
		return truncate(names[0], 24)
	}
	return truncate(names[0], 17) + " et al."
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max-3]) + "..."
}
