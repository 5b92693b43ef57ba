// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package clean normalizes text fields of fetched records: markup is
// stripped from abstracts and author names are put in given-first order.
package clean

import (
	"regexp"
	"strings"

	"github.com/pdiddy/litfinder/pkg/types"
)

// tagPattern matches one angle-bracket tag, non-greedy.
var tagPattern = regexp.MustCompile(`<[^<]+?>`)

// CleanAbstractMarkup removes every <...> tag from text. Entities such as
// &amp; are left alone. Cleaning clean text is a no-op.
func CleanAbstractMarkup(text string) string {
	if text == "" {
		return ""
	}
	return tagPattern.ReplaceAllString(text, "")
}

// NormalizeAuthorOrder reverses the whitespace-separated tokens of each
// comma-separated name, turning "Doe John, Roe Jane" into
// "John Doe, Jane Roe". Single-token names pass through unchanged.
func NormalizeAuthorOrder(names string) string {
	if strings.TrimSpace(names) == "" {
		return ""
	}

	var out []string
	for _, name := range strings.Split(names, ",") {
		tokens := strings.Fields(name)
		if len(tokens) == 0 {
			continue
		}
		for i, j := 0, len(tokens)-1; i < j; i, j = i+1, j-1 {
			tokens[i], tokens[j] = tokens[j], tokens[i]
		}
		out = append(out, strings.Join(tokens, " "))
	}
	return strings.Join(out, ", ")
}

// Normalize cleans every abstract in place and rewrites family-first author
// lists to given-first. Records already given-first keep their names, so
// running Normalize twice changes nothing.
func Normalize(table *types.Table) {
	for i := range table.Records {
		r := &table.Records[i]
		r.Abstract = CleanAbstractMarkup(r.Abstract)
		if r.AuthorOrder == types.FamilyFirst {
			r.Authors = NormalizeAuthorOrder(r.Authors)
			r.AuthorOrder = types.GivenFirst
		}
	}
}
