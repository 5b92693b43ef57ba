// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/litfinder/internal/httputil"
	"github.com/pdiddy/litfinder/pkg/types"
)

// crossrefWorksBase is the Crossref Works endpoint. Declared as a var so
// tests can substitute an httptest server.
var crossrefWorksBase = "https://api.crossref.org/works"

// crossrefMaxRows is the largest rows value Crossref accepts.
const crossrefMaxRows = 1000

const crossrefSelect = "title,author,issued,abstract,container-title,DOI"

// CrossrefSource issues a single bounded request to Crossref.
type CrossrefSource struct {
	Requester *httputil.Requester
	// Mailto is sent for Crossref's polite pool.
	Mailto string
	Logger zerolog.Logger
}

// Name returns the source identifier.
func (s *CrossrefSource) Name() types.SourceName { return types.SourceCrossref }

// Fetch requests min(maxResults, 1000) rows in one page.
func (s *CrossrefSource) Fetch(ctx context.Context, query string, maxResults int) Outcome {
	if maxResults <= 0 {
		return Outcome{}
	}
	rows := min(crossrefMaxRows, maxResults)

	params := url.Values{
		"query":  {query},
		"rows":   {strconv.Itoa(rows)},
		"select": {crossrefSelect},
	}
	if s.Mailto != "" {
		params.Set("mailto", s.Mailto)
	}

	resp, err := s.Requester.Get(ctx, crossrefWorksBase+"?"+params.Encode())
	if err != nil {
		return Outcome{Err: fmt.Errorf("crossref: %w", err)}
	}
	defer resp.Body.Close()

	var cr crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return Outcome{Err: fmt.Errorf("crossref: parsing response: %w", err)}
	}
	s.Logger.Debug().Int("results", len(cr.Message.Items)).Msg("crossref page fetched")

	var records []types.Record
	for i := range cr.Message.Items {
		records = append(records, cr.Message.Items[i].toRecord())
		if len(records) >= maxResults {
			break
		}
	}
	return Outcome{Records: records}
}

func (it *crossrefItem) toRecord() types.Record {
	var names []string
	for _, a := range it.Author {
		var parts []string
		for _, p := range []string{a.Given, a.Family} {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) > 0 {
			names = append(names, strings.Join(parts, " "))
		}
	}

	return types.Record{
		Title:    firstString(it.Title),
		Authors:  strings.Join(names, ", "),
		Year:     issuedYear(it.Issued),
		Abstract: rawString(it.Abstract),
		Journal:  firstString(it.ContainerTitle),
		DOI:      types.NormalizeDOI(it.DOI),
		Source:   types.SourceCrossref,
	}
}

// issuedYear reads issued.date-parts[0][0]. Any other shape yields nil.
func issuedYear(raw json.RawMessage) *int {
	if len(raw) == 0 {
		return nil
	}
	var issued struct {
		DateParts [][]json.RawMessage `json:"date-parts"`
	}
	if err := json.Unmarshal(raw, &issued); err != nil {
		return nil
	}
	if len(issued.DateParts) == 0 || len(issued.DateParts[0]) == 0 {
		return nil
	}
	return rawYear(issued.DateParts[0][0])
}

// Crossref API JSON structures.
type crossrefResponse struct {
	Status  string          `json:"status"`
	Message crossrefMessage `json:"message"`
}

type crossrefMessage struct {
	TotalResults int            `json:"total-results"`
	Items        []crossrefItem `json:"items"`
}

type crossrefItem struct {
	Title          json.RawMessage  `json:"title"`
	Author         []crossrefAuthor `json:"author"`
	Issued         json.RawMessage  `json:"issued"`
	Abstract       json.RawMessage  `json:"abstract"`
	ContainerTitle json.RawMessage  `json:"container-title"`
	DOI            string           `json:"DOI"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}
