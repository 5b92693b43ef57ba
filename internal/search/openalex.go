// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/litfinder/internal/httputil"
	"github.com/pdiddy/litfinder/pkg/types"
)

// openAlexWorksBase is the OpenAlex Works endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexWorksBase = "https://api.openalex.org/works"

// openAlexMaxPerPage is the largest per_page OpenAlex accepts.
const openAlexMaxPerPage = 200

const openAlexSelect = "title,authorships,publication_year,abstract_inverted_index,primary_location,doi"

// OpenAlexSource pages through OpenAlex with cursor pagination.
type OpenAlexSource struct {
	Requester *httputil.Requester
	// Email is sent as mailto parameter for polite pool access.
	Email  string
	Logger zerolog.Logger
}

// Name returns the source identifier.
func (s *OpenAlexSource) Name() types.SourceName { return types.SourceOpenAlex }

// Fetch follows next_cursor until maxResults records are collected or
// OpenAlex stops returning a cursor.
func (s *OpenAlexSource) Fetch(ctx context.Context, query string, maxResults int) Outcome {
	if maxResults <= 0 {
		return Outcome{}
	}
	perPage := min(openAlexMaxPerPage, maxResults)

	var records []types.Record
	cursor := "*"
	for page := 1; len(records) < maxResults; page++ {
		resp, err := s.fetchPage(ctx, query, perPage, cursor)
		if err != nil {
			return Outcome{Records: records, Err: fmt.Errorf("openalex page %d: %w", page, err)}
		}
		s.Logger.Debug().Int("page", page).Int("results", len(resp.Results)).Msg("openalex page fetched")

		for i := range resp.Results {
			records = append(records, resp.Results[i].toRecord())
			if len(records) >= maxResults {
				break
			}
		}

		if resp.Meta.NextCursor == "" || len(resp.Results) == 0 {
			break
		}
		cursor = resp.Meta.NextCursor
	}
	return Outcome{Records: records}
}

func (s *OpenAlexSource) fetchPage(ctx context.Context, query string, perPage int, cursor string) (*openAlexResponse, error) {
	params := url.Values{
		"search":   {query},
		"per_page": {strconv.Itoa(perPage)},
		"cursor":   {cursor},
		"select":   {openAlexSelect},
	}
	if s.Email != "" {
		params.Set("mailto", s.Email)
	}

	resp, err := s.Requester.Get(ctx, openAlexWorksBase+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}
	return &oar, nil
}

func (w *openAlexWork) toRecord() types.Record {
	var names []string
	for _, a := range w.Authorships {
		if name := strings.TrimSpace(a.Author.DisplayName); name != "" {
			names = append(names, name)
		}
	}

	journal := ""
	if w.PrimaryLocation != nil && w.PrimaryLocation.Source != nil {
		journal = w.PrimaryLocation.Source.DisplayName
	}

	return types.Record{
		Title:    w.Title,
		Authors:  strings.Join(names, ", "),
		Year:     rawYear(w.PublicationYear),
		Abstract: ReconstructAbstract(w.AbstractInvertedIndex),
		Journal:  journal,
		DOI:      types.NormalizeDOI(w.DOI),
		Source:   types.SourceOpenAlex,
	}
}

// ReconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The index maps each word to the positions where it appears;
// all (word, position) pairs are sorted by position and joined with single
// spaces. Input that is not a word→positions object yields "".
func ReconstructAbstract(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var index map[string][]int
	if err := json.Unmarshal(raw, &index); err != nil || len(index) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range index {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	// Break position ties by word so output does not depend on map order.
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].pos != pairs[j].pos {
			return pairs[i].pos < pairs[j].pos
		}
		return pairs[i].word < pairs[j].word
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures. Fields whose type varies between works are
// kept raw and decoded leniently.
type openAlexResponse struct {
	Meta    openAlexMeta   `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexMeta struct {
	Count      int    `json:"count"`
	PerPage    int    `json:"per_page"`
	NextCursor string `json:"next_cursor"`
}

type openAlexWork struct {
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationYear       json.RawMessage      `json:"publication_year"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex json.RawMessage      `json:"abstract_inverted_index"`
	PrimaryLocation       *openAlexLocation    `json:"primary_location"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	DisplayName string `json:"display_name"`
}

type openAlexVenue struct {
	DisplayName string `json:"display_name"`
}

type openAlexLocation struct {
	Source *openAlexVenue `json:"source"`
}
