// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/pdiddy/litfinder/internal/httputil"
	"github.com/pdiddy/litfinder/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// arxivChunkSize is the number of entries requested per call.
const arxivChunkSize = 100

// FeedParser parses an Atom feed. *gofeed.Parser satisfies it.
type FeedParser interface {
	Parse(feed io.Reader) (*gofeed.Feed, error)
}

// ArxivSource pages through the arXiv Atom API with explicit start offsets.
// Without a Parser it returns no records instead of failing the fetch.
type ArxivSource struct {
	Requester *httputil.Requester
	Parser    FeedParser
	Logger    zerolog.Logger
}

// Name returns the source identifier.
func (s *ArxivSource) Name() types.SourceName { return types.SourceArxiv }

// Fetch requests chunks of up to 100 entries until maxResults is reached
// or the feed comes back empty.
func (s *ArxivSource) Fetch(ctx context.Context, query string, maxResults int) Outcome {
	if s.Parser == nil {
		s.Logger.Debug().Msg("arxiv feed parser unavailable, skipping")
		return Outcome{}
	}

	var records []types.Record
	start := 0
	for len(records) < maxResults {
		n := min(arxivChunkSize, maxResults-len(records))
		feed, err := s.fetchChunk(ctx, query, start, n)
		if err != nil {
			return Outcome{Records: records, Err: fmt.Errorf("arxiv start=%d: %w", start, err)}
		}
		if len(feed.Items) == 0 {
			break
		}
		s.Logger.Debug().Int("start", start).Int("entries", len(feed.Items)).Msg("arxiv chunk fetched")

		for _, item := range feed.Items {
			if item == nil {
				continue
			}
			records = append(records, arxivRecord(item))
			if len(records) >= maxResults {
				break
			}
		}
		start += n
	}
	return Outcome{Records: records}
}

func (s *ArxivSource) fetchChunk(ctx context.Context, query string, start, n int) (*gofeed.Feed, error) {
	params := url.Values{
		"search_query": {"all:" + query},
		"start":        {strconv.Itoa(start)},
		"max_results":  {strconv.Itoa(n)},
		"sortBy":       {"relevance"},
	}

	resp, err := s.Requester.Get(ctx, arxivAPIBase+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	feed, err := s.Parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing arXiv feed: %w", err)
	}
	return feed, nil
}

// arxivRecord maps one Atom entry. arXiv carries no DOI in the core entry,
// so DOI stays empty and duplicates are caught by title.
func arxivRecord(item *gofeed.Item) types.Record {
	var names []string
	for _, a := range item.Authors {
		if a == nil {
			continue
		}
		if name := strings.TrimSpace(a.Name); name != "" {
			names = append(names, name)
		}
	}

	r := types.Record{
		Title:    strings.Join(strings.Fields(item.Title), " "),
		Authors:  strings.Join(names, ", "),
		Abstract: strings.TrimSpace(item.Description),
		Journal:  arxivExtension(item, "journal_ref"),
		Source:   types.SourceArxiv,
	}
	if item.PublishedParsed != nil {
		r.Year = types.IntPtr(item.PublishedParsed.Year())
	}
	return r
}

// arxivExtension returns the first value of an arxiv:* element.
func arxivExtension(item *gofeed.Item, name string) string {
	ns, ok := item.Extensions["arxiv"]
	if !ok {
		return ""
	}
	for _, e := range ns[name] {
		if v := strings.TrimSpace(e.Value); v != "" {
			return v
		}
	}
	return ""
}
