// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litfinder/pkg/types"
)

const arxivFeedHead = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <title>ArXiv Query</title>
  <id>http://arxiv.org/api/test</id>
  <updated>2024-01-01T00:00:00Z</updated>
`

const arxivEntryQuantum = `
  <entry>
    <id>http://arxiv.org/abs/2101.00001v1</id>
    <published>2021-01-04T12:00:00Z</published>
    <updated>2021-01-05T12:00:00Z</updated>
    <title>Quantum Key
      Distribution   at Scale</title>
    <summary>  We study quantum key distribution.
    </summary>
    <author><name>Alice Smith</name></author>
    <author><name>Bob Jones</name></author>
    <arxiv:journal_ref>Phys. Rev. A 100, 1 (2021)</arxiv:journal_ref>
  </entry>
`

const arxivEntryRobotics = `
  <entry>
    <id>http://arxiv.org/abs/2202.00002v1</id>
    <published>2022-02-02T00:00:00Z</published>
    <updated>2022-02-02T00:00:00Z</updated>
    <title>Robotics in Manufacturing</title>
    <summary>Robots build things.</summary>
    <author><name>Carol White</name></author>
  </entry>
`

const arxivEntryPQ = `
  <entry>
    <id>http://arxiv.org/abs/1903.00003v2</id>
    <published>2019-03-03T00:00:00Z</published>
    <updated>2019-03-03T00:00:00Z</updated>
    <title>Post-Quantum Signatures</title>
    <summary>Lattices.</summary>
  </entry>
`

func arxivFeed(entries ...string) string {
	return arxivFeedHead + strings.Join(entries, "") + "</feed>"
}

type arxivCall struct {
	start, maxResults, query string
}

// arxivServer serves two entries at start=0, one at start=100, and an
// empty feed afterwards.
func arxivServer(t *testing.T, calls *[]arxivCall, mu *sync.Mutex) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		mu.Lock()
		*calls = append(*calls, arxivCall{q.Get("start"), q.Get("max_results"), q.Get("search_query")})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/atom+xml")
		switch q.Get("start") {
		case "0":
			fmt.Fprint(w, arxivFeed(arxivEntryQuantum, arxivEntryRobotics))
		case "100":
			fmt.Fprint(w, arxivFeed(arxivEntryPQ))
		default:
			fmt.Fprint(w, arxivFeed())
		}
	}))
}

func withArxivBase(t *testing.T, url string) {
	t.Helper()
	old := arxivAPIBase
	arxivAPIBase = url
	t.Cleanup(func() { arxivAPIBase = old })
}

func TestArxivFetchChunksUntilEmpty(t *testing.T) {
	var (
		calls []arxivCall
		mu    sync.Mutex
	)
	ts := arxivServer(t, &calls, &mu)
	defer ts.Close()
	withArxivBase(t, ts.URL)

	s := &ArxivSource{Requester: testRequester(ts), Parser: gofeed.NewParser(), Logger: zerolog.Nop()}
	out := s.Fetch(context.Background(), "quantum", 250)
	require.NoError(t, out.Err)
	require.Len(t, out.Records, 3)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, calls, 3)
	assert.Equal(t, arxivCall{"0", "100", "all:quantum"}, calls[0])
	assert.Equal(t, arxivCall{"100", "100", "all:quantum"}, calls[1])
	assert.Equal(t, "200", calls[2].start)

	r0 := out.Records[0]
	assert.Equal(t, "Quantum Key Distribution at Scale", r0.Title)
	assert.Equal(t, "Alice Smith, Bob Jones", r0.Authors)
	assert.Equal(t, "We study quantum key distribution.", r0.Abstract)
	assert.Equal(t, "Phys. Rev. A 100, 1 (2021)", r0.Journal)
	require.NotNil(t, r0.Year)
	assert.Equal(t, 2021, *r0.Year)
	assert.Empty(t, r0.DOI)
	assert.Equal(t, types.SourceArxiv, r0.Source)

	assert.Empty(t, out.Records[1].Journal)
	assert.Empty(t, out.Records[2].Authors)
	require.NotNil(t, out.Records[2].Year)
	assert.Equal(t, 2019, *out.Records[2].Year)
}

func TestArxivFetchStopsAtMaxResults(t *testing.T) {
	var (
		calls []arxivCall
		mu    sync.Mutex
	)
	ts := arxivServer(t, &calls, &mu)
	defer ts.Close()
	withArxivBase(t, ts.URL)

	s := &ArxivSource{Requester: testRequester(ts), Parser: gofeed.NewParser(), Logger: zerolog.Nop()}
	out := s.Fetch(context.Background(), "quantum", 1)
	require.NoError(t, out.Err)
	assert.Len(t, out.Records, 1)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, calls, 1)
	assert.Equal(t, "1", calls[0].maxResults)
}

func TestArxivFetchWithoutParser(t *testing.T) {
	s := &ArxivSource{Logger: zerolog.Nop()}
	out := s.Fetch(context.Background(), "quantum", 50)
	assert.NoError(t, out.Err)
	assert.Empty(t, out.Records)
	assert.Equal(t, "empty", out.Status())
}

func TestArxivFetchKeepsEarlierChunksOnFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("start") == "0" {
			fmt.Fprint(w, arxivFeed(arxivEntryQuantum))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()
	withArxivBase(t, ts.URL)

	s := &ArxivSource{Requester: testRequester(ts), Parser: gofeed.NewParser(), Logger: zerolog.Nop()}
	out := s.Fetch(context.Background(), "quantum", 200)
	require.Error(t, out.Err)
	assert.Contains(t, out.Err.Error(), "start=100")
	assert.Len(t, out.Records, 1)
	assert.Equal(t, "partial", out.Status())
}

func TestArxivFetchMalformedFeed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "this is not xml")
	}))
	defer ts.Close()
	withArxivBase(t, ts.URL)

	s := &ArxivSource{Requester: testRequester(ts), Parser: gofeed.NewParser(), Logger: zerolog.Nop()}
	out := s.Fetch(context.Background(), "quantum", 50)
	require.Error(t, out.Err)
	assert.Empty(t, out.Records)
}
