// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litfinder/internal/observability"
	"github.com/pdiddy/litfinder/pkg/types"
)

func TestMain(m *testing.M) {
	backoffBase = time.Millisecond
	os.Exit(m.Run())
}

// --- mocks ---

type mockSummarizer struct {
	mu       sync.Mutex
	texts    []string
	maxWords int
	fail     map[string]bool // abstracts that always fail
	failOnce atomic.Bool     // first call fails, later calls succeed

	inFlight, peak atomic.Int32
	delay          time.Duration
}

func (m *mockSummarizer) Summarize(_ context.Context, text string, opts SummaryOptions) (string, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.maxWords = opts.MaxWords
	m.mu.Unlock()

	if m.fail[text] {
		return "", errors.New("model unavailable")
	}
	if m.failOnce.CompareAndSwap(true, false) {
		return "", errors.New("transient")
	}
	return "summary of " + text, nil
}

type mockExtractor struct {
	mu    sync.Mutex
	texts []string
	topN  int
	err   error
	reply []string
}

func (m *mockExtractor) ExtractKeywords(_ context.Context, text string, topN int) ([]string, error) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.topN = topN
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.reply, nil
}

func tableOf(abstracts ...string) *types.Table {
	t := &types.Table{}
	for i, a := range abstracts {
		t.Records = append(t.Records, types.Record{Title: fmt.Sprintf("paper %d", i), Abstract: a})
	}
	return t
}

// --- SelectRows ---

func TestSelectRows(t *testing.T) {
	tests := []struct {
		n, preview int
		all        bool
		want       int
	}{
		{100, 20, false, 20},
		{5, 20, false, 5},
		{100, 20, true, 100},
		{100, 0, false, DefaultPreviewCount},
		{0, 20, false, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SelectRows(tt.n, tt.preview, tt.all), "SelectRows(%d, %d, %v)", tt.n, tt.preview, tt.all)
	}
}

// --- Enrich ---

func TestEnrichDisabledLeavesTableUntouched(t *testing.T) {
	table := tableOf("a", "b")
	e := &Enricher{Logger: zerolog.Nop()}

	report, err := e.Enrich(context.Background(), table)
	require.NoError(t, err)
	assert.Equal(t, Report{}, report)
	assert.False(t, table.HasSummary)
	assert.False(t, table.HasKeywords)
}

func TestEnrichSummariesPreviewOnly(t *testing.T) {
	table := tableOf("alpha", "", "gamma", "delta")
	sum := &mockSummarizer{}
	e := &Enricher{
		Summarizer: sum,
		Config:     types.EnrichConfig{Summaries: true, PreviewCount: 3, SummaryWords: 500},
		Logger:     zerolog.Nop(),
	}

	report, err := e.Enrich(context.Background(), table)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Rows)
	assert.True(t, table.HasSummary)
	assert.False(t, table.HasKeywords)

	assert.Equal(t, "summary of alpha", table.Records[0].Summary)
	assert.Equal(t, NoAbstract, table.Records[1].Summary)
	assert.Equal(t, "summary of gamma", table.Records[2].Summary)
	assert.Empty(t, table.Records[3].Summary, "rows outside the preview stay empty")

	assert.ElementsMatch(t, []string{"alpha", "gamma"}, sum.texts, "empty abstracts never reach the model")
	assert.Equal(t, MaxSummaryWords, sum.maxWords)
}

func TestEnrichSummaryFailureUsesPlaceholder(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	table := tableOf("good", "bad")
	sum := &mockSummarizer{fail: map[string]bool{"bad": true}}
	e := &Enricher{
		Summarizer: sum,
		Config:     types.EnrichConfig{Summaries: true, ProcessAll: true, AIConfig: types.AIConfig{MaxRetries: 1}},
		Logger:     zerolog.Nop(),
		Metrics:    metrics,
	}

	report, err := e.Enrich(context.Background(), table)
	require.NoError(t, err)
	assert.Equal(t, 1, report.SummaryFailures)
	assert.Equal(t, "summary of good", table.Records[0].Summary)
	assert.Equal(t, SummaryUnavailable, table.Records[1].Summary)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EnrichmentFailures.WithLabelValues("summary")))

	calls := 0
	for _, text := range sum.texts {
		if text == "bad" {
			calls++
		}
	}
	assert.Equal(t, 2, calls, "one attempt plus one retry")
}

func TestEnrichZeroRetriesCallsOnce(t *testing.T) {
	table := tableOf("bad")
	sum := &mockSummarizer{fail: map[string]bool{"bad": true}}
	e := &Enricher{
		Summarizer: sum,
		Config:     types.EnrichConfig{Summaries: true},
		Logger:     zerolog.Nop(),
	}

	report, err := e.Enrich(context.Background(), table)
	require.NoError(t, err)
	assert.Equal(t, 1, report.SummaryFailures)
	assert.Len(t, sum.texts, 1)
}

func TestEnrichRetriesTransientFailure(t *testing.T) {
	table := tableOf("alpha")
	sum := &mockSummarizer{}
	sum.failOnce.Store(true)
	e := &Enricher{
		Summarizer: sum,
		Config:     types.EnrichConfig{Summaries: true, AIConfig: types.AIConfig{MaxRetries: -1}},
		Logger:     zerolog.Nop(),
	}

	report, err := e.Enrich(context.Background(), table)
	require.NoError(t, err)
	assert.Zero(t, report.SummaryFailures)
	assert.Equal(t, "summary of alpha", table.Records[0].Summary)
}

func TestEnrichKeywords(t *testing.T) {
	long := strings.Repeat("é", keywordTextLimit+50)
	table := tableOf("quantum keys", "   ", long)
	ext := &mockExtractor{reply: []string{"a", "b", "c", "d"}}
	e := &Enricher{
		Keywords: ext,
		Config:   types.EnrichConfig{Keywords: true, TopN: 3},
		Logger:   zerolog.Nop(),
	}

	_, err := e.Enrich(context.Background(), table)
	require.NoError(t, err)
	assert.True(t, table.HasKeywords)
	assert.False(t, table.HasSummary)

	assert.Equal(t, []string{"a", "b", "c"}, table.Records[0].Keywords)
	assert.Empty(t, table.Records[1].Keywords, "blank text yields no keywords")
	assert.Equal(t, 3, ext.topN)

	require.Len(t, ext.texts, 2)
	for _, text := range ext.texts {
		assert.LessOrEqual(t, utf8.RuneCountInString(text), keywordTextLimit)
	}
}

func TestEnrichKeywordFailureYieldsEmptyList(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	table := tableOf("quantum keys")
	e := &Enricher{
		Keywords: &mockExtractor{err: errors.New("quota exceeded")},
		Config:   types.EnrichConfig{Keywords: true},
		Logger:   zerolog.Nop(),
		Metrics:  metrics,
	}

	report, err := e.Enrich(context.Background(), table)
	require.NoError(t, err)
	assert.Equal(t, 1, report.KeywordFailures)
	assert.Empty(t, table.Records[0].Keywords)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EnrichmentFailures.WithLabelValues("keywords")))
}

func TestEnrichBoundsConcurrency(t *testing.T) {
	abstracts := make([]string, 12)
	for i := range abstracts {
		abstracts[i] = fmt.Sprintf("abstract %d", i)
	}
	table := tableOf(abstracts...)
	sum := &mockSummarizer{delay: 10 * time.Millisecond}
	e := &Enricher{
		Summarizer: sum,
		Config:     types.EnrichConfig{Summaries: true, ProcessAll: true, Concurrency: 2},
		Logger:     zerolog.Nop(),
	}

	_, err := e.Enrich(context.Background(), table)
	require.NoError(t, err)
	assert.LessOrEqual(t, sum.peak.Load(), int32(2))
	for i, r := range table.Records {
		assert.Equal(t, "summary of "+abstracts[i], r.Summary)
	}
}

func TestEnrichMissingBackend(t *testing.T) {
	e := &Enricher{Config: types.EnrichConfig{Summaries: true}, Logger: zerolog.Nop()}
	_, err := e.Enrich(context.Background(), tableOf("x"))
	assert.ErrorContains(t, err, "no summarizer")

	e = &Enricher{Config: types.EnrichConfig{Keywords: true}, Logger: zerolog.Nop()}
	_, err = e.Enrich(context.Background(), tableOf("x"))
	assert.ErrorContains(t, err, "no keyword extractor")
}

func TestEnrichCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := &Enricher{
		Summarizer: &mockSummarizer{},
		Config:     types.EnrichConfig{Summaries: true},
		Logger:     zerolog.Nop(),
	}
	_, err := e.Enrich(ctx, tableOf("x", "y"))
	assert.ErrorIs(t, err, context.Canceled)
}

// --- helpers ---

func TestClampWords(t *testing.T) {
	assert.Equal(t, DefaultSummaryWords, clampWords(0))
	assert.Equal(t, MinSummaryWords, clampWords(5))
	assert.Equal(t, 90, clampWords(90))
	assert.Equal(t, MaxSummaryWords, clampWords(1000))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abcdef", 3))
	assert.Equal(t, "ab", truncateRunes("ab", 3))
	assert.Equal(t, "éé", truncateRunes("ééé", 2))
}
