// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich adds AI-generated summaries and keyphrases to fetched
// records. The AI calls sit behind small interfaces so tests and other
// providers can replace them; a failed call only affects its own row.
package enrich

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/litfinder/internal/observability"
	"github.com/pdiddy/litfinder/pkg/types"
)

// Placeholders written instead of a summary.
const (
	NoAbstract         = "No abstract provided."
	SummaryUnavailable = "Summary unavailable."
)

const (
	DefaultSummaryWords = 60
	MinSummaryWords     = 30
	MaxSummaryWords     = 160
	DefaultTopN         = 5
	DefaultPreviewCount = 20
	DefaultConcurrency  = 4
	defaultMaxRetries   = 2

	// keywordTextLimit is the number of leading characters of an abstract
	// sent for keyword extraction.
	keywordTextLimit = 1000
)

// SummaryOptions tunes one summary call.
type SummaryOptions struct {
	MaxWords int
}

// Summarizer produces a short summary of an abstract.
type Summarizer interface {
	Summarize(ctx context.Context, text string, opts SummaryOptions) (string, error)
}

// KeywordExtractor returns up to topN keyphrases for a text.
type KeywordExtractor interface {
	ExtractKeywords(ctx context.Context, text string, topN int) ([]string, error)
}

// Report counts what an enrichment run did.
type Report struct {
	// Rows is the number of records selected for enrichment.
	Rows int

	SummaryFailures int
	KeywordFailures int
}

// Enricher runs the configured enrichments over a table with bounded
// concurrency. Each goroutine writes only its own record.
type Enricher struct {
	Summarizer Summarizer
	Keywords   KeywordExtractor
	Config     types.EnrichConfig
	Logger     zerolog.Logger
	Metrics    *observability.Metrics
}

// backoffBase controls the base duration for exponential backoff between
// AI call attempts. Tests override this to avoid real sleeps.
var backoffBase = time.Second

// SelectRows returns how many leading rows of an n-row table are enriched:
// all of them when processAll is set, otherwise min(preview, n).
func SelectRows(n, preview int, processAll bool) int {
	if processAll {
		return n
	}
	if preview <= 0 {
		preview = DefaultPreviewCount
	}
	return min(preview, n)
}

// Enrich adds the requested columns to table and fills them for the
// selected rows. Rows outside the selection keep empty values. A failed
// call leaves a placeholder in its row and is counted in the report; the
// only error returned is context cancellation or a missing backend.
func (e *Enricher) Enrich(ctx context.Context, table *types.Table) (Report, error) {
	cfg := e.Config
	if !cfg.Enabled() {
		return Report{}, nil
	}
	if cfg.Summaries && e.Summarizer == nil {
		return Report{}, fmt.Errorf("summaries requested but no summarizer configured")
	}
	if cfg.Keywords && e.Keywords == nil {
		return Report{}, fmt.Errorf("keywords requested but no keyword extractor configured")
	}

	table.HasSummary = table.HasSummary || cfg.Summaries
	table.HasKeywords = table.HasKeywords || cfg.Keywords

	rows := SelectRows(table.Len(), cfg.PreviewCount, cfg.ProcessAll)
	report := Report{Rows: rows}
	if rows == 0 {
		return report, nil
	}

	maxWords := clampWords(cfg.SummaryWords)
	topN := cfg.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}
	limit := cfg.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = defaultMaxRetries
	}

	e.Logger.Info().Int("rows", rows).Bool("summaries", cfg.Summaries).Bool("keywords", cfg.Keywords).Msg("enriching records")

	var summaryFailures, keywordFailures atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := 0; i < rows; i++ {
		r := &table.Records[i]
		g.Go(func() error {
			if cfg.Summaries {
				summary, err := e.summarize(gctx, r.Abstract, SummaryOptions{MaxWords: maxWords}, retries)
				if err != nil {
					summaryFailures.Add(1)
					e.Metrics.ObserveEnrichmentFailure("summary")
					e.Logger.Warn().Err(err).Int("row", i).Msg("summary failed")
					summary = SummaryUnavailable
				}
				r.Summary = summary
			}
			if cfg.Keywords {
				keywords, err := e.extractKeywords(gctx, r.Abstract, topN, retries)
				if err != nil {
					keywordFailures.Add(1)
					e.Metrics.ObserveEnrichmentFailure("keywords")
					e.Logger.Warn().Err(err).Int("row", i).Msg("keyword extraction failed")
					keywords = nil
				}
				r.Keywords = keywords
			}
			return gctx.Err()
		})
	}

	err := g.Wait()
	report.SummaryFailures = int(summaryFailures.Load())
	report.KeywordFailures = int(keywordFailures.Load())
	if err != nil {
		return report, fmt.Errorf("enrichment interrupted: %w", err)
	}
	return report, nil
}

func (e *Enricher) summarize(ctx context.Context, abstract string, opts SummaryOptions, retries int) (string, error) {
	text := strings.TrimSpace(abstract)
	if text == "" {
		return NoAbstract, nil
	}
	var summary string
	err := withRetry(ctx, retries, func() error {
		var err error
		summary, err = e.Summarizer.Summarize(ctx, text, opts)
		return err
	})
	return summary, err
}

func (e *Enricher) extractKeywords(ctx context.Context, abstract string, topN, retries int) ([]string, error) {
	text := strings.TrimSpace(truncateRunes(abstract, keywordTextLimit))
	if text == "" {
		return nil, nil
	}
	var keywords []string
	err := withRetry(ctx, retries, func() error {
		var err error
		keywords, err = e.Keywords.ExtractKeywords(ctx, text, topN)
		return err
	})
	if len(keywords) > topN {
		keywords = keywords[:topN]
	}
	return keywords, err
}

// withRetry calls fn until it succeeds, with exponential backoff.
func withRetry(ctx context.Context, maxRetries int, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

func clampWords(n int) int {
	if n <= 0 {
		return DefaultSummaryWords
	}
	return max(MinSummaryWords, min(n, MaxSummaryWords))
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
