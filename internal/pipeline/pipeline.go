// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs a literature search end to end: fetch from the
// sources (or the cache, or a saved snapshot), normalize, deduplicate,
// optionally enrich, and project onto the output schema.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/litfinder/internal/cache"
	"github.com/pdiddy/litfinder/internal/clean"
	"github.com/pdiddy/litfinder/internal/dedup"
	"github.com/pdiddy/litfinder/internal/enrich"
	"github.com/pdiddy/litfinder/internal/export"
	"github.com/pdiddy/litfinder/internal/observability"
	"github.com/pdiddy/litfinder/internal/search"
	"github.com/pdiddy/litfinder/pkg/types"
)

// ErrInvalidRequest is returned, wrapped with detail, for a request that
// fails validation. No network I/O happens for such a request.
var ErrInvalidRequest = errors.New("invalid request")

// Bounds and default for Request.MaxResults.
const (
	MinMaxResults     = 50
	MaxMaxResults     = 1000
	DefaultMaxResults = 300
)

// DefaultSources are queried when a request names none.
var DefaultSources = []types.SourceName{types.SourceOpenAlex, types.SourceCrossref}

// Request describes one search run.
type Request struct {
	// Query is the free-text search. It may be empty only with FromRaw.
	Query string

	// MaxResults is the per-source cap, 50 to 1000. Zero means 300.
	MaxResults int

	// Sources to query. Empty means DefaultSources.
	Sources []types.SourceName

	Enrich types.EnrichConfig

	// SaveRaw, when set, writes the unified uncleaned table to this path.
	SaveRaw string

	// FromRaw, when set, loads the unified table from a snapshot instead
	// of fetching.
	FromRaw string

	// NoCache bypasses the fetch cache for this run.
	NoCache bool
}

// Report summarizes what a run did.
type Report struct {
	RunID        string
	Fetched      int
	FromCache    bool
	FromSnapshot bool
	Duplicates   dedup.Stats
	Enrichment   enrich.Report
	Elapsed      time.Duration
}

// Result is the outcome of a successful run.
type Result struct {
	// Table is the cleaned, deduplicated, and enriched table.
	Table types.Table

	// Output is Table projected onto the export schema.
	Output export.Output

	Report Report
}

// SourceFactory builds adapters for the named sources.
type SourceFactory func(names []types.SourceName) ([]search.Source, error)

// FetchCache stores unified fetch results. *cache.Store satisfies it.
type FetchCache interface {
	Get(ctx context.Context, key string) (types.Table, bool, error)
	Put(ctx context.Context, key, query string, maxResults int, sources []types.SourceName, table types.Table) error
}

// Pipeline holds the collaborators shared by every run.
type Pipeline struct {
	Sources SourceFactory

	// Cache is optional.
	Cache FetchCache

	// Summarizer and Keywords are needed only when a request enables them.
	Summarizer enrich.Summarizer
	Keywords   enrich.KeywordExtractor

	Logger  zerolog.Logger
	Metrics *observability.Metrics
}

// Validate checks req and fills in defaults. Errors wrap ErrInvalidRequest.
func Validate(req Request) (Request, error) {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" && req.FromRaw == "" {
		return req, fmt.Errorf("%w: query is empty", ErrInvalidRequest)
	}

	if req.MaxResults == 0 {
		req.MaxResults = DefaultMaxResults
	}
	if req.MaxResults < MinMaxResults || req.MaxResults > MaxMaxResults {
		return req, fmt.Errorf("%w: max results %d outside [%d, %d]", ErrInvalidRequest, req.MaxResults, MinMaxResults, MaxMaxResults)
	}

	if len(req.Sources) == 0 {
		req.Sources = DefaultSources
	}
	seen := make(map[types.SourceName]bool)
	var sources []types.SourceName
	for _, s := range req.Sources {
		name, ok := types.ParseSourceName(string(s))
		if !ok {
			return req, fmt.Errorf("%w: unknown source %q", ErrInvalidRequest, s)
		}
		if !seen[name] {
			seen[name] = true
			sources = append(sources, name)
		}
	}
	req.Sources = sources

	if req.Enrich.SummaryWords != 0 && (req.Enrich.SummaryWords < enrich.MinSummaryWords || req.Enrich.SummaryWords > enrich.MaxSummaryWords) {
		return req, fmt.Errorf("%w: summary words %d outside [%d, %d]", ErrInvalidRequest, req.Enrich.SummaryWords, enrich.MinSummaryWords, enrich.MaxSummaryWords)
	}
	if req.Enrich.TopN < 0 {
		return req, fmt.Errorf("%w: negative keyword count", ErrInvalidRequest)
	}
	return req, nil
}

// Run executes one search. The only fetch error it returns is
// search.ErrNoData (wrapped) when no source produced anything.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	req, err := Validate(req)
	if err != nil {
		return Result{}, err
	}

	runID := uuid.NewString()
	logger := p.Logger.With().Str("run_id", runID).Logger()
	report := Report{RunID: runID}

	table, err := p.load(ctx, req, logger, &report)
	if err != nil {
		return Result{}, err
	}
	report.Fetched = table.Len()

	if req.SaveRaw != "" && !report.FromSnapshot {
		if err := search.WriteSnapshot(req.SaveRaw, req.Query, req.MaxResults, req.Sources, table); err != nil {
			return Result{}, fmt.Errorf("saving raw snapshot: %w", err)
		}
		logger.Info().Str("path", req.SaveRaw).Msg("raw snapshot saved")
	}

	clean.Normalize(&table)

	table, report.Duplicates = dedup.RemoveDuplicates(table)
	p.Metrics.ObserveDuplicates(report.Duplicates.ByDOI, report.Duplicates.ByTitle)
	logger.Info().
		Int("fetched", report.Fetched).
		Int("kept", table.Len()).
		Int("dup_doi", report.Duplicates.ByDOI).
		Int("dup_title", report.Duplicates.ByTitle).
		Msg("deduplicated")

	if req.Enrich.Enabled() {
		e := &enrich.Enricher{
			Summarizer: p.Summarizer,
			Keywords:   p.Keywords,
			Config:     req.Enrich,
			Logger:     logger,
			Metrics:    p.Metrics,
		}
		report.Enrichment, err = e.Enrich(ctx, &table)
		if err != nil {
			return Result{}, fmt.Errorf("enriching: %w", err)
		}
	}

	report.Elapsed = time.Since(start)
	return Result{
		Table:  table,
		Output: export.Project(table),
		Report: report,
	}, nil
}

// load returns the unified table from a snapshot, the cache, or the sources.
func (p *Pipeline) load(ctx context.Context, req Request, logger zerolog.Logger, report *Report) (types.Table, error) {
	if req.FromRaw != "" {
		snap, err := search.ReadSnapshot(req.FromRaw)
		if err != nil {
			return types.Table{}, err
		}
		table, err := snap.Table()
		if err != nil {
			return types.Table{}, fmt.Errorf("loading %s: %w", req.FromRaw, err)
		}
		report.FromSnapshot = true
		logger.Info().Str("path", req.FromRaw).Int("records", table.Len()).Msg("loaded raw snapshot")
		return table, nil
	}

	useCache := p.Cache != nil && !req.NoCache
	key := cache.Key(req.Query, req.MaxResults, req.Sources)
	if useCache {
		table, ok, err := p.Cache.Get(ctx, key)
		if err != nil {
			logger.Warn().Err(err).Msg("cache lookup failed")
		}
		p.Metrics.ObserveCache(ok)
		if ok {
			report.FromCache = true
			logger.Info().Int("records", table.Len()).Msg("served from cache")
			return table, nil
		}
	}

	if p.Sources == nil {
		return types.Table{}, fmt.Errorf("no source factory configured")
	}
	sources, err := p.Sources(req.Sources)
	if err != nil {
		return types.Table{}, fmt.Errorf("building sources: %w", err)
	}

	logger.Info().Str("query", req.Query).Int("max_results", req.MaxResults).Int("sources", len(sources)).Msg("fetching")
	table, err := search.FetchAll(ctx, req.Query, req.MaxResults, sources, logger, p.Metrics)
	if err != nil {
		return types.Table{}, fmt.Errorf("fetching: %w", err)
	}

	if useCache {
		if err := p.Cache.Put(ctx, key, req.Query, req.MaxResults, req.Sources, table); err != nil {
			logger.Warn().Err(err).Msg("cache store failed")
		}
	}
	return table, nil
}
