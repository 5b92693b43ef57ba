// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search fetches candidate papers from bibliographic APIs and
// merges them into one table.
package search

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pdiddy/litfinder/internal/observability"
	"github.com/pdiddy/litfinder/pkg/types"
)

// ErrNoData is returned when every requested source came back empty.
var ErrNoData = errors.New("no data returned from any source")

// FetchAll runs every source concurrently and concatenates their records
// in completion order. maxResults is a per-source cap. A failing source is
// logged and skipped; only an all-empty result is an error (ErrNoData).
//
// Records from different sources appear in the order the sources finished,
// which varies between runs. Within a source, fetch order is preserved.
func FetchAll(ctx context.Context, query string, maxResults int, sources []Source, logger zerolog.Logger, metrics *observability.Metrics) (types.Table, error) {
	if len(sources) == 0 {
		return types.Table{}, fmt.Errorf("no sources configured")
	}

	type sourceResult struct {
		name    types.SourceName
		outcome Outcome
	}

	ch := make(chan sourceResult, len(sources))
	var wg sync.WaitGroup

	for _, s := range sources {
		wg.Add(1)
		go func(s Source) {
			defer wg.Done()
			ch <- sourceResult{name: s.Name(), outcome: safeFetch(ctx, s, query, maxResults)}
		}(s)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var table types.Table
	for sr := range ch {
		status := sr.outcome.Status()
		metrics.ObserveFetch(string(sr.name), status, len(sr.outcome.Records))

		log := observability.WithSource(logger, sr.name)
		if sr.outcome.Err != nil {
			log.Warn().Err(sr.outcome.Err).Int("records", len(sr.outcome.Records)).Msg("source fetch truncated")
		} else {
			log.Info().Int("records", len(sr.outcome.Records)).Msg("source fetch complete")
		}

		table.Records = append(table.Records, sr.outcome.Records...)
	}

	if table.Len() == 0 {
		return types.Table{}, ErrNoData
	}
	return table, nil
}

// safeFetch converts a panicking adapter into a failed outcome so one
// broken source cannot take down the others.
func safeFetch(ctx context.Context, s Source, query string, maxResults int) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Err: fmt.Errorf("%s adapter panic: %v", s.Name(), r)}
		}
	}()
	return s.Fetch(ctx, query, maxResults)
}
