// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/pdiddy/litfinder/internal/httputil"
	"github.com/pdiddy/litfinder/pkg/types"
)

// Source translates one provider's paginated API into normalized records.
// Each provider (OpenAlex, Crossref, arXiv) implements this interface.
type Source interface {
	Name() types.SourceName

	// Fetch returns up to maxResults records for query. It never fails:
	// a transport, status, or decoding error stops pagination and is
	// reported in Outcome.Err next to whatever was already collected.
	Fetch(ctx context.Context, query string, maxResults int) Outcome
}

// Outcome is the result of one adapter run. Err distinguishes "empty
// because the provider had nothing" from "empty or short because of a
// failure"; only logging and metrics look at it.
type Outcome struct {
	Records []types.Record
	Err     error
}

// Status classifies the outcome for logs and metrics.
func (o Outcome) Status() string {
	switch {
	case o.Err == nil && len(o.Records) > 0:
		return "ok"
	case o.Err == nil:
		return "empty"
	case len(o.Records) > 0:
		return "partial"
	default:
		return "failed"
	}
}

const defaultRateLimit = 5.0

// arxivRateLimit follows arXiv's request to wait three seconds between calls.
const arxivRateLimit = 1.0 / 3.0

// BuildSources turns source names into adapters sharing client. Unknown
// names are an error; repeated names are collapsed.
func BuildSources(names []types.SourceName, cfg types.SearchConfig, client *http.Client, logger zerolog.Logger) ([]Source, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no sources requested")
	}

	rps := cfg.RateLimit
	if rps <= 0 {
		rps = defaultRateLimit
	}
	requester := func(rate float64) *httputil.Requester {
		return &httputil.Requester{
			Client:     client,
			Limiter:    httputil.NewRateLimiter(rate, 1),
			UserAgent:  cfg.UserAgent,
			MaxRetries: cfg.MaxRetries,
		}
	}

	seen := make(map[types.SourceName]bool)
	var sources []Source
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		switch name {
		case types.SourceOpenAlex:
			sources = append(sources, &OpenAlexSource{
				Requester: requester(rps),
				Email:     cfg.OpenAlexEmail,
				Logger:    logger,
			})
		case types.SourceCrossref:
			sources = append(sources, &CrossrefSource{
				Requester: requester(rps),
				Mailto:    cfg.CrossrefMailto,
				Logger:    logger,
			})
		case types.SourceArxiv:
			sources = append(sources, &ArxivSource{
				Requester: requester(min(rps, arxivRateLimit)),
				Parser:    gofeed.NewParser(),
				Logger:    logger,
			})
		default:
			return nil, fmt.Errorf("unknown source %q", name)
		}
	}
	return sources, nil
}

// Helpers for provider fields whose JSON type is not stable.

// rawString returns raw as a string when it is a JSON string, else "".
func rawString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// firstString accepts either a JSON string or a list and returns the
// string, the first element of a non-empty list, or "".
func firstString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var list []json.RawMessage
	if json.Unmarshal(raw, &list) == nil {
		if len(list) == 0 {
			return ""
		}
		return rawString(list[0])
	}
	return rawString(raw)
}

// rawYear accepts a JSON integer or a numeric string. Anything else,
// including null and non-positive values, yields nil.
func rawYear(raw json.RawMessage) *int {
	if len(raw) == 0 {
		return nil
	}
	var n json.Number
	if json.Unmarshal(raw, &n) != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return nil
		}
		n = json.Number(strings.TrimSpace(s))
	}
	year, err := strconv.Atoi(n.String())
	if err != nil || year <= 0 {
		return nil
	}
	return &year
}
