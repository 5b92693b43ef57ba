// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/litfinder/internal/cache"
	"github.com/pdiddy/litfinder/internal/enrich"
	"github.com/pdiddy/litfinder/internal/httputil"
	"github.com/pdiddy/litfinder/internal/pipeline"
	"github.com/pdiddy/litfinder/internal/secrets"
	"github.com/pdiddy/litfinder/pkg/types"
)

// setDefaults registers the default value of every config key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("http.connect_timeout", httputil.DefaultConnectTimeout)
	v.SetDefault("http.read_timeout", httputil.DefaultReadTimeout)
	v.SetDefault("http.user_agent", "litfinder/"+version)
	v.SetDefault("http.max_retries", 2)

	v.SetDefault("search.max_results", pipeline.DefaultMaxResults)
	v.SetDefault("search.sources", []string{string(types.SourceOpenAlex), string(types.SourceCrossref)})
	v.SetDefault("search.rate_limit", 5.0)

	v.SetDefault("enrich.model", string(enrich.DefaultModel))
	v.SetDefault("enrich.summary_words", enrich.DefaultSummaryWords)
	v.SetDefault("enrich.top_n", enrich.DefaultTopN)
	v.SetDefault("enrich.preview_count", enrich.DefaultPreviewCount)
	v.SetDefault("enrich.concurrency", enrich.DefaultConcurrency)
	v.SetDefault("enrich.max_retries", 2)

	v.SetDefault("cache.dir", cache.DefaultDir)
	v.SetDefault("cache.ttl", cache.DefaultTTL)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// pipelineConfig reads the configuration from v. Secrets fill the contact
// addresses and API key when the config leaves them empty.
func pipelineConfig(v *viper.Viper, loaded map[string]string) types.PipelineConfig {
	cfg := types.PipelineConfig{
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{
				ConnectTimeout: durationOr(v, "http.connect_timeout", httputil.DefaultConnectTimeout),
				ReadTimeout:    durationOr(v, "http.read_timeout", httputil.DefaultReadTimeout),
				UserAgent:      v.GetString("http.user_agent"),
				MaxRetries:     v.GetInt("http.max_retries"),
			},
			MaxResults:     v.GetInt("search.max_results"),
			Sources:        sourceNames(v.GetStringSlice("search.sources")),
			OpenAlexEmail:  v.GetString("search.openalex_email"),
			CrossrefMailto: v.GetString("search.crossref_mailto"),
			RateLimit:      v.GetFloat64("search.rate_limit"),
		},
		Enrich: types.EnrichConfig{
			AIConfig: types.AIConfig{
				Model:      v.GetString("enrich.model"),
				APIKey:     v.GetString("enrich.api_key"),
				MaxRetries: v.GetInt("enrich.max_retries"),
			},
			SummaryWords: v.GetInt("enrich.summary_words"),
			TopN:         v.GetInt("enrich.top_n"),
			PreviewCount: v.GetInt("enrich.preview_count"),
			Concurrency:  v.GetInt("enrich.concurrency"),
		},
		Cache: types.CacheConfig{
			Dir:      v.GetString("cache.dir"),
			TTL:      durationOr(v, "cache.ttl", cache.DefaultTTL),
			Disabled: v.GetBool("cache.disabled"),
		},
		Log: types.LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if cfg.Search.OpenAlexEmail == "" {
		cfg.Search.OpenAlexEmail = secrets.Lookup(loaded, secrets.OpenAlexEmail)
	}
	if cfg.Search.CrossrefMailto == "" {
		cfg.Search.CrossrefMailto = secrets.Lookup(loaded, secrets.CrossrefMailto)
	}
	if cfg.Enrich.APIKey == "" {
		cfg.Enrich.APIKey = secrets.Lookup(loaded, secrets.OpenAIAPIKey)
	}
	return cfg
}

func durationOr(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	if d := v.GetDuration(key); d > 0 {
		return d
	}
	return fallback
}

// sourceNames splits comma-separated entries and drops blanks. Names are
// validated later by the pipeline.
func sourceNames(values []string) []types.SourceName {
	var names []types.SourceName
	for _, value := range values {
		for _, s := range strings.Split(value, ",") {
			if s = strings.TrimSpace(s); s != "" {
				names = append(names, types.SourceName(strings.ToLower(s)))
			}
		}
	}
	return names
}
