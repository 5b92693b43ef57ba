// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/litfinder/internal/cache"
	"github.com/pdiddy/litfinder/internal/enrich"
	"github.com/pdiddy/litfinder/internal/export"
	"github.com/pdiddy/litfinder/internal/httputil"
	"github.com/pdiddy/litfinder/internal/observability"
	"github.com/pdiddy/litfinder/internal/pipeline"
	"github.com/pdiddy/litfinder/internal/search"
	"github.com/pdiddy/litfinder/internal/secrets"
	"github.com/pdiddy/litfinder/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search bibliographic APIs and write a deduplicated table",
	Long: `Search queries the selected sources concurrently for a free-text query,
merges their records, cleans abstracts and author names, removes duplicates
(same DOI, or a title more than 95% similar to one already kept), optionally
adds AI summaries and keyphrases, and writes the table to --out.

max-results is a per-source cap between 50 and 1000. A source that fails is
logged and skipped; the command fails only when no source returns anything.`,
	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(viper.GetViper(), loadedSecrets)
	logger := observability.NewLogger(cfg.Log, os.Stderr)

	query, _ := cmd.Flags().GetString("query")
	if query == "" {
		query = strings.Join(args, " ")
	}
	outPath, _ := cmd.Flags().GetString("out")
	formatName, _ := cmd.Flags().GetString("format")
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("format") {
		if f, err := export.ParseFormat(strings.TrimPrefix(filepath.Ext(outPath), ".")); err == nil && outPath != "-" {
			format = f
		}
	}

	req := pipeline.Request{
		Query:      query,
		MaxResults: cfg.Search.MaxResults,
		Sources:    cfg.Search.Sources,
		Enrich:     cfg.Enrich,
	}
	req.Enrich.Summaries, _ = cmd.Flags().GetBool("summaries")
	req.Enrich.Keywords, _ = cmd.Flags().GetBool("keywords")
	req.Enrich.ProcessAll, _ = cmd.Flags().GetBool("all")
	req.SaveRaw, _ = cmd.Flags().GetString("save-raw")
	req.FromRaw, _ = cmd.Flags().GetString("from-raw")
	req.NoCache, _ = cmd.Flags().GetBool("no-cache")

	reg := prometheus.NewRegistry()
	p := &pipeline.Pipeline{
		Logger:  logger,
		Metrics: observability.NewMetrics(reg),
	}

	client := httputil.NewClient(cfg.Search.HTTPConfig)
	p.Sources = func(names []types.SourceName) ([]search.Source, error) {
		return search.BuildSources(names, cfg.Search, client, logger)
	}

	if !cfg.Cache.Disabled && !req.NoCache && req.FromRaw == "" {
		store, err := cache.NewStore(cfg.Cache)
		if err != nil {
			logger.Warn().Err(err).Msg("fetch cache unavailable")
		} else {
			defer store.Close()
			p.Cache = store
		}
	}

	if req.Enrich.Enabled() {
		backend, err := enrich.NewOpenAIBackend(cfg.Enrich.AIConfig)
		if err != nil {
			return fmt.Errorf("enrichment requested: %w (set %s in .secrets/ or OPENAI_API_KEY)", err, secrets.OpenAIAPIKey)
		}
		p.Summarizer = backend
		p.Keywords = backend
	}

	res, err := p.Run(cmd.Context(), req)
	if err != nil {
		if errors.Is(err, search.ErrNoData) {
			return fmt.Errorf("no results for %q from any source", req.Query)
		}
		return err
	}

	if err := writeOutput(res.Output, outPath, format); err != nil {
		return err
	}

	previewRows, _ := cmd.Flags().GetInt("preview-rows")
	if previewRows > 0 {
		export.FormatPreview(res.Output, os.Stdout, previewRows)
	}
	printReport(os.Stderr, res.Report, req, outPath)

	if path, _ := cmd.Flags().GetString("metrics-file"); path != "" {
		if err := prometheus.WriteToTextfile(path, reg); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("writing metrics failed")
		}
	}
	return nil
}

func writeOutput(out export.Output, path string, format export.Format) error {
	if path == "-" {
		return export.Write(out, os.Stdout, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := export.Write(out, f, format); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func printReport(w io.Writer, r pipeline.Report, req pipeline.Request, outPath string) {
	origin := "fetched"
	switch {
	case r.FromCache:
		origin = "from cache"
	case r.FromSnapshot:
		origin = "from snapshot"
	}
	fmt.Fprintf(w, "\n%d records %s, %d duplicates removed (%d by DOI, %d by title)\n",
		r.Fetched, origin, r.Duplicates.Removed(), r.Duplicates.ByDOI, r.Duplicates.ByTitle)
	if req.Enrich.Enabled() {
		scope := fmt.Sprintf("preview of %d rows", r.Enrichment.Rows)
		if req.Enrich.ProcessAll {
			scope = fmt.Sprintf("all %d rows", r.Enrichment.Rows)
		}
		fmt.Fprintf(w, "enrichment ran on %s (%d summary failures, %d keyword failures)\n",
			scope, r.Enrichment.SummaryFailures, r.Enrichment.KeywordFailures)
	}
	if outPath != "-" {
		fmt.Fprintf(w, "wrote %s in %s (run %s)\n", outPath, r.Elapsed.Round(time.Millisecond), r.RunID)
	}
}

func init() {
	f := searchCmd.Flags()
	f.String("query", "", "free-text search query (or pass it as arguments)")
	f.Int("max-results", pipeline.DefaultMaxResults, "maximum records per source (50-1000)")
	f.StringSlice("sources", []string{"openalex", "crossref"}, "sources to query: openalex, crossref, arxiv")
	f.Bool("summaries", false, "generate AI summaries")
	f.Bool("keywords", false, "extract AI keyphrases")
	f.Int("summary-words", enrich.DefaultSummaryWords, "summary length in words (30-160)")
	f.Int("top-n", enrich.DefaultTopN, "keyphrases per record")
	f.Int("preview", enrich.DefaultPreviewCount, "number of leading rows to enrich")
	f.Bool("all", false, "enrich every row instead of the preview")
	f.Int("preview-rows", export.DefaultPreviewRows, "rows printed to stdout after the run (0 = none)")
	f.String("out", "litfinder_output.csv", "output file, or - for stdout")
	f.String("format", "csv", "output format: csv, json, or yaml (default from --out extension)")
	f.String("save-raw", "", "save the merged uncleaned records to a YAML snapshot")
	f.String("from-raw", "", "load records from a YAML snapshot instead of fetching")
	f.Bool("no-cache", false, "bypass the fetch cache")
	f.String("metrics-file", "", "write run metrics in Prometheus text format to this file")

	_ = viper.BindPFlag("search.max_results", f.Lookup("max-results"))
	_ = viper.BindPFlag("search.sources", f.Lookup("sources"))
	_ = viper.BindPFlag("enrich.summary_words", f.Lookup("summary-words"))
	_ = viper.BindPFlag("enrich.top_n", f.Lookup("top-n"))
	_ = viper.BindPFlag("enrich.preview_count", f.Lookup("preview"))

	rootCmd.AddCommand(searchCmd)
}
