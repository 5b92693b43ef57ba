package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litfinder/pkg/types"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(types.LogConfig{Level: "info", Format: "json"}, &buf)
	sourced := WithSource(logger, types.SourceCrossref)
	sourced.Warn().Int("records", 3).Msg("fetch truncated")
	logger.Debug().Msg("hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "crossref", entry["source"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, float64(3), entry["records"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveFetch("openalex", "ok", 10)
	m.ObserveFetch("openalex", "partial", 5)
	m.ObserveDuplicates(2, 1)
	m.ObserveEnrichmentFailure("summary")
	m.ObserveCache(true)
	m.ObserveCache(false)

	assert.Equal(t, 15.0, testutil.ToFloat64(m.SourceRecords.WithLabelValues("openalex")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceFetches.WithLabelValues("openalex", "partial")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DuplicatesRemoved.WithLabelValues("doi")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DuplicatesRemoved.WithLabelValues("title")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EnrichmentFailures.WithLabelValues("summary")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveFetch("arxiv", "failed", 0)
		m.ObserveDuplicates(1, 1)
		m.ObserveEnrichmentFailure("keywords")
		m.ObserveCache(true)
	})
}
