package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "litfinder"

// Metrics holds the pipeline counters. A nil *Metrics is valid and records
// nothing, so stages can be used without a registry.
type Metrics struct {
	// SourceFetches counts adapter runs, labeled by source and outcome
	// ("ok", "partial", "failed", "empty").
	SourceFetches *prometheus.CounterVec

	// SourceRecords counts records returned, labeled by source.
	SourceRecords *prometheus.CounterVec

	// DuplicatesRemoved counts records dropped by deduplication, labeled by
	// match kind ("doi", "title").
	DuplicatesRemoved *prometheus.CounterVec

	// EnrichmentFailures counts enrichment calls replaced by a placeholder,
	// labeled by kind ("summary", "keywords").
	EnrichmentFailures *prometheus.CounterVec

	// CacheLookups counts fetch cache lookups, labeled by result ("hit", "miss").
	CacheLookups *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them with reg. Passing a
// fresh prometheus.NewRegistry() keeps tests isolated.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_fetches_total",
			Help:      "Source adapter runs by outcome.",
		}, []string{"source", "outcome"}),
		SourceRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_records_total",
			Help:      "Records returned by each source.",
		}, []string{"source"}),
		DuplicatesRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_removed_total",
			Help:      "Records dropped as duplicates.",
		}, []string{"match"}),
		EnrichmentFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_failures_total",
			Help:      "Enrichment calls replaced by a placeholder.",
		}, []string{"kind"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Fetch cache lookups by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.SourceFetches, m.SourceRecords, m.DuplicatesRemoved, m.EnrichmentFailures, m.CacheLookups)
	}
	return m
}

// ObserveFetch records one adapter outcome.
func (m *Metrics) ObserveFetch(source, outcome string, records int) {
	if m == nil {
		return
	}
	m.SourceFetches.WithLabelValues(source, outcome).Inc()
	m.SourceRecords.WithLabelValues(source).Add(float64(records))
}

// ObserveDuplicates records records removed by deduplication.
func (m *Metrics) ObserveDuplicates(byDOI, byTitle int) {
	if m == nil {
		return
	}
	m.DuplicatesRemoved.WithLabelValues("doi").Add(float64(byDOI))
	m.DuplicatesRemoved.WithLabelValues("title").Add(float64(byTitle))
}

// ObserveEnrichmentFailure records one placeholder substitution.
func (m *Metrics) ObserveEnrichmentFailure(kind string) {
	if m == nil {
		return
	}
	m.EnrichmentFailures.WithLabelValues(kind).Inc()
}

// ObserveCache records a cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}
