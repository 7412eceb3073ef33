// Package metrics exposes Prometheus collectors for the search service:
// cache hit/miss counters per namespace, search counters per mode and
// outcome, and a search latency histogram.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics wraps prometheus collectors on a private registry. A nil
// *Metrics is valid and records nothing, so callers never need nil checks
// at every observation site.
type Metrics struct {
	registry *prometheus.Registry

	cacheLookups   *prometheus.CounterVec
	searchesTotal  *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec
}

// Buckets for search latency in seconds, tuned for in-memory cache hits
// through multi-second backend calls.
var durationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}

// New creates a Metrics set registered under the given namespace.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,

		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Cache lookups by namespace and result",
			},
			[]string{"cache", "result"},
		),

		searchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "searches_total",
				Help:      "Search calls by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),

		searchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_duration_seconds",
				Help:      "Search latency by mode",
				Buckets:   durationBuckets,
			},
			[]string{"mode"},
		),
	}

	registry.MustRegister(m.cacheLookups, m.searchesTotal, m.searchDuration)
	return m
}

// Handler returns the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCacheLookup records one cache lookup.
func (m *Metrics) ObserveCacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(cache, result).Inc()
}

// ObserveSearch records a completed search call.
func (m *Metrics) ObserveSearch(mode string, fromCache bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "computed"
	if fromCache {
		outcome = "cached"
	}
	m.searchesTotal.WithLabelValues(mode, outcome).Inc()
	m.searchDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// ObserveSearchError records a failed search call.
func (m *Metrics) ObserveSearchError(mode string) {
	if m == nil {
		return
	}
	m.searchesTotal.WithLabelValues(mode, "error").Inc()
}
