// Package metrics defines the Prometheus collectors for the search
// service and exposes a handler for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors, registered on a private registry so that
// tests and multiple servers in one process do not collide.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	OracleLookupsTotal  *prometheus.CounterVec
	OracleLookupLatency *prometheus.HistogramVec
	SearchesTotal       *prometheus.CounterVec
	SearchRows          prometheus.Histogram
	PhrasesTotal        *prometheus.CounterVec
}

// New creates and registers all collectors, plus the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "almanac_http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "almanac_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		OracleLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "almanac_oracle_lookups_total",
				Help: "Existence lookups by kind and result (hit, miss, error).",
			},
			[]string{"kind", "result"},
		),
		OracleLookupLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "almanac_oracle_lookup_duration_seconds",
				Help:    "Existence lookup latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
			},
			[]string{"kind"},
		),
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "almanac_searches_total",
				Help: "Searches by outcome (results, zero_results, error).",
			},
			[]string{"outcome"},
		),
		SearchRows: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "almanac_search_rows",
				Help:    "Number of rows returned per search.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
			},
		),
		PhrasesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "almanac_interpreted_phrases_total",
				Help: "Phrases produced by interpretation, by category.",
			},
			[]string{"category"},
		),
	}

	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.OracleLookupsTotal,
		m.OracleLookupLatency,
		m.SearchesTotal,
		m.SearchRows,
		m.PhrasesTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveLookup records one oracle lookup. It implements oracle.Recorder.
func (m *Metrics) ObserveLookup(kind string, found bool, err error, elapsed time.Duration) {
	result := "miss"
	switch {
	case err != nil:
		result = "error"
	case found:
		result = "hit"
	}
	m.OracleLookupsTotal.WithLabelValues(kind, result).Inc()
	m.OracleLookupLatency.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveSearch records a finished search. err is the search error, if
// any; rows is ignored when err is set.
func (m *Metrics) ObserveSearch(rows int, err error) {
	switch {
	case err != nil:
		m.SearchesTotal.WithLabelValues("error").Inc()
		return
	case rows == 0:
		m.SearchesTotal.WithLabelValues("zero_results").Inc()
	default:
		m.SearchesTotal.WithLabelValues("results").Inc()
	}
	m.SearchRows.Observe(float64(rows))
}

// ObservePhrases records how many phrases interpretation assigned to a
// category.
func (m *Metrics) ObservePhrases(category string, n int) {
	if n > 0 {
		m.PhrasesTotal.WithLabelValues(category).Add(float64(n))
	}
}
