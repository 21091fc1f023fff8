// Package metrics defines the Prometheus collectors for the API and exposes
// a handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "estimo"

// Metrics holds all Prometheus collectors for the API.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	PanicsTotal          *prometheus.CounterVec
	SearchesTotal        *prometheus.CounterVec
	SearchResultsCount   *prometheus.HistogramVec
	ComparisonsTotal     *prometheus.CounterVec
	ProjectionsTotal     *prometheus.CounterVec
	CatalogLoadsTotal    *prometheus.CounterVec
	CatalogLoadDuration  prometheus.Histogram
	CatalogProperties    prometheus.Gauge

	registry *prometheus.Registry
}

// New creates the collectors and registers them, with the Go runtime and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by method, route, and status.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"method", "route"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being processed.",
			},
		),
		PanicsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_panics_total",
				Help:      "Total handler panics recovered, by route.",
			},
			[]string{"route"},
		),
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "searches_total",
				Help:      "Total ranked searches by mode (query, filter) and outcome (results, empty).",
			},
			[]string{"mode", "outcome"},
		),
		SearchResultsCount: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_matched_properties",
				Help:      "Number of properties passing the filters per search.",
				Buckets:   []float64{0, 1, 3, 5, 10, 25, 50, 100},
			},
			[]string{"mode"},
		),
		ComparisonsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "comparisons_total",
				Help:      "Total property comparisons by outcome (recommended, single, rejected).",
			},
			[]string{"outcome"},
		),
		ProjectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "projections_total",
				Help:      "Total investment projections by kind (projection, mortgage) and outcome (ok, rejected).",
			},
			[]string{"kind", "outcome"},
		),
		CatalogLoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_loads_total",
				Help:      "Total catalog loads by status (success, error).",
			},
			[]string{"status"},
		),
		CatalogLoadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "catalog_load_duration_seconds",
				Help:      "Catalog load latency in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		CatalogProperties: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "catalog_properties",
				Help:      "Number of properties in the active catalog snapshot.",
			},
		),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.PanicsTotal,
		m.SearchesTotal,
		m.SearchResultsCount,
		m.ComparisonsTotal,
		m.ProjectionsTotal,
		m.CatalogLoadsTotal,
		m.CatalogLoadDuration,
		m.CatalogProperties,
	)

	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the registry in the Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
