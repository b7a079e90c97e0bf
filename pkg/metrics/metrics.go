// Package metrics provides Prometheus metrics for the masking service
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ryandumpert/flint/pkg/pii"
)

// Metrics holds all Prometheus metrics on a private registry
type Metrics struct {
	registry *prometheus.Registry

	// Scanner metrics
	PIIScansTotal      *prometheus.CounterVec
	PIIDetectionsTotal *prometheus.CounterVec

	// Store metrics
	DocumentsLoadedTotal prometheus.Counter
	IssuesIngestedTotal  *prometheus.CounterVec
	ActiveSessions       prometheus.Gauge

	// HTTP metrics
	HTTPRequestsTotal *prometheus.CounterVec
}

// New creates and registers all metrics
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}

	m.PIIScansTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flint_pii_scans_total",
			Help: "Total number of PII scans by operation",
		},
		[]string{"operation"},
	)

	m.PIIDetectionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flint_pii_detections_total",
			Help: "Total number of PII detections by pattern",
		},
		[]string{"type"},
	)

	m.DocumentsLoadedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "flint_documents_loaded_total",
			Help: "Total number of contract versions loaded",
		},
	)

	m.IssuesIngestedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flint_issues_ingested_total",
			Help: "Total number of issue batches by result",
		},
		[]string{"result"},
	)

	m.ActiveSessions = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "flint_active_sessions",
			Help: "Number of sessions holding a document store",
		},
	)

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flint_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)

	return m
}

// RecordScan counts one scan and its detections by type. Only type names
// reach the metric labels.
func (m *Metrics) RecordScan(operation string, dets []pii.Detection) {
	if m == nil {
		return
	}
	m.PIIScansTotal.WithLabelValues(operation).Inc()
	for _, d := range dets {
		m.PIIDetectionsTotal.WithLabelValues(d.Type).Inc()
	}
}

// Handler returns the HTTP handler that serves the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
