// Package telemetry provides the Prometheus metrics exported on /metrics.
//
// Metrics are registered on a per-instance registry so tests and multiple
// servers in one process do not collide. A nil *Metrics is valid and
// records nothing.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for ChangelogAI.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Generation pipeline
	GenerationsTotal   *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	CoercionsTotal     *prometheus.CounterVec

	// Collaborators
	StoreOperationsTotal *prometheus.CounterVec
	CommitFetchesTotal   *prometheus.CounterVec
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "changelogai_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "changelogai_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	m.GenerationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "changelogai_generations_total",
			Help: "Total number of generation service calls",
		},
		[]string{"provider", "outcome"},
	)

	m.GenerationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "changelogai_generation_duration_seconds",
			Help:    "Duration of generation service calls in seconds",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 40, 60},
		},
		[]string{"provider"},
	)

	m.CoercionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "changelogai_coercions_total",
			Help: "Generated responses by coercion outcome",
		},
		[]string{"outcome"},
	)

	m.StoreOperationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "changelogai_store_operations_total",
			Help: "Total number of store operations",
		},
		[]string{"backend", "operation", "status"},
	)

	m.CommitFetchesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "changelogai_commit_fetches_total",
			Help: "Total number of commit source calls",
		},
		[]string{"source", "status"},
	)

	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordHTTPRequest records a served request.
func (m *Metrics) RecordHTTPRequest(route, method string, code int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordGeneration records a generation call. outcome is the coercion
// outcome, or "error" when the provider call failed.
func (m *Metrics) RecordGeneration(provider, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.GenerationsTotal.WithLabelValues(provider, outcome).Inc()
	m.GenerationDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordCoercion records which branch produced a generated changelog.
func (m *Metrics) RecordCoercion(outcome string) {
	if m == nil {
		return
	}
	m.CoercionsTotal.WithLabelValues(outcome).Inc()
}

// RecordStoreOperation records a store call.
func (m *Metrics) RecordStoreOperation(backend, operation string, err error) {
	if m == nil {
		return
	}
	m.StoreOperationsTotal.WithLabelValues(backend, operation, status(err)).Inc()
}

// RecordCommitFetch records a commit source call.
func (m *Metrics) RecordCommitFetch(source string, err error) {
	if m == nil {
		return
	}
	m.CommitFetchesTotal.WithLabelValues(source, status(err)).Inc()
}
