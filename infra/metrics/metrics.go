// Package metrics exposes Prometheus collectors for backend calls, the query
// cache and operator actions.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ConsoleMetrics holds every collector of the console.
type ConsoleMetrics struct {
	registry *prometheus.Registry

	// backend
	BackendRequestsTotal   *prometheus.CounterVec
	BackendRequestDuration *prometheus.HistogramVec

	// query cache
	CacheLookupsTotal       *prometheus.CounterVec
	CacheInvalidationsTotal *prometheus.CounterVec
	CacheEntriesRemoved     *prometheus.CounterVec

	// operator actions
	AdminActionsTotal *prometheus.CounterVec

	// report schedules
	ScheduledReportsTotal *prometheus.CounterVec
}

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *ConsoleMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &ConsoleMetrics{
		registry: reg,

		BackendRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payconsole_backend_requests_total",
				Help: "Requests sent to the payment backend",
			},
			[]string{"method", "route", "status"},
		),
		BackendRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "payconsole_backend_request_duration_seconds",
				Help:    "Latency of payment backend requests",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
			},
			[]string{"method", "route"},
		),

		CacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payconsole_query_cache_lookups_total",
				Help: "Query cache lookups by resource and result",
			},
			[]string{"resource", "result"},
		),
		CacheInvalidationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payconsole_query_cache_invalidations_total",
				Help: "Prefix invalidations applied to the query cache",
			},
			[]string{"resource"},
		),
		CacheEntriesRemoved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payconsole_query_cache_entries_removed_total",
				Help: "Entries dropped by invalidations",
			},
			[]string{"resource"},
		),

		AdminActionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payconsole_admin_actions_total",
				Help: "Operator mutations by action and outcome",
			},
			[]string{"action", "outcome"},
		),

		ScheduledReportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payconsole_scheduled_reports_total",
				Help: "Scheduled report runs by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveRequest implements apiclient.Observer.
func (m *ConsoleMetrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.BackendRequestsTotal.WithLabelValues(method, route, code).Inc()
	m.BackendRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// CacheResult implements query.Observer.
func (m *ConsoleMetrics) CacheResult(resource string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookupsTotal.WithLabelValues(resource, result).Inc()
}

// Invalidated implements query.Observer.
func (m *ConsoleMetrics) Invalidated(resource string, removed int) {
	m.CacheInvalidationsTotal.WithLabelValues(resource).Inc()
	m.CacheEntriesRemoved.WithLabelValues(resource).Add(float64(removed))
}

// AdminAction counts an operator mutation.
func (m *ConsoleMetrics) AdminAction(action, outcome string) {
	m.AdminActionsTotal.WithLabelValues(action, outcome).Inc()
}

// ScheduledReport counts a schedule run.
func (m *ConsoleMetrics) ScheduledReport(ok bool) {
	outcome := "failed"
	if ok {
		outcome = "generated"
	}
	m.ScheduledReportsTotal.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *ConsoleMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *ConsoleMetrics) Registry() *prometheus.Registry {
	return m.registry
}
