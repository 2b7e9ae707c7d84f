// Package metrics provides Prometheus metrics for the capacity service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns every metric the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	// Capacity calculations
	summariesComputed   prometheus.Counter
	forecastsComputed   prometheus.Counter
	calculationDuration *prometheus.HistogramVec
	overloadedMembers   prometheus.Gauge
	teamUtilization     prometheus.Gauge

	// Issue tracker sync
	syncIssues             prometheus.Counter
	syncMembersCreated     prometheus.Counter
	syncAssignmentsCreated prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a metrics manager on its own registry unless one is supplied.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "capacity",
		subsystem:        "planner",
		histogramBuckets: prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.summariesComputed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "summaries_computed_total",
		Help:      "Total number of member capacity summaries computed",
	})
	m.forecastsComputed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "forecasts_computed_total",
		Help:      "Total number of per-person workload forecasts computed",
	})
	m.calculationDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "calculation_duration_seconds",
		Help:      "Duration of roster-wide capacity calculations",
		Buckets:   m.histogramBuckets,
	}, []string{"operation"})
	m.overloadedMembers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "overloaded_members",
		Help:      "Number of members flagged overloaded in the latest team summary",
	})
	m.teamUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "team_utilization_percent",
		Help:      "Mean utilization percentage across members in the latest team summary",
	})

	m.syncIssues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "sync",
		Name:      "issues_total",
		Help:      "Total number of active tracker issues processed by sync",
	})
	m.syncMembersCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "sync",
		Name:      "members_created_total",
		Help:      "Total number of team members created from tracker assignees",
	})
	m.syncAssignmentsCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "sync",
		Name:      "assignments_created_total",
		Help:      "Total number of task assignments created from tracker issues",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   m.histogramBuckets,
	}, []string{"method", "path"})
}

// Registry returns the registry the metrics are registered on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCalculation records how long a roster-wide operation took.
func (m *Manager) ObserveCalculation(operation string, d time.Duration) {
	m.calculationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordTeamSummary records the outcome of a team summary.
func (m *Manager) RecordTeamSummary(members, overloaded int, meanUtilization float64) {
	m.summariesComputed.Add(float64(members))
	m.overloadedMembers.Set(float64(overloaded))
	m.teamUtilization.Set(meanUtilization)
}

// RecordForecasts records computed per-person forecasts.
func (m *Manager) RecordForecasts(count int) {
	m.forecastsComputed.Add(float64(count))
}

// RecordSync records the outcome of an issue tracker sync.
func (m *Manager) RecordSync(issues, membersCreated, assignmentsCreated int) {
	m.syncIssues.Add(float64(issues))
	m.syncMembersCreated.Add(float64(membersCreated))
	m.syncAssignmentsCreated.Add(float64(assignmentsCreated))
}

// RecordHTTPRequest records a served HTTP request.
func (m *Manager) RecordHTTPRequest(method, path string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
