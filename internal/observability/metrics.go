package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "helpdesk"

// Metrics holds Prometheus collectors for the service. A nil *Metrics is a valid no-op.
type Metrics struct {
	registry *prometheus.Registry

	RequestCounter   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	ErrorCounter     *prometheus.CounterVec
	IncidentsCreated *prometheus.CounterVec
	AutomationCalls  *prometheus.CounterVec
	Quarantines      prometheus.Counter
	SessionsRevoked  prometheus.Counter
}

// NewMetrics registers collectors on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		ErrorCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_errors_total",
				Help:      "Total number of failed requests by error code",
			},
			[]string{"method", "route", "code"},
		),
		IncidentsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "incidents_created_total",
				Help:      "Incidents created by intake channel",
			},
			[]string{"channel"},
		),
		AutomationCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "automation_calls_total",
				Help:      "Outbound automation webhook calls by result",
			},
			[]string{"result"},
		),
		Quarantines: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quarantines_total",
			Help:      "Accounts quarantined",
		}),
		SessionsRevoked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_revoked_total",
			Help:      "Sessions deleted by quarantine",
		}),
	}
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestCounter.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.ErrorCounter.WithLabelValues(method, route, code).Inc()
}

// RecordIncidentCreated counts a new incident.
func (m *Metrics) RecordIncidentCreated(channel string) {
	if m == nil {
		return
	}
	m.IncidentsCreated.WithLabelValues(channel).Inc()
}

// RecordAutomationCall counts an outbound automation call as "ok" or "failed".
func (m *Metrics) RecordAutomationCall(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.AutomationCalls.WithLabelValues(result).Inc()
}

// RecordQuarantine counts a quarantine and the sessions it revoked.
func (m *Metrics) RecordQuarantine(sessionsDeleted int) {
	if m == nil {
		return
	}
	m.Quarantines.Inc()
	m.SessionsRevoked.Add(float64(sessionsDeleted))
}
