package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the portal's collectors. A nil *Metrics records nothing.
type Metrics struct {
	BackendRequests       *prometheus.CounterVec
	BackendDuration       *prometheus.HistogramVec
	GuardDecisions        *prometheus.CounterVec
	SweepOutcomes         *prometheus.CounterVec
	NotificationFailures  *prometheus.CounterVec
	NotificationsProduced prometheus.Gauge

	registry *prometheus.Registry
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		BackendRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_backend_requests_total",
				Help: "Backend API calls by endpoint and status code.",
			},
			[]string{"endpoint", "status"},
		),
		BackendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portal_backend_request_duration_seconds",
				Help:    "Backend API call duration by endpoint.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		GuardDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_guard_decisions_total",
				Help: "Route guard outcomes by route and outcome.",
			},
			[]string{"route", "outcome"},
		),
		SweepOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_sweep_subjects_total",
				Help: "Overdue subjects processed by the due-date sweep, by result.",
			},
			[]string{"result"},
		),
		NotificationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_notification_source_failures_total",
				Help: "Failed notification source queries by source.",
			},
			[]string{"source"},
		),
		NotificationsProduced: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "portal_notifications_current",
				Help: "Notifications produced by the latest aggregation.",
			},
		),
		registry: reg,
	}

	reg.MustRegister(m.BackendRequests)
	reg.MustRegister(m.BackendDuration)
	reg.MustRegister(m.GuardDecisions)
	reg.MustRegister(m.SweepOutcomes)
	reg.MustRegister(m.NotificationFailures)
	reg.MustRegister(m.NotificationsProduced)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveBackend(endpoint string, status int, d time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.BackendRequests.WithLabelValues(endpoint, label).Inc()
	m.BackendDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *Metrics) RecordGuard(route, outcome string) {
	if m == nil {
		return
	}
	m.GuardDecisions.WithLabelValues(route, outcome).Inc()
}

func (m *Metrics) RecordSweep(result string) {
	if m == nil {
		return
	}
	m.SweepOutcomes.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordNotificationFailure(source string) {
	if m == nil {
		return
	}
	m.NotificationFailures.WithLabelValues(source).Inc()
}

func (m *Metrics) SetNotifications(n int) {
	if m == nil {
		return
	}
	m.NotificationsProduced.Set(float64(n))
}
