// Package metrics exposes Prometheus metrics for the notification engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gitlab.com/yelinaung/subscription-bot/internal/models"
)

const namespace = "subscription_bot"

// Pass results.
const (
	PassCompleted = "completed"
	PassCooldown  = "cooldown"
	PassDisabled  = "disabled"
	PassInFlight  = "in_flight"
	PassFailed    = "failed"
)

// Delivery results.
const (
	DeliveryOK     = "ok"
	DeliveryFailed = "failed"
)

// Metrics holds the engine's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Passes            *prometheus.CounterVec
	PassDuration      prometheus.Histogram
	Candidates        *prometheus.CounterVec
	Generated         *prometheus.CounterVec
	Deliveries        *prometheus.CounterVec
	PersistenceErrors *prometheus.CounterVec
	LogSize           prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New registers the collectors with reg. Pass prometheus.NewRegistry() in
// tests to avoid clashing with the default registry.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Passes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "passes_total",
				Help:      "Evaluation passes by result",
			},
			[]string{"result"},
		),
		PassDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "pass_duration_seconds",
				Help:      "Duration of completed evaluation passes",
				Buckets:   prometheus.DefBuckets,
			},
		),
		Candidates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rules",
				Name:      "candidates_total",
				Help:      "Candidate notifications produced by each rule, before dedup",
			},
			[]string{"rule"},
		),
		Generated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "notifications_generated_total",
				Help:      "Notifications added to the log by type",
			},
			[]string{"type"},
		),
		Deliveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "delivery",
				Name:      "attempts_total",
				Help:      "Delivery attempts by notification type and result",
			},
			[]string{"type", "result"},
		),
		PersistenceErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "errors_total",
				Help:      "Failed reads and writes of persisted state",
			},
			[]string{"op"},
		),
		LogSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "log_size",
				Help:      "Notifications retained in the log",
			},
		),
		gatherer: reg,
	}
}

// Pass records the result of an evaluation pass.
func (m *Metrics) Pass(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.Passes.WithLabelValues(result).Inc()
	if result == PassCompleted {
		m.PassDuration.Observe(took.Seconds())
	}
}

// Evaluated records the number of candidates a rule produced.
func (m *Metrics) Evaluated(rule string, n int) {
	if m == nil {
		return
	}
	m.Candidates.WithLabelValues(rule).Add(float64(n))
}

// Added records notifications that entered the log.
func (m *Metrics) Added(ns []models.SmartNotification) {
	if m == nil {
		return
	}
	for _, n := range ns {
		m.Generated.WithLabelValues(string(n.Type)).Inc()
	}
}

// Delivered records a delivery attempt.
func (m *Metrics) Delivered(t models.NotificationType, err error) {
	if m == nil {
		return
	}
	result := DeliveryOK
	if err != nil {
		result = DeliveryFailed
	}
	m.Deliveries.WithLabelValues(string(t), result).Inc()
}

// PersistenceError records a failed store operation ("read" or "write").
func (m *Metrics) PersistenceError(op string) {
	if m == nil {
		return
	}
	m.PersistenceErrors.WithLabelValues(op).Inc()
}

// SetLogSize records the retained log length.
func (m *Metrics) SetLogSize(n int) {
	if m == nil {
		return
	}
	m.LogSize.Set(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
