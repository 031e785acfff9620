package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WorkerMetrics covers the lead intake worker. Outcomes are the intake
// outcomes (stored, duplicate, logged, rejected, failed).
type WorkerMetrics struct {
	registry *prometheus.Registry

	leadsTotal     *prometheus.CounterVec
	intakeDuration *prometheus.HistogramVec
	leadsInFlight  prometheus.Gauge
	followUpLag    *prometheus.HistogramVec
	quotedMax      *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	leadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facade",
			Subsystem: "worker",
			Name:      "leads_total",
			Help:      "Leads taken off the queue by intake outcome and gating mode.",
		},
		[]string{"service", "outcome", "gating_mode"},
	)
	intakeDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "facade",
			Subsystem: "worker",
			Name:      "lead_intake_duration_seconds",
			Help:      "Time spent validating and storing one lead.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5, 30},
		},
		[]string{"service", "outcome"},
	)
	leadsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "facade",
			Subsystem: "worker",
			Name:      "leads_in_flight",
			Help:      "Leads being taken in.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	followUpLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "facade",
			Subsystem: "worker",
			Name:      "lead_follow_up_lag_seconds",
			Help:      "Delay between the homeowner submitting contact details and the lead reaching sales.",
			// Redeliveries after a store outage can arrive hours later.
			Buckets: []float64{1, 10, 60, 300, 900, 3600, 4 * 3600, 12 * 3600, 24 * 3600},
		},
		[]string{"service", "gating_mode"},
	)
	quotedMax := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "facade",
			Subsystem: "worker",
			Name:      "lead_quoted_max",
			Help:      "Upper bound of the investment range shown to the homeowner, in pricing currency units.",
			Buckets:   []float64{2500, 5000, 10000, 20000, 35000, 50000, 100000, 250000},
		},
		[]string{"service", "gating_mode"},
	)

	registry.MustRegister(leadsTotal, intakeDuration, leadsInFlight, followUpLag, quotedMax)

	return &WorkerMetrics{
		registry:       registry,
		leadsTotal:     leadsTotal,
		intakeDuration: intakeDuration,
		leadsInFlight:  leadsInFlight,
		followUpLag:    followUpLag,
		quotedMax:      quotedMax,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartLead() {
	m.leadsInFlight.Inc()
}

func (m *WorkerMetrics) FinishLead(service, gatingMode, outcome string, duration time.Duration) {
	m.leadsInFlight.Dec()

	m.leadsTotal.WithLabelValues(service, outcome, gatingLabel(gatingMode)).Inc()
	m.intakeDuration.WithLabelValues(service, outcome).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveFollowUpLag(service, gatingMode string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.followUpLag.WithLabelValues(service, gatingLabel(gatingMode)).Observe(lag.Seconds())
}

// ObserveQuotedRange records leads that carried an estimate; gating "before"
// leads usually have none.
func (m *WorkerMetrics) ObserveQuotedRange(service, gatingMode string, max int64) {
	if max <= 0 {
		return
	}
	m.quotedMax.WithLabelValues(service, gatingLabel(gatingMode)).Observe(float64(max))
}

func gatingLabel(mode string) string {
	switch mode {
	case "before", "after":
		return mode
	}
	return "unknown"
}
