package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	providerCallsTotal    *prometheus.CounterVec
	providerCallDuration  *prometheus.HistogramVec
	retriesTotal          *prometheus.CounterVec
	breakerTransitions    *prometheus.CounterVec
	fallbacksTotal        *prometheus.CounterVec
	estimateSourcesTotal  *prometheus.CounterVec
	rateLimitedTotal      prometheus.Counter
	backpressureRejection prometheus.Counter
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facade",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "facade",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "facade",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	providerCallsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facade",
			Subsystem: "provider",
			Name:      "calls_total",
			Help:      "Orchestrated provider calls by stage, provider and outcome.",
		},
		[]string{"service", "stage", "provider", "outcome"},
	)
	providerCallDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "facade",
			Subsystem: "provider",
			Name:      "call_duration_seconds",
			Help:      "Provider call duration in seconds, retries included.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 120, 240},
		},
		[]string{"service", "stage", "provider"},
	)
	retriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facade",
			Subsystem: "resilience",
			Name:      "retries_total",
			Help:      "Retries scheduled by operation.",
		},
		[]string{"service", "operation"},
	)
	breakerTransitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facade",
			Subsystem: "resilience",
			Name:      "breaker_transitions_total",
			Help:      "Circuit breaker state transitions by operation.",
		},
		[]string{"service", "operation", "from", "to"},
	)
	fallbacksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facade",
			Subsystem: "resilience",
			Name:      "fallbacks_total",
			Help:      "Moves from one alternative to the next.",
		},
		[]string{"service", "from", "to"},
	)
	estimateSourcesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facade",
			Subsystem: "estimate",
			Name:      "derived_total",
			Help:      "Derived estimates by the rule that produced the range.",
		},
		[]string{"service", "source"},
	)
	rateLimitedTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   "facade",
			Subsystem:   "http",
			Name:        "rate_limited_total",
			Help:        "Requests rejected by the rate limiter.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	backpressureRejection := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   "facade",
			Subsystem:   "http",
			Name:        "backpressure_rejected_total",
			Help:        "Requests rejected because too many were in flight.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		providerCallsTotal,
		providerCallDuration,
		retriesTotal,
		breakerTransitions,
		fallbacksTotal,
		estimateSourcesTotal,
		rateLimitedTotal,
		backpressureRejection,
	)

	return &HTTPServerMetrics{
		registry:              registry,
		service:               service,
		requestTotal:          requestTotal,
		requestDuration:       requestDuration,
		requestInFlight:       requestInFlight,
		providerCallsTotal:    providerCallsTotal,
		providerCallDuration:  providerCallDuration,
		retriesTotal:          retriesTotal,
		breakerTransitions:    breakerTransitions,
		fallbacksTotal:        fallbacksTotal,
		estimateSourcesTotal:  estimateSourcesTotal,
		rateLimitedTotal:      rateLimitedTotal,
		backpressureRejection: backpressureRejection,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		// The mux fills Pattern while routing; unknown paths share one label.
		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// ObserveProviderCall records one orchestrated call to a text or image provider.
func (m *HTTPServerMetrics) ObserveProviderCall(stage, provider, outcome string, duration time.Duration) {
	if provider == "" {
		provider = "unknown"
	}
	m.providerCallsTotal.WithLabelValues(m.service, stage, provider, outcome).Inc()
	m.providerCallDuration.WithLabelValues(m.service, stage, provider).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) ObserveRetry(operation string, _ int, _ error) {
	m.retriesTotal.WithLabelValues(m.service, operation).Inc()
}

func (m *HTTPServerMetrics) ObserveBreakerState(operation, from, to string) {
	m.breakerTransitions.WithLabelValues(m.service, operation, from, to).Inc()
}

// ObserveFallback has the shape of fallback.NotifyFunc.
func (m *HTTPServerMetrics) ObserveFallback(from, to string, _ error) {
	m.fallbacksTotal.WithLabelValues(m.service, from, to).Inc()
}

func (m *HTTPServerMetrics) RecordEstimateSource(source string) {
	if source == "" {
		source = "unknown"
	}
	m.estimateSourcesTotal.WithLabelValues(m.service, source).Inc()
}

func (m *HTTPServerMetrics) RecordRateLimited() {
	m.rateLimitedTotal.Inc()
}

func (m *HTTPServerMetrics) RecordBackpressureRejection() {
	m.backpressureRejection.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
