package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/quotes", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	handler := m.Middleware("api", mux)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/quotes", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/random/123", nil))

	if got := testutil.ToFloat64(m.requestTotal.WithLabelValues("api", http.MethodPost, "POST /v1/quotes", "201")); got != 1 {
		t.Fatalf("expected one routed request, got %v", got)
	}
	if got := testutil.ToFloat64(m.requestTotal.WithLabelValues("api", http.MethodGet, "unmatched", "404")); got != 1 {
		t.Fatalf("expected one unmatched request, got %v", got)
	}
}

func TestProviderAndResilienceCounters(t *testing.T) {
	m := NewHTTPServerMetrics("api")

	m.ObserveProviderCall("image", "openai", "verification", 2*time.Second)
	m.ObserveProviderCall("image", "", "ok", time.Second)
	m.ObserveRetry("openai.chat", 1, nil)
	m.ObserveRetry("openai.chat", 2, nil)
	m.ObserveBreakerState("proxy.images", "closed", "open")
	m.ObserveFallback("openai", "gemini", nil)
	m.RecordEstimateSource("")

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"provider verification", testutil.ToFloat64(m.providerCallsTotal.WithLabelValues("api", "image", "openai", "verification")), 1},
		{"provider unknown", testutil.ToFloat64(m.providerCallsTotal.WithLabelValues("api", "image", "unknown", "ok")), 1},
		{"retries", testutil.ToFloat64(m.retriesTotal.WithLabelValues("api", "openai.chat")), 2},
		{"breaker", testutil.ToFloat64(m.breakerTransitions.WithLabelValues("api", "proxy.images", "closed", "open")), 1},
		{"fallback", testutil.ToFloat64(m.fallbacksTotal.WithLabelValues("api", "openai", "gemini")), 1},
		{"estimate source", testutil.ToFloat64(m.estimateSourcesTotal.WithLabelValues("api", "unknown")), 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Fatalf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}
