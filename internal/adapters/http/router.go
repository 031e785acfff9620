package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/facade-estimator/internal/config"
	"github.com/kirillkom/facade-estimator/internal/core/domain"
	"github.com/kirillkom/facade-estimator/internal/core/ports"
	"github.com/kirillkom/facade-estimator/internal/infrastructure/provider"
	"github.com/kirillkom/facade-estimator/internal/observability/metrics"
)

const (
	maxBodyBytes        = 16 << 20
	backpressureTimeout = 250 * time.Millisecond
	// writeGrace is the time left to encode and send a response after the
	// route deadline fired.
	writeGrace = 30 * time.Second
)

// Deadlines bound the provider-backed routes. Zero leaves a route unbounded.
type Deadlines struct {
	Analyze   time.Duration
	Transform time.Duration
	Quote     time.Duration
}

// WriteTimeout lets the slowest bounded route still answer. Zero when no
// route is bounded.
func (d Deadlines) WriteTimeout() time.Duration {
	longest := max(d.Analyze, d.Transform, d.Quote)
	if longest <= 0 {
		return 0
	}
	return longest + writeGrace
}

type providerStatus interface {
	Status() provider.Status
}

// Services are the use cases the router exposes. Metrics may be nil.
type Services struct {
	Analyzer    ports.TextAnalyzer
	Transformer ports.ImageTransformer
	Quotes      ports.QuoteService
	Deriver     ports.Deriver
	Exporter    ports.QuoteExporter
	Providers   providerStatus
	Metrics     *metrics.HTTPServerMetrics
	Deadlines   Deadlines
}

type Router struct {
	cfg       config.Config
	svc       Services
	validator *requestValidator
}

func NewRouter(cfg config.Config, svc Services) (*Router, error) {
	validator, err := newRequestValidator()
	if err != nil {
		return nil, err
	}
	return &Router{cfg: cfg, svc: svc, validator: validator}, nil
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /v1/providers", rt.providers)
	mux.HandleFunc("GET /openapi.yaml", rt.openapi)
	mux.Handle("POST /v1/analyze", deadlineMiddleware(http.HandlerFunc(rt.analyze), rt.svc.Deadlines.Analyze))
	mux.HandleFunc("POST /v1/estimate", rt.estimate)
	mux.Handle("POST /v1/transform", deadlineMiddleware(http.HandlerFunc(rt.transform), rt.svc.Deadlines.Transform))
	mux.Handle("POST /v1/quotes", deadlineMiddleware(http.HandlerFunc(rt.submitQuote), rt.svc.Deadlines.Quote))
	mux.HandleFunc("POST /v1/quotes/export", rt.exportQuote)
	mux.HandleFunc("POST /v1/leads", rt.submitLead)

	var onRateLimited, onOverload func()
	if rt.svc.Metrics != nil {
		mux.Handle("GET /metrics", rt.svc.Metrics.Handler())
		onRateLimited = rt.svc.Metrics.RecordRateLimited
		onOverload = rt.svc.Metrics.RecordBackpressureRejection
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, backpressureTimeout, onOverload)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, onRateLimited)
	if rt.svc.Metrics != nil {
		handler = rt.svc.Metrics.Middleware("api", handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) openapi(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(OpenAPISpec())
}

func (rt *Router) providers(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{
		"mock":       rt.cfg.UseMockData,
		"gatingMode": rt.svc.Quotes.GatingMode(),
	}
	if rt.svc.Providers != nil {
		resp["providers"] = rt.svc.Providers.Status()
	}
	writeJSON(w, http.StatusOK, resp)
}

type analyzeResponse struct {
	Text     string                `json:"text"`
	Provider domain.TextProvider   `json:"provider"`
	Local    bool                  `json:"local"`
	Estimate domain.ParsedEstimate `json:"estimate"`
	Source   domain.EstimateSource `json:"source"`
}

func (rt *Router) analyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Selection domain.ProjectSelection `json:"selection"`
	}
	if !rt.decode(w, r, "AnalyzeRequest", &req) {
		return
	}

	analysis, err := rt.svc.Analyzer.Analyze(r.Context(), req.Selection)
	if err != nil {
		writeError(w, r, err)
		return
	}
	est := rt.svc.Deriver.Derive(analysis.Text, req.Selection.SurfaceArea)
	rt.recordSource(est.Source)

	writeJSON(w, http.StatusOK, analyzeResponse{
		Text:     analysis.Text,
		Provider: analysis.Provider,
		Local:    analysis.Local,
		Estimate: est,
		Source:   est.Source,
	})
}

func (rt *Router) estimate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text        string `json:"text"`
		SurfaceArea string `json:"surfaceArea"`
	}
	if !rt.decode(w, r, "EstimateRequest", &req) {
		return
	}

	est := rt.svc.Deriver.Derive(req.Text, req.SurfaceArea)
	rt.recordSource(est.Source)
	writeJSON(w, http.StatusOK, est)
}

type transformResponse struct {
	Image   *domain.GeneratedImage `json:"image"`
	Status  domain.ImageStatus     `json:"status"`
	Message string                 `json:"message,omitempty"`
}

func (rt *Router) transform(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Selection   domain.ProjectSelection `json:"selection"`
		ImageBase64 string                  `json:"imageBase64"`
		MIMEType    string                  `json:"mimeType"`
	}
	if !rt.decode(w, r, "TransformRequest", &req) {
		return
	}
	img, err := domain.DecodeUploadedImage(req.ImageBase64, req.MIMEType)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out, err := rt.svc.Transformer.Transform(r.Context(), req.Selection, img)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if out == nil {
		writeJSON(w, http.StatusOK, transformResponse{
			Status:  domain.ImagePending,
			Message: "The visualization is not available yet.",
		})
		return
	}
	writeJSON(w, http.StatusOK, transformResponse{Image: out, Status: domain.ImageReady})
}

func (rt *Router) submitQuote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Selection   domain.ProjectSelection `json:"selection"`
		ImageBase64 string                  `json:"imageBase64"`
		MIMEType    string                  `json:"mimeType"`
	}
	if !rt.decode(w, r, "QuoteRequest", &req) {
		return
	}
	img, err := domain.DecodeUploadedImage(req.ImageBase64, req.MIMEType)
	if err != nil {
		writeError(w, r, err)
		return
	}

	quote, err := rt.svc.Quotes.Submit(r.Context(), ports.QuoteRequest{Selection: req.Selection, Image: img})
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt.recordSource(quote.Estimate.Source)
	writeJSON(w, http.StatusOK, quote)
}

func (rt *Router) exportQuote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quote domain.Quote `json:"quote"`
	}
	if !rt.decode(w, r, "ExportRequest", &req) {
		return
	}

	raw, err := rt.svc.Exporter.Export(req.Quote)
	if err != nil {
		slog.Error("quote_export_failed", "quote_id", req.Quote.ID, "error", err)
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", rt.svc.Exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "facade-quote-"+req.Quote.ID+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (rt *Router) submitLead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuoteID   string                  `json:"quoteId"`
		Contact   domain.Contact          `json:"contact"`
		Selection domain.ProjectSelection `json:"selection"`
		Range     *domain.InvestmentRange `json:"investmentRange"`
	}
	if !rt.decode(w, r, "LeadRequest", &req) {
		return
	}

	lead, err := rt.svc.Quotes.SubmitLead(r.Context(), ports.LeadRequest{
		QuoteID:   req.QuoteID,
		Contact:   req.Contact,
		Selection: req.Selection,
		Range:     req.Range,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"id": lead.ID, "status": "accepted"})
}

// decode reads the body, validates it against schema and unmarshals it into
// dst. It writes the error response itself and reports whether to go on.
func (rt *Router) decode(w http.ResponseWriter, r *http.Request, schema string, dst any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
				Error:     "request body is too large",
				Kind:      "invalid_input",
				RequestID: requestIDFromContext(r.Context()),
			})
			return false
		}
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "read request", err))
		return false
	}
	if err := rt.validator.validate(schema, body); err != nil {
		writeError(w, r, err)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "decode request", err))
		return false
	}
	return true
}

func (rt *Router) recordSource(source domain.EstimateSource) {
	if rt.svc.Metrics != nil {
		rt.svc.Metrics.RecordEstimateSource(string(source))
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
