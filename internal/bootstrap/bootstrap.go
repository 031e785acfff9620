package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/facade-estimator/internal/config"
	"github.com/kirillkom/facade-estimator/internal/core/domain"
	"github.com/kirillkom/facade-estimator/internal/core/estimate"
	"github.com/kirillkom/facade-estimator/internal/core/ports"
	"github.com/kirillkom/facade-estimator/internal/core/usecase"
	"github.com/kirillkom/facade-estimator/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/facade-estimator/internal/infrastructure/llm/azure"
	"github.com/kirillkom/facade-estimator/internal/infrastructure/llm/gemini"
	"github.com/kirillkom/facade-estimator/internal/infrastructure/llm/llmhttp"
	"github.com/kirillkom/facade-estimator/internal/infrastructure/llm/openai"
	"github.com/kirillkom/facade-estimator/internal/infrastructure/llm/proxy"
	"github.com/kirillkom/facade-estimator/internal/infrastructure/materials"
	"github.com/kirillkom/facade-estimator/internal/infrastructure/provider"
	"github.com/kirillkom/facade-estimator/internal/infrastructure/queue/nats"
	"github.com/kirillkom/facade-estimator/internal/infrastructure/resilience"
	"github.com/kirillkom/facade-estimator/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Pricing   estimate.Pricing
	Deriver   *estimate.Deriver
	Registry  *provider.Registry
	Metrics   *metrics.HTTPServerMetrics
	Leads     *nats.LeadQueue
	Analyzer  ports.TextAnalyzer
	Transform ports.ImageTransformer
	Quotes    ports.QuoteService
	Exporter  ports.QuoteExporter
	Budgets   Budgets

	closeFn func()
}

// Budgets are the longest a text or image stage can run once retries and
// fallbacks are exhausted.
type Budgets struct {
	Text  time.Duration
	Image time.Duration
}

// unboundedStage caps a whole stage whose attempts have no timeout.
const unboundedStage = 10 * time.Minute

// StageBudgets derives the stage budgets from the retry policies. Every image
// provider may chain two endpoints (azure edits then generations), and a
// configured fallback provider repeats the whole chain.
func StageBudgets(cfg config.Config, tags config.Providers) Budgets {
	text := resilience.TextPolicy().WithTimeout(cfg.TextAttemptTimeout()).Budget()
	if text == 0 {
		text = unboundedStage
	}
	image := resilience.ImagePolicy().WithTimeout(cfg.ImageAttemptTimeout()).Budget()
	if image == 0 {
		return Budgets{Text: text, Image: unboundedStage}
	}
	legs := 2
	if tags.ImageFallback != domain.ImageProviderNone {
		legs *= 2
	}
	return Budgets{Text: text, Image: time.Duration(legs) * image}
}

// New wires the API process. The lead queue is optional: without NATS_URL
// leads are only logged.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	tags, err := cfg.Providers()
	if err != nil {
		return nil, err
	}

	pricing, err := loadPricing(cfg.PricingConfigPath)
	if err != nil {
		return nil, err
	}
	deriver := estimate.NewDeriver(pricing)

	httpMetrics := metrics.NewHTTPServerMetrics("api")
	breaker := resilience.DefaultConfig()
	breaker.BreakerEnabled = cfg.BreakerEnabled
	executor := resilience.NewExecutor(breaker).WithObserver(httpMetrics)

	registry, err := newRegistry(ctx, cfg, tags, executor, httpMetrics)
	if err != nil {
		return nil, err
	}

	library, err := materials.New(cfg.MaterialsDir, cfg.MaterialsCacheSize)
	if err != nil {
		return nil, fmt.Errorf("init materials library: %w", err)
	}

	var (
		leads     *nats.LeadQueue
		publisher ports.LeadPublisher
	)
	if cfg.NATSURL != "" {
		policy := resilience.DefaultPolicy()
		leads, err = nats.NewWithOptions(cfg.NATSURL, cfg.NATSLeadSubject, nats.Options{
			ResilienceExecutor: executor,
			Policy:             &policy,
		})
		if err != nil {
			return nil, fmt.Errorf("init lead queue: %w", err)
		}
		publisher = leads
	}

	analyzer := usecase.NewAnalysisUseCase(registry, deriver, cfg.UseMockData).WithObserver(httpMetrics)
	transformer := usecase.NewTransformUseCase(registry, library, cfg.UseMockData).
		WithObserver(httpMetrics).
		WithFallbackObserver(httpMetrics.ObserveFallback)
	quotes := usecase.NewQuoteUseCase(analyzer, transformer, deriver, publisher, cfg.GatingMode())

	status := registry.Status()
	slog.Info("providers_selected",
		"text", status.Text,
		"text_local", status.TextLocal,
		"image", status.Image,
		"image_fallback", status.ImageFallback,
		"mock", cfg.UseMockData,
		"gating_mode", quotes.GatingMode(),
		"lead_queue", leads != nil,
	)

	return &App{
		Config:    cfg,
		Pricing:   pricing,
		Deriver:   deriver,
		Registry:  registry,
		Metrics:   httpMetrics,
		Leads:     leads,
		Analyzer:  analyzer,
		Transform: transformer,
		Quotes:    quotes,
		Exporter:  xlsx.New(pricing.Currency),
		Budgets:   StageBudgets(cfg, tags),

		closeFn: func() {
			if leads != nil {
				leads.Close()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func loadPricing(path string) (estimate.Pricing, error) {
	if path == "" {
		return estimate.DefaultPricing(), nil
	}
	pricing, err := estimate.LoadPricing(path)
	if err != nil {
		return estimate.Pricing{}, fmt.Errorf("load pricing: %w", err)
	}
	return pricing, nil
}

// newRegistry builds every adapter, whether selected or not, so the providers
// endpoint can report which ones have credentials.
func newRegistry(
	ctx context.Context,
	cfg config.Config,
	tags config.Providers,
	executor *resilience.Executor,
	httpMetrics *metrics.HTTPServerMetrics,
) (*provider.Registry, error) {
	text := llmhttp.Retrier{
		Executor: executor,
		Policy:   resilience.TextPolicy().WithTimeout(cfg.TextAttemptTimeout()),
	}
	image := llmhttp.Retrier{
		Executor: executor,
		Policy:   resilience.ImagePolicy().WithTimeout(cfg.ImageAttemptTimeout()),
	}

	openaiClient := openai.New(openai.Config{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		TextModel:  cfg.OpenAITextModel,
		ImageModel: cfg.OpenAIImageModel,
		Timeout:    cfg.ImageAttemptTimeout(),
	})
	azureClient := azure.New(azure.Config{
		Endpoint:        cfg.AzureEndpoint,
		APIKey:          cfg.AzureAPIKey,
		APIVersion:      cfg.AzureAPIVersion,
		TextDeployment:  cfg.AzureTextDeployment,
		ImageDeployment: cfg.AzureImageDeployment,
		Timeout:         cfg.ImageAttemptTimeout(),
	})
	geminiClient, err := gemini.New(ctx, gemini.Config{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		TextModel:  cfg.GeminiTextModel,
		ImageModel: cfg.GeminiImageModel,
		Timeout:    cfg.ImageAttemptTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}
	proxyGenerator := proxy.NewImageGenerator(cfg.ImageProxyURL, cfg.ImageAttemptTimeout(), image)

	registry := provider.NewRegistry(provider.Settings{
		Text:          tags.Text,
		Image:         tags.Image,
		ImageFallback: tags.ImageFallback,
	})
	registry.
		RegisterText(domain.TextProviderOpenAI, openai.NewTextCompleter(openaiClient, text), openaiClient.Configured()).
		RegisterText(domain.TextProviderAzure, azure.NewTextCompleter(azureClient, text), azureClient.TextConfigured()).
		RegisterText(domain.TextProviderGemini, gemini.NewTextCompleter(geminiClient, text), geminiClient.Configured()).
		RegisterImage(domain.ImageProviderOpenAI, openai.NewImageGenerator(openaiClient, image), openaiClient.Configured()).
		RegisterImage(domain.ImageProviderAzure,
			azure.NewImageGenerator(azureClient, image).WithFallbackObserver(httpMetrics.ObserveFallback),
			azureClient.ImageConfigured()).
		RegisterImage(domain.ImageProviderGemini, gemini.NewImageGenerator(geminiClient, image), geminiClient.Configured()).
		RegisterImage(domain.ImageProviderProxy, proxyGenerator, proxyGenerator.Configured())
	return registry, nil
}
