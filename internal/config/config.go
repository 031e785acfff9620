package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
)

type Config struct {
	APIPort  string
	LogLevel string

	TextProvider          string
	ImageProvider         string
	ImageFallbackProvider string
	UseMockData           bool
	LeadGatingMode        string
	PricingConfigPath     string

	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAITextModel  string
	OpenAIImageModel string

	AzureEndpoint        string
	AzureAPIKey          string
	AzureAPIVersion      string
	AzureTextDeployment  string
	AzureImageDeployment string

	GeminiAPIKey     string
	GeminiBaseURL    string
	GeminiTextModel  string
	GeminiImageModel string

	ImageProxyURL string

	MaterialsDir       string
	MaterialsCacheSize int

	NATSURL         string
	NATSLeadSubject string
	PostgresDSN     string

	TextAttemptTimeoutSeconds  int
	ImageAttemptTimeoutSeconds int
	BreakerEnabled             bool

	APIRateLimitRPS   float64
	APIRateLimitBurst int
	APIMaxInFlight    int

	WorkerMetricsPort string
}

// Load reads the process environment. A .env file in the working directory
// is applied first; variables already set win over it.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		TextProvider:          mustEnv("TEXT_PROVIDER", "none"),
		ImageProvider:         mustEnv("IMAGE_PROVIDER", "proxy"),
		ImageFallbackProvider: mustEnv("IMAGE_FALLBACK_PROVIDER", ""),
		UseMockData:           mustEnvBool("USE_MOCK_DATA", false),
		LeadGatingMode:        mustEnv("LEAD_GATING_MODE", string(domain.LeadGatingAfter)),
		PricingConfigPath:     mustEnv("PRICING_CONFIG", ""),

		OpenAIAPIKey:     mustEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    mustEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAITextModel:  mustEnv("OPENAI_TEXT_MODEL", "gpt-4o-mini"),
		OpenAIImageModel: mustEnv("OPENAI_IMAGE_MODEL", "gpt-image-1"),

		AzureEndpoint:        mustEnv("AZURE_OPENAI_ENDPOINT", ""),
		AzureAPIKey:          mustEnv("AZURE_OPENAI_API_KEY", ""),
		AzureAPIVersion:      mustEnv("AZURE_OPENAI_API_VERSION", "2025-04-01-preview"),
		AzureTextDeployment:  mustEnv("AZURE_OPENAI_TEXT_DEPLOYMENT", ""),
		AzureImageDeployment: mustEnv("AZURE_OPENAI_IMAGE_DEPLOYMENT", ""),

		GeminiAPIKey:     mustEnv("GEMINI_API_KEY", ""),
		GeminiBaseURL:    mustEnv("GEMINI_BASE_URL", ""),
		GeminiTextModel:  mustEnv("GEMINI_TEXT_MODEL", "gemini-2.0-flash"),
		GeminiImageModel: mustEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),

		ImageProxyURL: mustEnv("IMAGE_PROXY_URL", ""),

		MaterialsDir:       mustEnv("MATERIALS_DIR", ""),
		MaterialsCacheSize: mustEnvInt("MATERIALS_CACHE_SIZE", 32),

		NATSURL:         mustEnv("NATS_URL", ""),
		NATSLeadSubject: mustEnv("NATS_LEAD_SUBJECT", "facade.leads"),
		PostgresDSN:     mustEnv("POSTGRES_DSN", ""),

		TextAttemptTimeoutSeconds:  mustEnvInt("TEXT_ATTEMPT_TIMEOUT_SECONDS", 60),
		ImageAttemptTimeoutSeconds: mustEnvInt("IMAGE_ATTEMPT_TIMEOUT_SECONDS", 120),
		BreakerEnabled:             mustEnvBool("BREAKER_ENABLED", true),

		APIRateLimitRPS:   mustEnvFloat("API_RATE_LIMIT_RPS", 5),
		APIRateLimitBurst: mustEnvInt("API_RATE_LIMIT_BURST", 10),
		APIMaxInFlight:    mustEnvInt("API_MAX_IN_FLIGHT", 16),

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),
	}
}

// Providers holds the resolved provider tags.
type Providers struct {
	Text          domain.TextProvider
	Image         domain.ImageProvider
	ImageFallback domain.ImageProvider
}

func (c Config) Providers() (Providers, error) {
	text, err := domain.ParseTextProvider(c.TextProvider)
	if err != nil {
		return Providers{}, fmt.Errorf("TEXT_PROVIDER: %w", err)
	}
	image, err := domain.ParseImageProvider(c.ImageProvider)
	if err != nil {
		return Providers{}, fmt.Errorf("IMAGE_PROVIDER: %w", err)
	}
	fallback, err := domain.ParseImageFallback(c.ImageFallbackProvider)
	if err != nil {
		return Providers{}, fmt.Errorf("IMAGE_FALLBACK_PROVIDER: %w", err)
	}
	return Providers{Text: text, Image: image, ImageFallback: fallback}, nil
}

func (c Config) GatingMode() domain.LeadGatingMode {
	return domain.LeadGatingMode(strings.ToLower(strings.TrimSpace(c.LeadGatingMode)))
}

func (c Config) TextAttemptTimeout() time.Duration {
	return time.Duration(c.TextAttemptTimeoutSeconds) * time.Second
}

func (c Config) ImageAttemptTimeout() time.Duration {
	return time.Duration(c.ImageAttemptTimeoutSeconds) * time.Second
}

// Validate reports every invalid setting. Missing provider credentials are
// not errors: the registry reports those providers as not configured.
func (c Config) Validate() error {
	var errs []error
	if _, err := domain.ParseTextProvider(c.TextProvider); err != nil {
		errs = append(errs, fmt.Errorf("TEXT_PROVIDER: %w", err))
	}
	if _, err := domain.ParseImageProvider(c.ImageProvider); err != nil {
		errs = append(errs, fmt.Errorf("IMAGE_PROVIDER: %w", err))
	}
	if _, err := domain.ParseImageFallback(c.ImageFallbackProvider); err != nil {
		errs = append(errs, fmt.Errorf("IMAGE_FALLBACK_PROVIDER: %w", err))
	}
	switch c.GatingMode() {
	case domain.LeadGatingBefore, domain.LeadGatingAfter:
	default:
		errs = append(errs, fmt.Errorf("LEAD_GATING_MODE: must be %q or %q, got %q", domain.LeadGatingBefore, domain.LeadGatingAfter, c.LeadGatingMode))
	}
	if c.TextAttemptTimeoutSeconds < 0 {
		errs = append(errs, errors.New("TEXT_ATTEMPT_TIMEOUT_SECONDS must not be negative"))
	}
	if c.ImageAttemptTimeoutSeconds < 0 {
		errs = append(errs, errors.New("IMAGE_ATTEMPT_TIMEOUT_SECONDS must not be negative"))
	}
	if c.APIRateLimitRPS < 0 || c.APIRateLimitBurst < 0 || c.APIMaxInFlight < 0 {
		errs = append(errs, errors.New("API_RATE_LIMIT_RPS, API_RATE_LIMIT_BURST and API_MAX_IN_FLIGHT must not be negative"))
	}
	return errors.Join(errs...)
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
