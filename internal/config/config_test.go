package config

import (
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"TEXT_PROVIDER", "IMAGE_PROVIDER", "IMAGE_FALLBACK_PROVIDER", "LEAD_GATING_MODE", "TEXT_ATTEMPT_TIMEOUT_SECONDS", "IMAGE_ATTEMPT_TIMEOUT_SECONDS", "USE_MOCK_DATA"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	providers, err := cfg.Providers()
	if err != nil {
		t.Fatalf("Providers() error = %v", err)
	}
	if providers.Text != domain.TextProviderNone || providers.Image != domain.ImageProviderProxy || providers.ImageFallback != domain.ImageProviderNone {
		t.Fatalf("unexpected default providers: %+v", providers)
	}
	if cfg.GatingMode() != domain.LeadGatingAfter {
		t.Fatalf("expected default gating mode after, got %q", cfg.GatingMode())
	}
	if cfg.TextAttemptTimeout() != 60*time.Second || cfg.ImageAttemptTimeout() != 120*time.Second {
		t.Fatalf("unexpected attempt timeouts: %s %s", cfg.TextAttemptTimeout(), cfg.ImageAttemptTimeout())
	}
	if cfg.UseMockData {
		t.Fatalf("mock data must be off by default")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("TEXT_PROVIDER", "azure-openai")
	t.Setenv("IMAGE_PROVIDER", "openai")
	t.Setenv("IMAGE_FALLBACK_PROVIDER", "gemini")
	t.Setenv("LEAD_GATING_MODE", "Before")
	t.Setenv("TEXT_ATTEMPT_TIMEOUT_SECONDS", "15")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("USE_MOCK_DATA", "true")

	cfg := Load()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	providers, err := cfg.Providers()
	if err != nil {
		t.Fatalf("Providers() error = %v", err)
	}
	if providers.Text != domain.TextProviderAzure || providers.Image != domain.ImageProviderOpenAI || providers.ImageFallback != domain.ImageProviderGemini {
		t.Fatalf("unexpected providers: %+v", providers)
	}
	if cfg.GatingMode() != domain.LeadGatingBefore {
		t.Fatalf("expected gating mode before, got %q", cfg.GatingMode())
	}
	if cfg.TextAttemptTimeout() != 15*time.Second {
		t.Fatalf("expected 15s text timeout, got %s", cfg.TextAttemptTimeout())
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rps 2.5, got %v", cfg.APIRateLimitRPS)
	}
	if !cfg.UseMockData {
		t.Fatalf("expected mock data on")
	}
}

func TestLoadFallsBackOnMalformedNumbers(t *testing.T) {
	t.Setenv("MATERIALS_CACHE_SIZE", "many")
	t.Setenv("API_RATE_LIMIT_RPS", "fast")
	t.Setenv("BREAKER_ENABLED", "maybe")

	cfg := Load()
	if cfg.MaterialsCacheSize != 32 || cfg.APIRateLimitRPS != 5 || !cfg.BreakerEnabled {
		t.Fatalf("unexpected fallbacks: cache=%d rps=%v breaker=%v", cfg.MaterialsCacheSize, cfg.APIRateLimitRPS, cfg.BreakerEnabled)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Config{
		TextProvider:               "claude",
		ImageProvider:              "dalle",
		LeadGatingMode:             "never",
		ImageAttemptTimeoutSeconds: -1,
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"TEXT_PROVIDER", "IMAGE_PROVIDER", "LEAD_GATING_MODE", "IMAGE_ATTEMPT_TIMEOUT_SECONDS"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %s in %v", want, err)
		}
	}
}
