package azure

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
	"github.com/kirillkom/facade-estimator/internal/infrastructure/llm/llmhttp"
)

func testConfig(endpoint string) Config {
	return Config{
		Endpoint:        endpoint,
		APIKey:          "azure-key",
		TextDeployment:  "gpt-4o",
		ImageDeployment: "gpt-image-1",
	}
}

func authStyle(r *http.Request) string {
	if r.Header.Get("Authorization") != "" {
		return "bearer"
	}
	if r.Header.Get("api-key") != "" {
		return "api-key"
	}
	return "none"
}

func TestGenerateFallsBackAcrossAuthStylesAndEndpoints(t *testing.T) {
	var calls []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("api-version"); got != DefaultAPIVersion {
			t.Fatalf("unexpected api-version %q", got)
		}
		endpoint := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		style := authStyle(r)
		calls = append(calls, endpoint+":"+style)

		switch {
		case endpoint == "edits" && style == "bearer":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"401 bad token"}`))
		case endpoint == "edits":
			_, _ = w.Write([]byte(`{"data":[]}`))
		case endpoint == "generations" && style == "bearer":
			w.WriteHeader(http.StatusForbidden)
		case endpoint == "generations":
			var body generationRequest
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("decode generations body: %v", err)
			}
			if body.N != 1 || body.ResponseFormat != "b64_json" || body.Size != "1024x1024" {
				t.Fatalf("unexpected generations body %+v", body)
			}
			_, _ = w.Write([]byte(`{"data":[{"b64_json":"R0VO"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	var fallbacks []string
	gen := NewImageGenerator(New(testConfig(server.URL)), llmhttp.Retrier{}).
		WithFallbackObserver(func(from, to string, _ error) { fallbacks = append(fallbacks, from+"->"+to) })

	img, err := gen.Generate(context.Background(), domain.ImageRequest{
		Prompt:        "natural stone",
		ImageBase64:   base64.StdEncoding.EncodeToString([]byte("photo")),
		ImageMIMEType: "image/png",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if img == nil || img.Base64 != "R0VO" {
		t.Fatalf("unexpected image %+v", img)
	}

	want := []string{"edits:bearer", "edits:api-key", "generations:bearer", "generations:api-key"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected call sequence %v", calls)
	}
	if len(fallbacks) != 1 || fallbacks[0] != "azure.images.edits->azure.images.generations" {
		t.Fatalf("unexpected endpoint fallbacks %v", fallbacks)
	}
}

func TestGenerateDoesNotSwitchAuthOnBadRequest(t *testing.T) {
	var calls []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, authStyle(r))
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	gen := NewImageGenerator(New(testConfig(server.URL)), llmhttp.Retrier{})
	_, err := gen.Generate(context.Background(), domain.ImageRequest{
		Prompt:      "p",
		ImageBase64: base64.StdEncoding.EncodeToString([]byte("photo")),
	})
	if !domain.IsKind(err, domain.ErrNonRetryable) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
	// one bearer call per endpoint, no api-key retries
	if len(calls) != 2 || calls[0] != "bearer" || calls[1] != "bearer" {
		t.Fatalf("unexpected calls %v", calls)
	}
}

func TestCompleteUsesDeploymentPathAndAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openai/deployments/gpt-4o/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("api-key") != "azure-key" {
			t.Fatalf("expected api-key header")
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"analysis"}}]}`))
	}))
	defer server.Close()

	text, err := NewTextCompleter(New(testConfig(server.URL)), llmhttp.Retrier{}).
		Complete(context.Background(), domain.CompletionRequest{Prompt: "p"})
	if err != nil || text != "analysis" {
		t.Fatalf("Complete() = %q, %v", text, err)
	}
}

func TestUnconfiguredDeploymentIsConfigurationError(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.ImageDeployment = ""
	_, err := NewImageGenerator(New(cfg), llmhttp.Retrier{}).Generate(context.Background(), domain.ImageRequest{})
	if !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
