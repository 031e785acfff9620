package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	genai "google.golang.org/genai"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
	"github.com/kirillkom/facade-estimator/internal/infrastructure/llm/llmhttp"
)

const (
	DefaultTextModel  = "gemini-2.0-flash"
	DefaultImageModel = "gemini-2.5-flash-image"
)

type Config struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
	Timeout    time.Duration
}

// Client wraps the official genai client. It is nil-safe: without an API key
// no SDK client is created and every call reports a configuration error.
type Client struct {
	cfg Config
	cli *genai.Client
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.TextModel) == "" {
		cfg.TextModel = DefaultTextModel
	}
	if strings.TrimSpace(cfg.ImageModel) == "" {
		cfg.ImageModel = DefaultImageModel
	}
	c := &Client{cfg: cfg}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return c, nil
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: timeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	c.cli = cli
	return c, nil
}

func (c *Client) Configured() bool {
	return c != nil && c.cli != nil
}

type TextCompleter struct {
	client  *Client
	retrier llmhttp.Retrier
}

func NewTextCompleter(client *Client, retrier llmhttp.Retrier) *TextCompleter {
	return &TextCompleter{client: client, retrier: retrier}
}

func (t *TextCompleter) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	if !t.client.Configured() {
		return "", llmhttp.NotConfigured("gemini", "GEMINI_API_KEY")
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = domain.DefaultTemperature
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = domain.DefaultMaxTokens
	}
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(temperature),
		MaxOutputTokens: int32(maxTokens),
	}
	if strings.TrimSpace(req.System) != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: req.Prompt}}}}

	var text string
	err := t.retrier.Do(ctx, "gemini.generate_text", func(ctx context.Context) error {
		resp, err := t.client.cli.Models.GenerateContent(ctx, t.client.cfg.TextModel, contents, config)
		if err != nil {
			return fmt.Errorf("gemini generate text: %w", err)
		}
		text = firstText(resp)
		return nil
	})
	if err != nil {
		return "", llmhttp.Classify("gemini text", err)
	}
	return text, nil
}

type ImageGenerator struct {
	client  *Client
	retrier llmhttp.Retrier
}

func NewImageGenerator(client *Client, retrier llmhttp.Retrier) *ImageGenerator {
	return &ImageGenerator{client: client, retrier: retrier}
}

// Generate sends prompt, photo and optional reference as ordered parts and
// returns the first inline image of the answer.
func (g *ImageGenerator) Generate(ctx context.Context, req domain.ImageRequest) (*domain.GeneratedImage, error) {
	if !g.client.Configured() {
		return nil, llmhttp.NotConfigured("gemini", "GEMINI_API_KEY")
	}
	parts, err := imageParts(req)
	if err != nil {
		return nil, err
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}
	config := &genai.GenerateContentConfig{ResponseModalities: []string{"IMAGE", "TEXT"}}

	var img *domain.GeneratedImage
	err = g.retrier.Do(ctx, "gemini.generate_image", func(ctx context.Context) error {
		resp, err := g.client.cli.Models.GenerateContent(ctx, g.client.cfg.ImageModel, contents, config)
		if err != nil {
			return fmt.Errorf("gemini generate image: %w", err)
		}
		img = firstInlineImage(resp)
		return nil
	})
	if err != nil {
		return nil, llmhttp.Classify("gemini image", err)
	}
	return img, nil
}

func imageParts(req domain.ImageRequest) ([]*genai.Part, error) {
	photo, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "gemini image", fmt.Errorf("decode facade photo: %w", err))
	}
	parts := []*genai.Part{
		{Text: req.Prompt},
		{InlineData: &genai.Blob{Data: photo, MIMEType: mimeOrPNG(req.ImageMIMEType)}},
	}
	if req.HasReference() {
		if ref, err := base64.StdEncoding.DecodeString(req.ReferenceBase64); err == nil && len(ref) > 0 {
			parts = append(parts, &genai.Part{InlineData: &genai.Blob{Data: ref, MIMEType: mimeOrPNG(req.ReferenceMIMEType)}})
		}
	}
	return parts, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var b strings.Builder
		for _, part := range cand.Content.Parts {
			if part != nil && part.Text != "" {
				b.WriteString(part.Text)
			}
		}
		if b.Len() > 0 {
			return strings.TrimSpace(b.String())
		}
	}
	return ""
}

func firstInlineImage(resp *genai.GenerateContentResponse) *domain.GeneratedImage {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			if !strings.HasPrefix(part.InlineData.MIMEType, "image/") {
				continue
			}
			return &domain.GeneratedImage{
				Base64:   base64.StdEncoding.EncodeToString(part.InlineData.Data),
				MIMEType: part.InlineData.MIMEType,
				Provider: domain.ImageProviderGemini,
			}
		}
	}
	return nil
}

func mimeOrPNG(mimeType string) string {
	if mimeType == "" {
		return "image/png"
	}
	return mimeType
}
