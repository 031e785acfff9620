package azure

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
	"github.com/kirillkom/facade-estimator/internal/core/fallback"
	"github.com/kirillkom/facade-estimator/internal/infrastructure/llm/llmhttp"
)

const DefaultAPIVersion = "2025-04-01-preview"

type Config struct {
	Endpoint        string
	APIKey          string
	APIVersion      string
	TextDeployment  string
	ImageDeployment string
	Timeout         time.Duration
}

type Client struct {
	cfg  Config
	http *llmhttp.Client
}

func New(cfg Config) *Client {
	if strings.TrimSpace(cfg.APIVersion) == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	return &Client{
		cfg:  cfg,
		http: llmhttp.New("azure", cfg.Endpoint, cfg.Timeout),
	}
}

func (c *Client) TextConfigured() bool {
	return c.cfg.Endpoint != "" && c.cfg.APIKey != "" && c.cfg.TextDeployment != ""
}

func (c *Client) ImageConfigured() bool {
	return c.cfg.Endpoint != "" && c.cfg.APIKey != "" && c.cfg.ImageDeployment != ""
}

func (c *Client) deploymentPath(deployment, operation string) string {
	return fmt.Sprintf("/openai/deployments/%s/%s?api-version=%s",
		url.PathEscape(deployment), operation, url.QueryEscape(c.cfg.APIVersion))
}

// authAttempts runs call with a bearer token first and the api-key header
// second, moving on only when the endpoint rejected the credentials.
func authAttempts[T any](ctx context.Context, c *Client, name string, call func(context.Context, llmhttp.Auth) (T, error)) (T, error) {
	alternatives := []fallback.Alternative[T]{
		{Name: name + ".bearer", Run: func(ctx context.Context) (T, error) { return call(ctx, llmhttp.Bearer(c.cfg.APIKey)) }},
		{Name: name + ".api-key", Run: func(ctx context.Context) (T, error) { return call(ctx, llmhttp.APIKey(c.cfg.APIKey)) }},
	}
	return fallback.FirstSuccess(ctx, alternatives, func(_ T, err error) bool {
		return llmhttp.IsAuthRejected(err)
	}, nil)
}

type TextCompleter struct {
	client  *Client
	retrier llmhttp.Retrier
}

func NewTextCompleter(client *Client, retrier llmhttp.Retrier) *TextCompleter {
	return &TextCompleter{client: client, retrier: retrier}
}

func (t *TextCompleter) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	cfg := t.client.cfg
	if !t.client.TextConfigured() {
		return "", llmhttp.NotConfigured("azure", "AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_API_KEY", "AZURE_OPENAI_TEXT_DEPLOYMENT")
	}

	body := llmhttp.NewChatRequest("", req)
	path := t.client.deploymentPath(cfg.TextDeployment, "chat/completions")
	var text string
	err := t.retrier.Do(ctx, "azure.chat", func(ctx context.Context) error {
		var resp llmhttp.ChatResponse
		if err := t.client.http.PostJSON(ctx, path, llmhttp.APIKey(cfg.APIKey), body, &resp, "chat"); err != nil {
			return err
		}
		text = resp.FirstChoiceText()
		return nil
	})
	if err != nil {
		return "", llmhttp.Classify("azure chat", err)
	}
	return text, nil
}

type ImageGenerator struct {
	client  *Client
	retrier llmhttp.Retrier
	onFall  fallback.NotifyFunc
}

func NewImageGenerator(client *Client, retrier llmhttp.Retrier) *ImageGenerator {
	return &ImageGenerator{client: client, retrier: retrier}
}

// WithFallbackObserver reports the edits to generations switch.
func (g *ImageGenerator) WithFallbackObserver(fn fallback.NotifyFunc) *ImageGenerator {
	g.onFall = fn
	return g
}

// Generate tries the edits endpoint and falls back to generations when edits
// fails or answers without an image. Each endpoint is retried on its own.
func (g *ImageGenerator) Generate(ctx context.Context, req domain.ImageRequest) (*domain.GeneratedImage, error) {
	if !g.client.ImageConfigured() {
		return nil, llmhttp.NotConfigured("azure", "AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_API_KEY", "AZURE_OPENAI_IMAGE_DEPLOYMENT")
	}

	alternatives := []fallback.Alternative[*domain.GeneratedImage]{
		{Name: "azure.images.edits", Run: func(ctx context.Context) (*domain.GeneratedImage, error) { return g.edit(ctx, req) }},
		{Name: "azure.images.generations", Run: func(ctx context.Context) (*domain.GeneratedImage, error) { return g.generate(ctx, req) }},
	}
	img, err := fallback.FirstSuccess(ctx, alternatives, moveOnWithoutImage, g.onFall)
	if err != nil {
		return nil, llmhttp.Classify("azure images", err)
	}
	return img, nil
}

func moveOnWithoutImage(img *domain.GeneratedImage, err error) bool {
	if errors.Is(err, context.Canceled) || domain.IsKind(err, domain.ErrInvalidInput) {
		return false
	}
	return err != nil || img.Empty()
}

func (g *ImageGenerator) edit(ctx context.Context, req domain.ImageRequest) (*domain.GeneratedImage, error) {
	photo, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "azure images edit", fmt.Errorf("decode facade photo: %w", err))
	}

	var form llmhttp.Form
	form.Add("prompt", req.Prompt)
	form.Add("size", sizeOrDefault(req.Size))
	form.Add("n", "1")
	form.Files = append(form.Files, llmhttp.FormFile{
		Field:    "image[]",
		Filename: llmhttp.ImageFilename("facade", req.ImageMIMEType),
		MIMEType: req.ImageMIMEType,
		Data:     photo,
	})
	if req.HasReference() {
		if ref, err := base64.StdEncoding.DecodeString(req.ReferenceBase64); err == nil && len(ref) > 0 {
			form.Files = append(form.Files, llmhttp.FormFile{
				Field:    "image[]",
				Filename: llmhttp.ImageFilename("material", req.ReferenceMIMEType),
				MIMEType: req.ReferenceMIMEType,
				Data:     ref,
			})
		}
	}

	path := g.client.deploymentPath(g.client.cfg.ImageDeployment, "images/edits")
	var img *domain.GeneratedImage
	err = g.retrier.Do(ctx, "azure.images.edits", func(ctx context.Context) error {
		out, err := authAttempts(ctx, g.client, "azure.images.edits", func(ctx context.Context, auth llmhttp.Auth) (*domain.GeneratedImage, error) {
			var resp llmhttp.ImagesResponse
			if err := g.client.http.PostMultipart(ctx, path, auth, form, &resp, "images edit"); err != nil {
				return nil, err
			}
			return resp.FirstImage(domain.ImageProviderAzure), nil
		})
		img = out
		return err
	})
	return img, err
}

type generationRequest struct {
	Prompt         string `json:"prompt"`
	Size           string `json:"size"`
	N              int    `json:"n"`
	Style          string `json:"style,omitempty"`
	Quality        string `json:"quality,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"`
}

func (g *ImageGenerator) generate(ctx context.Context, req domain.ImageRequest) (*domain.GeneratedImage, error) {
	body := generationRequest{
		Prompt:         req.Prompt,
		Size:           sizeOrDefault(req.Size),
		N:              1,
		Style:          "natural",
		Quality:        "hd",
		ResponseFormat: "b64_json",
	}

	path := g.client.deploymentPath(g.client.cfg.ImageDeployment, "images/generations")
	var img *domain.GeneratedImage
	err := g.retrier.Do(ctx, "azure.images.generations", func(ctx context.Context) error {
		out, err := authAttempts(ctx, g.client, "azure.images.generations", func(ctx context.Context, auth llmhttp.Auth) (*domain.GeneratedImage, error) {
			var resp llmhttp.ImagesResponse
			if err := g.client.http.PostJSON(ctx, path, auth, body, &resp, "images generation"); err != nil {
				return nil, err
			}
			return resp.FirstImage(domain.ImageProviderAzure), nil
		})
		img = out
		return err
	})
	return img, err
}

func sizeOrDefault(size string) string {
	if size == "" {
		return domain.DefaultImageSize
	}
	return size
}
