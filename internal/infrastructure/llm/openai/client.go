package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
	"github.com/kirillkom/facade-estimator/internal/infrastructure/llm/llmhttp"
)

const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultTextModel  = "gpt-4o-mini"
	DefaultImageModel = "gpt-image-1"

	verificationMarker = "must be verified"
)

type Config struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
	Timeout    time.Duration
}

type Client struct {
	cfg  Config
	http *llmhttp.Client
}

func New(cfg Config) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(cfg.TextModel) == "" {
		cfg.TextModel = DefaultTextModel
	}
	if strings.TrimSpace(cfg.ImageModel) == "" {
		cfg.ImageModel = DefaultImageModel
	}
	return &Client{
		cfg:  cfg,
		http: llmhttp.New("openai", cfg.BaseURL, cfg.Timeout),
	}
}

func (c *Client) Configured() bool {
	return strings.TrimSpace(c.cfg.APIKey) != ""
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
		return "", llmhttp.NotConfigured("openai", "OPENAI_API_KEY")
	}

	body := llmhttp.NewChatRequest(t.client.cfg.TextModel, req)
	var text string
	err := t.retrier.Do(ctx, "openai.chat", func(ctx context.Context) error {
		var resp llmhttp.ChatResponse
		if err := t.client.http.PostJSON(ctx, "/chat/completions", llmhttp.Bearer(t.client.cfg.APIKey), body, &resp, "chat"); err != nil {
			return err
		}
		text = resp.FirstChoiceText()
		return nil
	})
	if err != nil {
		return "", llmhttp.Classify("openai chat", err)
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

// Generate calls the edits endpoint with the photo and, when present, the
// material reference as a second image.
func (g *ImageGenerator) Generate(ctx context.Context, req domain.ImageRequest) (*domain.GeneratedImage, error) {
	if !g.client.Configured() {
		return nil, llmhttp.NotConfigured("openai", "OPENAI_API_KEY")
	}
	form, err := g.editForm(req)
	if err != nil {
		return nil, err
	}

	var img *domain.GeneratedImage
	err = g.retrier.Do(ctx, "openai.images.edit", func(ctx context.Context) error {
		var resp llmhttp.ImagesResponse
		if err := g.client.http.PostMultipart(ctx, "/images/edits", llmhttp.Bearer(g.client.cfg.APIKey), form, &resp, "images edit"); err != nil {
			return err
		}
		img = resp.FirstImage(domain.ImageProviderOpenAI)
		return nil
	})
	if err != nil {
		if IsVerificationError(err) {
			return nil, domain.WrapError(domain.ErrVerificationRequired, "openai images edit", err)
		}
		return nil, llmhttp.Classify("openai images edit", err)
	}
	return img, nil
}

func (g *ImageGenerator) editForm(req domain.ImageRequest) (llmhttp.Form, error) {
	photo, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		return llmhttp.Form{}, domain.WrapError(domain.ErrInvalidInput, "openai images edit", fmt.Errorf("decode facade photo: %w", err))
	}
	if len(photo) == 0 {
		return llmhttp.Form{}, domain.WrapError(domain.ErrInvalidInput, "openai images edit", fmt.Errorf("facade photo is empty"))
	}

	size := req.Size
	if size == "" {
		size = domain.DefaultImageSize
	}

	var form llmhttp.Form
	form.Add("model", g.client.cfg.ImageModel)
	form.Add("prompt", req.Prompt)
	form.Add("size", size)
	form.Add("n", "1")
	// gpt-image models always return base64 and reject response_format.
	if !strings.HasPrefix(g.client.cfg.ImageModel, "gpt-image") {
		form.Add("response_format", "b64_json")
	}
	form.Files = append(form.Files, llmhttp.FormFile{
		Field:    "image[]",
		Filename: llmhttp.ImageFilename("facade", req.ImageMIMEType),
		MIMEType: req.ImageMIMEType,
		Data:     photo,
	})

	if req.HasReference() {
		ref, err := base64.StdEncoding.DecodeString(req.ReferenceBase64)
		if err == nil && len(ref) > 0 {
			form.Files = append(form.Files, llmhttp.FormFile{
				Field:    "image[]",
				Filename: llmhttp.ImageFilename("material", req.ReferenceMIMEType),
				MIMEType: req.ReferenceMIMEType,
				Data:     ref,
			})
		}
	}
	return form, nil
}

// IsVerificationError matches the 403 returned to organizations that have not
// completed verification for image editing.
func IsVerificationError(err error) bool {
	return llmhttp.StatusCode(err) == http.StatusForbidden && llmhttp.BodyContains(err, verificationMarker)
}
