package proxy

import (
	"context"
	"strings"
	"time"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
	"github.com/kirillkom/facade-estimator/internal/infrastructure/llm/llmhttp"
)

// ImageGenerator forwards the edit to a pass-through endpoint that keeps the
// vendor credentials on its side.
type ImageGenerator struct {
	endpoint string
	http     *llmhttp.Client
	retrier  llmhttp.Retrier
}

func NewImageGenerator(endpoint string, timeout time.Duration, retrier llmhttp.Retrier) *ImageGenerator {
	endpoint = strings.TrimSpace(endpoint)
	return &ImageGenerator{
		endpoint: endpoint,
		http:     llmhttp.New("proxy", endpoint, timeout),
		retrier:  retrier,
	}
}

func (g *ImageGenerator) Configured() bool {
	return g.endpoint != ""
}

type editRequest struct {
	ImageBase64             string                   `json:"imageBase64"`
	Prompt                  string                   `json:"prompt"`
	Size                    string                   `json:"size"`
	MaterialReferenceBase64 string                   `json:"materialReferenceBase64,omitempty"`
	Selection               *domain.ProjectSelection `json:"selection,omitempty"`
}

type editResponse struct {
	Output string `json:"output"`
	URL    string `json:"url"`
}

func (g *ImageGenerator) Generate(ctx context.Context, req domain.ImageRequest) (*domain.GeneratedImage, error) {
	if !g.Configured() {
		return nil, llmhttp.NotConfigured("proxy", "IMAGE_PROXY_URL")
	}

	size := req.Size
	if size == "" {
		size = domain.DefaultImageSize
	}
	sel := req.Selection
	// Contact details stay out of third-party traffic.
	sel.Contact = domain.Contact{}
	body := editRequest{
		ImageBase64:             req.ImageBase64,
		Prompt:                  req.Prompt,
		Size:                    size,
		MaterialReferenceBase64: req.ReferenceBase64,
		Selection:               &sel,
	}

	var resp editResponse
	err := g.retrier.Do(ctx, "proxy.image", func(ctx context.Context) error {
		resp = editResponse{}
		return g.http.PostJSON(ctx, "", llmhttp.Auth{}, body, &resp, "image edit")
	})
	if err != nil {
		return nil, llmhttp.Classify("proxy image", err)
	}

	switch {
	case resp.Output != "":
		return &domain.GeneratedImage{Base64: stripDataURI(resp.Output), MIMEType: "image/png", Provider: domain.ImageProviderProxy}, nil
	case resp.URL != "":
		return &domain.GeneratedImage{URL: resp.URL, Provider: domain.ImageProviderProxy}, nil
	}
	return nil, nil
}

func stripDataURI(s string) string {
	if strings.HasPrefix(s, "data:") {
		if comma := strings.Index(s, ","); comma >= 0 {
			return s[comma+1:]
		}
	}
	return s
}
