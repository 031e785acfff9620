package llmhttp

import (
	"strings"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
)

// Chat completion shapes shared by OpenAI-compatible and Azure deployments.

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func NewChatRequest(model string, req domain.CompletionRequest) ChatRequest {
	temperature := req.Temperature
	if temperature == 0 {
		temperature = domain.DefaultTemperature
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = domain.DefaultMaxTokens
	}

	messages := make([]ChatMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, ChatMessage{Role: "user", Content: req.Prompt})

	return ChatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
}

// FirstChoiceText returns "" for any response without a first message.
func (r ChatResponse) FirstChoiceText() string {
	if len(r.Choices) == 0 || r.Choices[0].Message.Content == nil {
		return ""
	}
	return strings.TrimSpace(*r.Choices[0].Message.Content)
}

// ImagesResponse is the edits/generations response body.
type ImagesResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
}

// FirstImage returns nil when the first item has neither payload.
func (r ImagesResponse) FirstImage(provider domain.ImageProvider) *domain.GeneratedImage {
	if len(r.Data) == 0 {
		return nil
	}
	item := r.Data[0]
	switch {
	case item.B64JSON != "":
		return &domain.GeneratedImage{Base64: item.B64JSON, MIMEType: "image/png", Provider: provider}
	case item.URL != "":
		return &domain.GeneratedImage{URL: item.URL, Provider: provider}
	}
	return nil
}

// ImageFilename picks an upload filename matching the MIME type.
func ImageFilename(base, mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return base + ".jpg"
	case "image/webp":
		return base + ".webp"
	default:
		return base + ".png"
	}
}
