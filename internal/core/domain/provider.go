package domain

import (
	"fmt"
	"strings"
)

// TextProvider identifies the text-analysis backend.
type TextProvider string

const (
	TextProviderNone   TextProvider = "none"
	TextProviderOpenAI TextProvider = "openai"
	TextProviderAzure  TextProvider = "azure"
	TextProviderGemini TextProvider = "gemini"
)

// ImageProvider identifies the image-generation backend.
type ImageProvider string

const (
	ImageProviderNone   ImageProvider = ""
	ImageProviderProxy  ImageProvider = "proxy"
	ImageProviderOpenAI ImageProvider = "openai"
	ImageProviderAzure  ImageProvider = "azure"
	ImageProviderGemini ImageProvider = "gemini"
)

// ParseTextProvider accepts the canonical tags and the vendor-flavoured
// aliases operators tend to write into env files.
func ParseTextProvider(raw string) (TextProvider, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "none", "mock", "local":
		return TextProviderNone, nil
	case "openai", "openai-compatible":
		return TextProviderOpenAI, nil
	case "azure", "azure-openai", "azure-compatible":
		return TextProviderAzure, nil
	case "gemini", "google", "gemini-compatible":
		return TextProviderGemini, nil
	default:
		return "", fmt.Errorf("unknown text provider %q", raw)
	}
}

func ParseImageProvider(raw string) (ImageProvider, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "proxy":
		return ImageProviderProxy, nil
	case "openai", "openai-compatible":
		return ImageProviderOpenAI, nil
	case "azure", "azure-openai", "azure-compatible":
		return ImageProviderAzure, nil
	case "gemini", "google", "gemini-compatible":
		return ImageProviderGemini, nil
	default:
		return "", fmt.Errorf("unknown image provider %q", raw)
	}
}

// ParseImageFallback is like ParseImageProvider but an empty value means "no fallback".
func ParseImageFallback(raw string) (ImageProvider, error) {
	if strings.TrimSpace(raw) == "" || strings.EqualFold(strings.TrimSpace(raw), "none") {
		return ImageProviderNone, nil
	}
	return ParseImageProvider(raw)
}
