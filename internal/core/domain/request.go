package domain

// CompletionRequest is a provider-agnostic chat completion.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

const (
	DefaultTemperature = 0.6
	DefaultMaxTokens   = 900
	DefaultImageSize   = "1024x1024"
)

// ImageRequest is a provider-agnostic image edit. Base64 fields carry no
// data-URI prefix.
type ImageRequest struct {
	Prompt            string
	ImageBase64       string
	ImageMIMEType     string
	ReferenceBase64   string
	ReferenceMIMEType string
	Size              string
	Selection         ProjectSelection
}

func (r ImageRequest) HasReference() bool {
	return r.ReferenceBase64 != ""
}
