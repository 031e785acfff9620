package ports

import (
	"context"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
)

// TextCompleter runs one chat-style completion and returns the first choice's
// text, or "" when the response has no usable content.
type TextCompleter interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (string, error)
}

// ImageGenerator turns a facade photo into an after-image. A nil image with a
// nil error means the provider answered without an image.
type ImageGenerator interface {
	Generate(ctx context.Context, req domain.ImageRequest) (*domain.GeneratedImage, error)
}

// MaterialLibrary serves bundled reference photos per finish.
type MaterialLibrary interface {
	Reference(ctx context.Context, finish domain.Finish) (*domain.MaterialReference, error)
}

// LeadPublisher hands a lead over to sales.
type LeadPublisher interface {
	PublishLead(ctx context.Context, lead domain.Lead) error
}

// LeadStore keeps leads for follow-up. Save reports false when the lead was
// already stored.
type LeadStore interface {
	Save(ctx context.Context, lead domain.Lead) (bool, error)
}

// QuoteExporter renders a quote into a downloadable document.
type QuoteExporter interface {
	Export(quote domain.Quote) ([]byte, error)
	ContentType() string
}

// Deriver parses analysis text into an estimate.
type Deriver interface {
	Derive(rawText, surfaceArea string) domain.ParsedEstimate
	ResolveArea(surfaceArea string) float64
}
