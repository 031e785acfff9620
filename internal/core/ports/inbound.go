package ports

import (
	"context"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
)

// TextAnalyzer is the inbound contract for facade analysis.
type TextAnalyzer interface {
	Analyze(ctx context.Context, sel domain.ProjectSelection) (domain.Analysis, error)
}

// ImageTransformer is the inbound contract for the before/after visualization.
type ImageTransformer interface {
	Transform(ctx context.Context, sel domain.ProjectSelection, img *domain.UploadedImage) (*domain.GeneratedImage, error)
}

// QuoteService runs the full submission and accepts leads afterwards.
type QuoteService interface {
	Submit(ctx context.Context, req QuoteRequest) (*domain.Quote, error)
	SubmitLead(ctx context.Context, req LeadRequest) (*domain.Lead, error)
	GatingMode() domain.LeadGatingMode
}

type QuoteRequest struct {
	Selection domain.ProjectSelection
	Image     *domain.UploadedImage
}

type LeadRequest struct {
	QuoteID   string
	Contact   domain.Contact
	Selection domain.ProjectSelection
	Range     *domain.InvestmentRange
}

// LeadIntake accepts leads delivered by the queue.
type LeadIntake interface {
	Intake(ctx context.Context, lead domain.Lead) (domain.IntakeOutcome, error)
}
