package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
	"github.com/kirillkom/facade-estimator/internal/core/ports"
)

const (
	imagePendingMessage = "The visualization is not available yet. Your estimate is ready below."
	contactRequired     = "Leave your name and an email address or phone number to see the estimate."
)

type QuoteUseCase struct {
	analyzer    ports.TextAnalyzer
	transformer ports.ImageTransformer
	deriver     ports.Deriver
	leads       ports.LeadPublisher
	gating      domain.LeadGatingMode
	now         func() time.Time
	newID       func() string
}

// NewQuoteUseCase wires the submission flow. leads may be nil, in which case
// leads are only logged.
func NewQuoteUseCase(
	analyzer ports.TextAnalyzer,
	transformer ports.ImageTransformer,
	deriver ports.Deriver,
	leads ports.LeadPublisher,
	gating domain.LeadGatingMode,
) *QuoteUseCase {
	if gating == "" {
		gating = domain.LeadGatingAfter
	}
	return &QuoteUseCase{
		analyzer:    analyzer,
		transformer: transformer,
		deriver:     deriver,
		leads:       leads,
		gating:      gating,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
}

func (uc *QuoteUseCase) GatingMode() domain.LeadGatingMode {
	return uc.gating
}

// Submit runs analyze, derive and transform in that order. Only a failed
// analysis fails the quote; image problems are reported on the quote itself.
func (uc *QuoteUseCase) Submit(ctx context.Context, req ports.QuoteRequest) (*domain.Quote, error) {
	sel, err := req.Selection.Normalize()
	if err != nil {
		return nil, toFailure("quote", err)
	}
	if uc.gating == domain.LeadGatingBefore && !sel.Contact.Reachable() {
		return nil, domain.NewFailure(domain.ErrInvalidInput, contactRequired, "")
	}

	analysis, err := uc.analyzer.Analyze(ctx, sel)
	if err != nil {
		return nil, err
	}

	quote := &domain.Quote{
		ID:          uc.newID(),
		Selection:   sel,
		Analysis:    analysis,
		Estimate:    uc.deriver.Derive(analysis.Text, sel.SurfaceArea),
		ImageStatus: domain.ImagePending,
		CreatedAt:   uc.now(),
	}
	uc.attachImage(ctx, quote, req.Image)

	if uc.gating == domain.LeadGatingBefore {
		rng := quote.Estimate.InvestmentRange
		lead := uc.lead(quote.ID, sel.Contact, sel, &rng)
		if err := uc.publish(ctx, lead); err != nil {
			slog.Error("lead_publish_failed", "quote_id", quote.ID, "lead_id", lead.ID, "error", err)
		}
	}
	return quote, nil
}

func (uc *QuoteUseCase) attachImage(ctx context.Context, quote *domain.Quote, img *domain.UploadedImage) {
	if img == nil || len(img.Data) == 0 {
		quote.ImageMessage = imagePendingMessage
		return
	}

	out, err := uc.transformer.Transform(ctx, quote.Selection, img)
	if err != nil {
		quote.ImageStatus = domain.ImageFailed
		if f, ok := domain.AsFailure(err); ok {
			quote.ImageMessage = f.Message
			quote.ImageHint = f.Hint
		} else {
			quote.ImageMessage = err.Error()
		}
		slog.Warn("quote_image_failed", "quote_id", quote.ID, "error", err)
		return
	}
	if out.Empty() {
		quote.ImageMessage = imagePendingMessage
		return
	}
	quote.Image = out
	quote.ImageStatus = domain.ImageReady
}

// SubmitLead accepts contact details after the results were shown.
func (uc *QuoteUseCase) SubmitLead(ctx context.Context, req ports.LeadRequest) (*domain.Lead, error) {
	if !req.Contact.Reachable() {
		return nil, domain.NewFailure(domain.ErrInvalidInput, contactRequired, "")
	}
	sel, err := req.Selection.Normalize()
	if err != nil {
		return nil, toFailure("lead", err)
	}
	sel.Contact = req.Contact

	lead := uc.lead(req.QuoteID, req.Contact, sel, req.Range)
	if err := uc.publish(ctx, lead); err != nil {
		slog.Error("lead_publish_failed", "quote_id", req.QuoteID, "lead_id", lead.ID, "error", err)
		return nil, domain.NewFailure(domain.ErrTemporary, "We could not save your contact details. Please try again later.", "")
	}
	return &lead, nil
}

func (uc *QuoteUseCase) lead(quoteID string, contact domain.Contact, sel domain.ProjectSelection, rng *domain.InvestmentRange) domain.Lead {
	return domain.Lead{
		ID:          uc.newID(),
		QuoteID:     quoteID,
		Contact:     contact,
		Selection:   sel,
		Range:       rng,
		GatingMode:  uc.gating,
		SubmittedAt: uc.now(),
	}
}

func (uc *QuoteUseCase) publish(ctx context.Context, lead domain.Lead) error {
	if uc.leads == nil {
		slog.Info("lead_received", "lead_id", lead.ID, "quote_id", lead.QuoteID, "gating_mode", lead.GatingMode)
		return nil
	}
	return uc.leads.PublishLead(ctx, lead)
}
