package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
	"github.com/kirillkom/facade-estimator/internal/core/estimate"
	"github.com/kirillkom/facade-estimator/internal/core/ports"
)

// ProviderObserver is told about every orchestrated provider call.
type ProviderObserver interface {
	ObserveProviderCall(stage, provider, outcome string, duration time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveProviderCall(string, string, string, time.Duration) {}

type AnalysisUseCase struct {
	selector ports.ProviderSelector
	deriver  *estimate.Deriver
	mock     bool
	observer ProviderObserver
}

func NewAnalysisUseCase(selector ports.ProviderSelector, deriver *estimate.Deriver, mock bool) *AnalysisUseCase {
	return &AnalysisUseCase{
		selector: selector,
		deriver:  deriver,
		mock:     mock,
		observer: noopObserver{},
	}
}

func (uc *AnalysisUseCase) WithObserver(observer ProviderObserver) *AnalysisUseCase {
	if observer != nil {
		uc.observer = observer
	}
	return uc
}

// Analyze returns the free-text analysis. Missing configuration never fails:
// the analysis is then produced locally.
func (uc *AnalysisUseCase) Analyze(ctx context.Context, sel domain.ProjectSelection) (domain.Analysis, error) {
	sel, err := sel.Normalize()
	if err != nil {
		return domain.Analysis{}, toFailure("analysis", err)
	}

	area := uc.deriver.ResolveArea(sel.SurfaceArea)
	selection := uc.selector.SelectText()
	if uc.mock || selection.Local() {
		if !uc.mock && selection.Provider != domain.TextProviderNone {
			slog.Warn("text_provider_not_configured", "provider", selection.Provider)
		}
		return uc.local(sel, area, selection.Provider), nil
	}

	req := domain.CompletionRequest{
		System:      analysisPersona,
		Prompt:      BuildAnalysisPrompt(sel, area),
		Temperature: domain.DefaultTemperature,
		MaxTokens:   domain.DefaultMaxTokens,
	}

	started := time.Now()
	text, err := selection.Completer.Complete(ctx, req)
	if err != nil {
		uc.observer.ObserveProviderCall("text", string(selection.Provider), outcomeOf(err), time.Since(started))
		if domain.IsKind(err, domain.ErrConfiguration) {
			slog.Warn("text_provider_not_configured", "provider", selection.Provider, "error", err)
			return uc.local(sel, area, selection.Provider), nil
		}
		return domain.Analysis{}, toFailure("analysis", err)
	}
	uc.observer.ObserveProviderCall("text", string(selection.Provider), "ok", time.Since(started))

	return domain.Analysis{Text: text, Provider: selection.Provider}, nil
}

func (uc *AnalysisUseCase) local(sel domain.ProjectSelection, area float64, provider domain.TextProvider) domain.Analysis {
	return domain.Analysis{
		Text:     localAnalysis(sel, area, uc.deriver.Pricing()),
		Provider: provider,
		Local:    true,
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case domain.IsKind(err, domain.ErrConfiguration):
		return "configuration"
	case domain.IsKind(err, domain.ErrVerificationRequired):
		return "verification"
	case domain.IsKind(err, domain.ErrNonRetryable):
		return "rejected"
	case domain.IsKind(err, domain.ErrInvalidInput):
		return "invalid"
	default:
		return "temporary"
	}
}
