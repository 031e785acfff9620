package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
	"github.com/kirillkom/facade-estimator/internal/core/estimate"
	"github.com/kirillkom/facade-estimator/internal/core/ports"
)

type selectorFake struct {
	text     ports.TextSelection
	image    ports.ImageSelection
	fallback *ports.ImageSelection
}

func (f *selectorFake) SelectText() ports.TextSelection   { return f.text }
func (f *selectorFake) SelectImage() ports.ImageSelection { return f.image }
func (f *selectorFake) ImageFallback() (ports.ImageSelection, bool) {
	if f.fallback == nil {
		return ports.ImageSelection{}, false
	}
	return *f.fallback, true
}

type completerFake struct {
	text  string
	err   error
	calls int
	last  domain.CompletionRequest
}

func (f *completerFake) Complete(_ context.Context, req domain.CompletionRequest) (string, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func newAnalysis(sel ports.ProviderSelector, mock bool) *AnalysisUseCase {
	return NewAnalysisUseCase(sel, estimate.NewDeriver(estimate.DefaultPricing()), mock)
}

func TestAnalyzeUsesLocalTextWhenProviderIsNone(t *testing.T) {
	uc := newAnalysis(&selectorFake{text: ports.TextSelection{Provider: domain.TextProviderNone, Configured: true}}, false)

	out, err := uc.Analyze(context.Background(), domain.ProjectSelection{SurfaceArea: "100"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !out.Local {
		t.Fatalf("expected local analysis")
	}
	for _, heading := range analysisSections {
		if !strings.Contains(out.Text, heading) {
			t.Fatalf("local analysis misses section %q:\n%s", heading, out.Text)
		}
	}

	est := estimate.NewDeriver(estimate.DefaultPricing()).Derive(out.Text, "100")
	if est.InvestmentRange.Min != 8000 || est.InvestmentRange.Max != 15000 {
		t.Fatalf("local pricing range = %+v, want 8000-15000", est.InvestmentRange)
	}
	if est.Source != domain.SourceTotalRange {
		t.Fatalf("source = %s, want total_range", est.Source)
	}
}

func TestAnalyzeUsesLocalTextWhenMockEnabled(t *testing.T) {
	completer := &completerFake{text: "remote"}
	uc := newAnalysis(&selectorFake{text: ports.TextSelection{Provider: domain.TextProviderOpenAI, Completer: completer, Configured: true}}, true)

	out, err := uc.Analyze(context.Background(), domain.ProjectSelection{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !out.Local || completer.calls != 0 {
		t.Fatalf("expected local analysis without provider call, got local=%v calls=%d", out.Local, completer.calls)
	}
}

func TestAnalyzeUsesLocalTextWhenCredentialsMissing(t *testing.T) {
	uc := newAnalysis(&selectorFake{text: ports.TextSelection{Provider: domain.TextProviderAzure}}, false)

	out, err := uc.Analyze(context.Background(), domain.ProjectSelection{SurfaceArea: "<50"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !out.Local || out.Provider != domain.TextProviderAzure {
		t.Fatalf("unexpected analysis: %+v", out)
	}
}

func TestAnalyzeFallsBackToLocalOnConfigurationError(t *testing.T) {
	completer := &completerFake{err: domain.WrapError(domain.ErrConfiguration, "openai chat", errors.New("missing key"))}
	uc := newAnalysis(&selectorFake{text: ports.TextSelection{Provider: domain.TextProviderOpenAI, Completer: completer, Configured: true}}, false)

	out, err := uc.Analyze(context.Background(), domain.ProjectSelection{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !out.Local {
		t.Fatalf("expected local analysis")
	}
}

func TestAnalyzeCallsConfiguredProvider(t *testing.T) {
	completer := &completerFake{text: "**FACADE ASSESSMENT:** fine"}
	uc := newAnalysis(&selectorFake{text: ports.TextSelection{Provider: domain.TextProviderGemini, Completer: completer, Configured: true}}, false)

	sel := domain.ProjectSelection{
		FacadeType:  domain.FacadeBrick,
		SurfaceArea: "50-100",
		Contact:     domain.Contact{Name: "Ana", Email: "ana@example.com"},
	}
	out, err := uc.Analyze(context.Background(), sel)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if out.Local || out.Text != completer.text || out.Provider != domain.TextProviderGemini {
		t.Fatalf("unexpected analysis: %+v", out)
	}
	if completer.last.System != analysisPersona {
		t.Fatalf("system prompt = %q", completer.last.System)
	}
	if completer.last.Temperature != domain.DefaultTemperature || completer.last.MaxTokens != domain.DefaultMaxTokens {
		t.Fatalf("unexpected sampling: %+v", completer.last)
	}
	if !strings.Contains(completer.last.Prompt, "about 75 m²") {
		t.Fatalf("prompt does not carry resolved area:\n%s", completer.last.Prompt)
	}
	if strings.Contains(completer.last.Prompt, "ana@example.com") {
		t.Fatalf("prompt leaks contact details")
	}
}

func TestAnalyzeNormalizesProviderFailure(t *testing.T) {
	raw := errors.New("openai chat status: 500 Internal Server Error: upstream stack trace")
	completer := &completerFake{err: domain.WrapError(domain.ErrTemporary, "openai chat", raw)}
	uc := newAnalysis(&selectorFake{text: ports.TextSelection{Provider: domain.TextProviderOpenAI, Completer: completer, Configured: true}}, false)

	_, err := uc.Analyze(context.Background(), domain.ProjectSelection{})
	f, ok := domain.AsFailure(err)
	if !ok {
		t.Fatalf("expected *domain.Failure, got %T %v", err, err)
	}
	if !errors.Is(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary failure, got %v", f.Kind)
	}
	if errors.Is(err, raw) || strings.Contains(f.Message, "stack trace") {
		t.Fatalf("provider error leaked: %q", f.Message)
	}
}

func TestAnalyzeRejectsUnknownSelectionValue(t *testing.T) {
	completer := &completerFake{text: "x"}
	uc := newAnalysis(&selectorFake{text: ports.TextSelection{Provider: domain.TextProviderOpenAI, Completer: completer, Configured: true}}, false)

	_, err := uc.Analyze(context.Background(), domain.ProjectSelection{FacadeType: "glass"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if completer.calls != 0 {
		t.Fatalf("provider must not be called for invalid input")
	}
}

func TestBuildAnalysisPromptIsDeterministic(t *testing.T) {
	sel := domain.ProjectSelection{
		Address:    "1 Rue de la Paix",
		FacadeType: domain.FacadeRender,
		Condition:  domain.ConditionMoss,
		Finish:     domain.FinishTextured,
		Treatments: []domain.Treatment{domain.TreatmentAntiStain},
		Timeline:   domain.TimelineASAP,
	}
	first := BuildAnalysisPrompt(sel, 120)
	if first != BuildAnalysisPrompt(sel, 120) {
		t.Fatalf("prompt differs between calls")
	}

	last := -1
	for _, heading := range analysisSections {
		idx := strings.Index(first, "**"+heading+":**")
		if idx <= last {
			t.Fatalf("section %q missing or out of order", heading)
		}
		last = idx
	}
	for _, want := range []string{"Render / plaster", "Moss or biological growth", "Textured render", "Anti-stain", "As soon as possible"} {
		if !strings.Contains(first, want) {
			t.Fatalf("prompt misses %q", want)
		}
	}
}

func TestBuildAnalysisPromptUsesFallbackLabels(t *testing.T) {
	prompt := BuildAnalysisPrompt(domain.ProjectSelection{}, 100)
	for _, want := range []string{"Address: Not provided", "Facade type: Not specified", "Current condition: Unknown", "Protective treatments: None"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt misses %q:\n%s", want, prompt)
		}
	}
}

func TestLocalAnalysisGroupsLargeAmounts(t *testing.T) {
	text := localAnalysis(domain.ProjectSelection{}, 12500, estimate.DefaultPricing())
	if !strings.Contains(text, "TOTAL PROJECT COST: €1,000,000 - €1,875,000") {
		t.Fatalf("expected grouped totals, got:\n%s", text)
	}
}
