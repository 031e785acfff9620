package estimate

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
)

const fullAnalysis = `**FACADE ASSESSMENT:**
Red brick facade with visible cracks around the windows.

**BEFORE/AFTER VISUALIZATION:**
The wall will look like smooth light render.

**RECOMMENDATIONS:**
- Repair cracks before rendering
- Apply a water-repellent coat

**PRICING ESTIMATE:**
Rate: €80-150/m²
TOTAL PROJECT COST: €6,500 - €9,800

**TIMELINE:**
Two to three weeks, weather permitting.`

func TestDeriveTotalRange(t *testing.T) {
	d := NewDeriver(DefaultPricing())

	got := d.Derive(fullAnalysis, "50-100")
	if got.InvestmentRange != (domain.InvestmentRange{Min: 6500, Max: 9800}) {
		t.Fatalf("unexpected range: %+v", got.InvestmentRange)
	}
	if got.Source != domain.SourceTotalRange {
		t.Fatalf("expected total_range source, got %s", got.Source)
	}
	if !strings.HasPrefix(got.AssessmentText, "Red brick facade") {
		t.Fatalf("unexpected assessment: %q", got.AssessmentText)
	}
	if !strings.Contains(got.RecommendationsText, "water-repellent") {
		t.Fatalf("unexpected recommendations: %q", got.RecommendationsText)
	}
	if got.TimelineText != "Two to three weeks, weather permitting." {
		t.Fatalf("unexpected timeline: %q", got.TimelineText)
	}
}

func TestDeriveTotalRangeOrdersBounds(t *testing.T) {
	d := NewDeriver(DefaultPricing())
	got := d.Derive("Total: 12.000 - 8.000 EUR", "")
	if got.InvestmentRange != (domain.InvestmentRange{Min: 8000, Max: 12000}) {
		t.Fatalf("unexpected range: %+v", got.InvestmentRange)
	}
}

func TestDerivePerAreaRange(t *testing.T) {
	d := NewDeriver(DefaultPricing())

	got := d.Derive("PRICING: expect roughly €80-150/m² for this work.", "50-100")
	// 80*75 = 6000, 150*75 = 11250 -> 11300
	if got.InvestmentRange != (domain.InvestmentRange{Min: 6000, Max: 11300}) {
		t.Fatalf("unexpected range: %+v", got.InvestmentRange)
	}
	if got.Source != domain.SourcePerArea {
		t.Fatalf("expected per_area source, got %s", got.Source)
	}
	if got.ResolvedArea != 75 {
		t.Fatalf("expected resolved area 75, got %v", got.ResolvedArea)
	}
}

func TestDeriveSingleTotal(t *testing.T) {
	d := NewDeriver(DefaultPricing())
	got := d.Derive("TOTAL PROJECT COST: approximately €7,450", "")
	if got.InvestmentRange != (domain.InvestmentRange{Min: 7500, Max: 7500}) {
		t.Fatalf("unexpected range: %+v", got.InvestmentRange)
	}
	if got.Source != domain.SourceSingleTotal {
		t.Fatalf("expected single_total source, got %s", got.Source)
	}
}

func TestDeriveFallbackWithoutNumbers(t *testing.T) {
	d := NewDeriver(DefaultPricing())
	got := d.Derive("The facade looks fine; contact us for a quote.", "unknown")
	if got.InvestmentRange != (domain.InvestmentRange{Min: 5000, Max: 5000}) {
		t.Fatalf("unexpected fallback range: %+v", got.InvestmentRange)
	}
	if got.Source != domain.SourceFallback {
		t.Fatalf("expected fallback source, got %s", got.Source)
	}

	empty := d.Derive("", "")
	if empty.Source != domain.SourceFallback || empty.AssessmentText != "" {
		t.Fatalf("unexpected estimate for empty text: %+v", empty)
	}
}

func TestDeriveMissingTimelineSection(t *testing.T) {
	d := NewDeriver(DefaultPricing())
	text := fullAnalysis[:strings.Index(fullAnalysis, "**TIMELINE:**")]

	got := d.Derive(text, "")
	if got.TimelineText != "" {
		t.Fatalf("expected empty timeline, got %q", got.TimelineText)
	}
	if got.AssessmentText == "" || got.VisualizationText == "" || got.RecommendationsText == "" || got.PricingText == "" {
		t.Fatalf("expected other sections to parse: %+v", got)
	}
}

func TestSectionMarkersAcceptHeadingStyles(t *testing.T) {
	d := NewDeriver(DefaultPricing())
	text := "## 1. Facade Assessment\nPainted render.\n\n### Visualization\nStone look.\n\n__Pricing__:\nTotal: 4000 - 6000\n\nTimeline depends on the weather.\n"

	got := d.Derive(text, "")
	if got.AssessmentText != "Painted render." {
		t.Fatalf("unexpected assessment: %q", got.AssessmentText)
	}
	if got.VisualizationText != "Stone look." {
		t.Fatalf("unexpected visualization: %q", got.VisualizationText)
	}
	if !strings.Contains(got.PricingText, "Timeline depends") {
		t.Fatalf("prose starting with a marker word must stay in the previous section: %q", got.PricingText)
	}
	if got.TimelineText != "" {
		t.Fatalf("expected no timeline section, got %q", got.TimelineText)
	}
}

func TestRangeBoundsAreOrderedMultiplesOfHundred(t *testing.T) {
	d := NewDeriver(DefaultPricing())
	inputs := []struct{ text, area string }{
		{fullAnalysis, "123"},
		{"€33-47/m²", "70-90"},
		{"55 - 12 eur per m2", "<50"},
		{"TOTAL PROJECT COST: 1,234,567", ">150"},
		{"total 999 - 1", ""},
		{"Total: €999 - 1", ""},
		{"nothing", "garbage"},
		{"Rate €80-150/m²", strings.Repeat("9", 32)},
		{"Rate €80-150/m²", "100000"},
		{"€999999999999-999999999999/m²", "100000"},
	}
	for _, in := range inputs {
		r := d.Derive(in.text, in.area).InvestmentRange
		if r.Min > r.Max {
			t.Fatalf("%q: min %d > max %d", in.text, r.Min, r.Max)
		}
		if r.Min%100 != 0 || r.Max%100 != 0 {
			t.Fatalf("%q: bounds not multiples of 100: %+v", in.text, r)
		}
	}
}

func TestDeriveSkipsNonPriceTotals(t *testing.T) {
	d := NewDeriver(DefaultPricing())
	text := "**PRICING ESTIMATE:**\nRate: €80-150/m²\n\n**TIMELINE:**\nTotal duration: 3-4 weeks."

	got := d.Derive(text, "50-100")
	if got.Source != domain.SourcePerArea {
		t.Fatalf("expected per_area source, got %s", got.Source)
	}
	if got.InvestmentRange != (domain.InvestmentRange{Min: 6000, Max: 11300}) {
		t.Fatalf("unexpected range: %+v", got.InvestmentRange)
	}
}

func TestDeriveBareTotalNeedsCurrency(t *testing.T) {
	d := NewDeriver(DefaultPricing())
	cases := []struct {
		text   string
		source domain.EstimateSource
	}{
		{"Total: €4,000 - 6,000", domain.SourceTotalRange},
		{"Total: 4000 - 6000 EUR", domain.SourceTotalRange},
		{"Total: 4000 - 6000", domain.SourceFallback},
		{"Total duration: 3-4 weeks.\nTotal: 4.000 - 6.000 €", domain.SourceTotalRange},
	}
	for _, tc := range cases {
		got := d.Derive(tc.text, "")
		if got.Source != tc.source {
			t.Fatalf("%q: expected %s, got %s", tc.text, tc.source, got.Source)
		}
		if tc.source == domain.SourceTotalRange && got.InvestmentRange != (domain.InvestmentRange{Min: 4000, Max: 6000}) {
			t.Fatalf("%q: unexpected range %+v", tc.text, got.InvestmentRange)
		}
	}

	p := DefaultPricing()
	p.Currency = "$"
	got := NewDeriver(p).Derive("Total: $4,000 - $6,000", "")
	if got.Source != domain.SourceTotalRange {
		t.Fatalf("expected the configured currency to qualify a bare total, got %s", got.Source)
	}
}

func TestDeriveSingleTotalFollowedByBullet(t *testing.T) {
	d := NewDeriver(DefaultPricing())
	got := d.Derive("**PRICING ESTIMATE:**\nTOTAL PROJECT COST: €7,500\n- 10% VAT not included", "")
	if got.Source != domain.SourceSingleTotal {
		t.Fatalf("expected single_total source, got %s", got.Source)
	}
	if got.InvestmentRange != (domain.InvestmentRange{Min: 7500, Max: 7500}) {
		t.Fatalf("unexpected range: %+v", got.InvestmentRange)
	}
}

func TestDeriveCapsHugeAreas(t *testing.T) {
	d := NewDeriver(DefaultPricing())
	got := d.Derive("Rate €80-150/m²", strings.Repeat("9", 32))
	if got.ResolvedArea != 100 {
		t.Fatalf("expected default area for an implausible surface, got %v", got.ResolvedArea)
	}
	if got.InvestmentRange != (domain.InvestmentRange{Min: 8000, Max: 15000}) {
		t.Fatalf("unexpected range: %+v", got.InvestmentRange)
	}
}

func TestResolveAreaIsTotal(t *testing.T) {
	d := NewDeriver(DefaultPricing())
	cases := map[string]float64{
		"":          100,
		"unknown":   100,
		"<50":       40,
		">150":      180,
		"50-100":    75,
		"100-150":   125,
		"70-90":     80,
		"123":       123,
		" 85 m2 ":   85,
		"12,5":      12.5,
		"garbage":   100,
		"NaN":       100,
		"-20":       100,
		"0":         100,
		"1e400":     100,
		"<<>>":      100,
		"100000":    100000,
		"100001":    100,
		"999999999": 100,
	}
	for in, want := range cases {
		got := d.ResolveArea(in)
		if math.IsNaN(got) || math.IsInf(got, 0) {
			t.Fatalf("ResolveArea(%q) returned %v", in, got)
		}
		if got != want {
			t.Fatalf("ResolveArea(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoadPricingOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	body := "default_area: 120\nfallback_amount: 7000\nrate_min_per_m2: 90\nrate_max_per_m2: 160\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write pricing: %v", err)
	}

	p, err := LoadPricing(path)
	if err != nil {
		t.Fatalf("LoadPricing() error = %v", err)
	}
	if p.DefaultArea != 120 || p.FallbackAmount != 7000 || p.RateMin != 90 || p.RateMax != 160 {
		t.Fatalf("unexpected pricing: %+v", p)
	}
	if p.RoundTo != 100 || p.BucketAreas["<50"] != 40 {
		t.Fatalf("expected untouched fields to keep defaults: %+v", p)
	}

	d := NewDeriver(p)
	if got := d.ResolveArea("unknown"); got != 120 {
		t.Fatalf("expected overridden default area, got %v", got)
	}
}

func TestLoadPricingRejectsInvalidBand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	if err := os.WriteFile(path, []byte("rate_min_per_m2: 200\nrate_max_per_m2: 100\n"), 0o600); err != nil {
		t.Fatalf("write pricing: %v", err)
	}
	if _, err := LoadPricing(path); err == nil {
		t.Fatalf("expected error for inverted rate band")
	}
}

func TestLoadPricingRejectsMaxAreaBelowDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	if err := os.WriteFile(path, []byte("default_area: 100\nmax_area: 50\n"), 0o600); err != nil {
		t.Fatalf("write pricing: %v", err)
	}
	if _, err := LoadPricing(path); err == nil {
		t.Fatalf("expected error for max_area below default_area")
	}
}
