package xlsx

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
)

func TestExportWritesQuoteSheet(t *testing.T) {
	quote := domain.Quote{
		ID: "quote-1",
		Selection: domain.ProjectSelection{
			Address:         "1 Rue de la Paix",
			FacadeType:      domain.FacadeBrick,
			SurfaceArea:     "50-100",
			PreviewFinishes: []domain.Finish{domain.FinishNaturalStone, domain.FinishSmooth},
			Treatments:      []domain.Treatment{domain.TreatmentAntiStain},
		},
		Estimate: domain.ParsedEstimate{
			AssessmentText:  "Solid brick.",
			PricingText:     "TOTAL PROJECT COST: €6,500 - €9,800",
			InvestmentRange: domain.InvestmentRange{Min: 6500, Max: 9800},
			Source:          domain.SourceTotalRange,
			ResolvedArea:    75,
		},
		ImageStatus: domain.ImagePending,
		CreatedAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	exp := New("")
	if exp.ContentType() != ContentType {
		t.Fatalf("content type = %q", exp.ContentType())
	}
	raw, err := exp.Export(quote)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	cases := map[string]string{
		"A1":  "Quote ID",
		"B1":  "quote-1",
		"B3":  "1 Rue de la Paix",
		"B8":  "natural-stone, smooth",
		"B9":  "anti-stain",
		"A11": "Investment min (€)",
		"B13": "total_range",
		"B17": "Solid brick.",
	}
	for cell, want := range cases {
		got, err := f.GetCellValue(SheetName, cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s) error = %v", cell, err)
		}
		if got != want {
			t.Fatalf("cell %s = %q, want %q", cell, got, want)
		}
	}

	// Row 16 separates the summary from the sections.
	if got, _ := f.GetCellValue(SheetName, "A16"); got != "" {
		t.Fatalf("expected blank separator row, got %q", got)
	}
}

func TestExportWithoutSelectionStillRenders(t *testing.T) {
	raw, err := New("$").Export(domain.Quote{ID: "empty"})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	if got, _ := f.GetCellValue(SheetName, "A12"); got != "Investment max ($)" {
		t.Fatalf("A12 = %q", got)
	}
}
