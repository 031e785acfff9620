package xlsx

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	SheetName   = "Quote"
)

// Exporter renders a quote as a one-sheet workbook: a key/value block for
// the selection and range, then one row per analysis section.
type Exporter struct {
	currency string
}

func New(currency string) *Exporter {
	if strings.TrimSpace(currency) == "" {
		currency = "€"
	}
	return &Exporter{currency: currency}
}

func (e *Exporter) ContentType() string {
	return ContentType
}

type row struct {
	label string
	value any
	style int
}

func (e *Exporter) Export(quote domain.Quote) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("xlsx rename sheet: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx header style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 3})
	if err != nil {
		return nil, fmt.Errorf("xlsx money style: %w", err)
	}
	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return nil, fmt.Errorf("xlsx wrap style: %w", err)
	}

	sel := quote.Selection
	est := quote.Estimate
	rows := []row{
		{label: "Quote ID", value: quote.ID},
		{label: "Created", value: quote.CreatedAt.Format("2006-01-02 15:04 MST")},
		{label: "Address", value: sel.Address},
		{label: "Facade type", value: string(sel.FacadeType)},
		{label: "Condition", value: string(sel.Condition)},
		{label: "Surface area", value: sel.SurfaceArea},
		{label: "Area used (m²)", value: est.ResolvedArea},
		{label: "Finish", value: finishes(sel)},
		{label: "Treatments", value: treatments(sel)},
		{label: "Timeline", value: string(sel.Timeline)},
		{label: "Investment min (" + e.currency + ")", value: est.InvestmentRange.Min, style: money},
		{label: "Investment max (" + e.currency + ")", value: est.InvestmentRange.Max, style: money},
		{label: "Estimate source", value: string(est.Source)},
		{label: "Analysis provider", value: string(quote.Analysis.Provider)},
		{label: "Visualization", value: string(quote.ImageStatus)},
		{},
		{label: "Facade assessment", value: est.AssessmentText, style: wrap},
		{label: "Before/after visualization", value: est.VisualizationText, style: wrap},
		{label: "Recommendations", value: est.RecommendationsText, style: wrap},
		{label: "Pricing estimate", value: est.PricingText, style: wrap},
		{label: "Timeline", value: est.TimelineText, style: wrap},
	}

	for i, r := range rows {
		if r.label == "" {
			continue
		}
		labelCell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		valueCell, err := excelize.CoordinatesToCellName(2, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(SheetName, labelCell, r.label); err != nil {
			return nil, fmt.Errorf("xlsx write %s: %w", labelCell, err)
		}
		if err := f.SetCellStyle(SheetName, labelCell, labelCell, header); err != nil {
			return nil, fmt.Errorf("xlsx style %s: %w", labelCell, err)
		}
		if err := f.SetCellValue(SheetName, valueCell, r.value); err != nil {
			return nil, fmt.Errorf("xlsx write %s: %w", valueCell, err)
		}
		if r.style != 0 {
			if err := f.SetCellStyle(SheetName, valueCell, valueCell, r.style); err != nil {
				return nil, fmt.Errorf("xlsx style %s: %w", valueCell, err)
			}
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 30); err != nil {
		return nil, fmt.Errorf("xlsx column width: %w", err)
	}
	if err := f.SetColWidth(SheetName, "B", "B", 90); err != nil {
		return nil, fmt.Errorf("xlsx column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func finishes(sel domain.ProjectSelection) string {
	if len(sel.PreviewFinishes) == 0 {
		return string(sel.Finish)
	}
	names := make([]string, 0, len(sel.PreviewFinishes))
	for _, f := range sel.PreviewFinishes {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

func treatments(sel domain.ProjectSelection) string {
	names := make([]string, 0, len(sel.Treatments))
	for _, t := range sel.Treatments {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}
