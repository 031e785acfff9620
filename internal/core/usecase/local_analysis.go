package usecase

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
	"github.com/kirillkom/facade-estimator/internal/core/estimate"
)

// localAnalysis fills the five-section template without any provider, pricing
// the job as the configured rate band times the resolved area.
func localAnalysis(sel domain.ProjectSelection, area float64, pricing estimate.Pricing) string {
	low := roundTo(pricing.RateMin*area, pricing.RoundTo)
	high := roundTo(pricing.RateMax*area, pricing.RoundTo)
	cur := pricing.Currency
	amounts := message.NewPrinter(language.English)

	var b strings.Builder
	fmt.Fprintf(&b, "**%s:**\n", analysisSections[0])
	fmt.Fprintf(&b, "%s facade", labelOr(facadeLabels, sel.FacadeType, "The"))
	switch sel.Condition {
	case domain.ConditionCracks:
		b.WriteString(" with visible cracking that needs repair before any new finish is applied.")
	case domain.ConditionMoss:
		b.WriteString(" with moss or biological growth; cleaning and a biocide treatment come first.")
	case domain.ConditionGood:
		b.WriteString(" in good condition, so preparation work should be limited.")
	default:
		b.WriteString(" whose condition should be confirmed during an on-site inspection.")
	}
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "**%s:**\n", analysisSections[1])
	fmt.Fprintf(&b, "The walls would change to %s while windows, doors and proportions stay as they are.\n\n",
		strings.ToLower(finishesLabel(sel)))

	fmt.Fprintf(&b, "**%s:**\n", analysisSections[2])
	b.WriteString("- Inspect and repair the substrate.\n")
	b.WriteString("- Apply a suitable primer before the new finish.\n")
	for _, t := range sel.Treatments {
		fmt.Fprintf(&b, "- Add %s.\n", strings.ToLower(labelOr(treatmentLabels, t, string(t))))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "**%s:**\n", analysisSections[3])
	fmt.Fprintf(&b, "Typical rate: %s%.0f-%.0f/m² for about %.0f m².\n", cur, pricing.RateMin, pricing.RateMax, area)
	fmt.Fprintf(&b, "TOTAL PROJECT COST: %s%s - %s%s\n\n", cur, amounts.Sprintf("%d", low), cur, amounts.Sprintf("%d", high))

	fmt.Fprintf(&b, "**%s:**\n", analysisSections[4])
	switch sel.Timeline {
	case domain.TimelineASAP:
		b.WriteString("Work could start within two to four weeks, depending on crew availability and weather.")
	case domain.TimelineOneToThree:
		b.WriteString("Plan the survey now to start within one to three months; the work itself takes two to four weeks.")
	case domain.TimelineMoreThanThree:
		b.WriteString("There is time to compare quotes; the work itself takes two to four weeks.")
	default:
		b.WriteString("The work itself usually takes two to four weeks once scheduled.")
	}
	return b.String()
}

func roundTo(v float64, step int64) int64 {
	if step <= 0 {
		step = 1
	}
	s := float64(step)
	return int64(math.Round(v/s) * s)
}
