package estimate

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/kirillkom/facade-estimator/internal/core/domain"
)

// Deriver parses free-text analysis into a ParsedEstimate. It is safe for
// concurrent use.
type Deriver struct {
	pricing Pricing
}

func NewDeriver(p Pricing) *Deriver {
	return &Deriver{pricing: p.withDefaults()}
}

func (d *Deriver) Pricing() Pricing {
	return d.pricing
}

type section int

const (
	sectionAssessment section = iota
	sectionVisualization
	sectionRecommendations
	sectionPricing
	sectionTimeline
)

// A marker must start a line and be followed by a colon or the end of the
// line, so prose like "Timeline depends on..." is not a heading.
var sectionMarkerRe = regexp.MustCompile(
	`(?im)^[ \t>]*(?:#{1,6}[ \t]*)?(?:[*_]{1,2}[ \t]*)?(?:\d+[.)][ \t]*)?(?:[*_]{1,2}[ \t]*)?` +
		`(facade assessment|before[ \t]*/[ \t]*after visualization|visualization|recommendations|pricing estimate|pricing|timeline)` +
		`[ \t]*(?:[*_]{1,2}[ \t]*)?(?::[ \t]*(?:[*_]{1,2})?|$)`,
)

// Amount separators stay on one line: a total followed by a bullet list is a
// single total, not a range.
var (
	totalRangeRe = regexp.MustCompile(
		`(?i)\btotal(?:[ \t]+project[ \t]+cost)?[^\d\n]{0,40}?(\d[\d.,]*)[ \t]*(?:€|eur)?[ \t]*[-–—][ \t]*[^\d\n]{0,5}?(\d[\d.,]*)`,
	)
	perAreaRe = regexp.MustCompile(
		`(?i)(\d[\d.,]*)[ \t]*(?:€|eur)?[ \t]*[-–—][ \t]*(?:€|eur|\$|£)?[ \t]*(\d[\d.,]*)[ \t]*(?:€|eur)?[ \t]*(?:/|per)[ \t]*m(?:²|2)`,
	)
	singleTotalRe = regexp.MustCompile(`(?i)\btotal[ \t]+project[ \t]+cost[^\d\n]{0,40}?(\d[\d.,]*)`)
	nonDigitRe    = regexp.MustCompile(`\D`)
)

// currencyLookahead is how far past a bare total range a trailing currency
// word such as "EUR" may sit.
const currencyLookahead = 6

// maxAmount caps derived bounds so they always fit an int64.
const maxAmount = 1e15

// Derive never fails: missing sections are empty and a text without numbers
// gets the fallback amount.
func (d *Deriver) Derive(rawText, surfaceArea string) domain.ParsedEstimate {
	sections := extractSections(rawText)
	area := d.ResolveArea(surfaceArea)
	rng, source := d.deriveRange(rawText, area)

	return domain.ParsedEstimate{
		AssessmentText:      sections[sectionAssessment],
		VisualizationText:   sections[sectionVisualization],
		RecommendationsText: sections[sectionRecommendations],
		PricingText:         sections[sectionPricing],
		TimelineText:        sections[sectionTimeline],
		InvestmentRange:     rng,
		Source:              source,
		ResolvedArea:        area,
	}
}

func extractSections(text string) map[section]string {
	out := make(map[section]string, 5)
	matches := sectionMarkerRe.FindAllStringSubmatchIndex(text, -1)
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		key, ok := sectionFor(text[m[2]:m[3]])
		if !ok {
			continue
		}
		if _, seen := out[key]; seen {
			continue
		}
		out[key] = cleanSection(text[m[1]:end])
	}
	return out
}

func sectionFor(marker string) (section, bool) {
	marker = strings.ToLower(marker)
	switch {
	case strings.Contains(marker, "assessment"):
		return sectionAssessment, true
	case strings.Contains(marker, "visualization"):
		return sectionVisualization, true
	case strings.Contains(marker, "recommendations"):
		return sectionRecommendations, true
	case strings.HasPrefix(marker, "pricing"):
		return sectionPricing, true
	case strings.Contains(marker, "timeline"):
		return sectionTimeline, true
	}
	return 0, false
}

func cleanSection(body string) string {
	body = strings.TrimSpace(body)
	body = strings.TrimLeft(body, ":")
	return strings.TrimSpace(body)
}

func (d *Deriver) deriveRange(text string, area float64) (domain.InvestmentRange, domain.EstimateSource) {
	for _, m := range totalRangeRe.FindAllStringSubmatchIndex(text, -1) {
		if !d.priceTotal(text, m[0], m[1]) {
			continue
		}
		a, okA := parseAmount(text[m[2]:m[3]])
		b, okB := parseAmount(text[m[4]:m[5]])
		if okA && okB {
			return d.rangeOf(a, b), domain.SourceTotalRange
		}
	}

	if m := perAreaRe.FindStringSubmatch(text); m != nil {
		a, okA := parseAmount(m[1])
		b, okB := parseAmount(m[2])
		if okA && okB {
			return d.rangeOf(a*area, b*area), domain.SourcePerArea
		}
	}

	if m := singleTotalRe.FindStringSubmatch(text); m != nil {
		if a, ok := parseAmount(m[1]); ok {
			return d.rangeOf(a, a), domain.SourceSingleTotal
		}
	}

	amount := d.roundAmount(float64(d.pricing.FallbackAmount))
	return domain.InvestmentRange{Min: amount, Max: amount}, domain.SourceFallback
}

func (d *Deriver) rangeOf(a, b float64) domain.InvestmentRange {
	low, high := d.roundAmount(a), d.roundAmount(b)
	if low > high {
		low, high = high, low
	}
	return domain.InvestmentRange{Min: low, Max: high}
}

// priceTotal reports whether the total range at text[start:end] is a price.
// "Total project cost" always is; a bare "total" needs a currency next to one
// of its amounts, so "Total duration: 3-4 weeks" is skipped.
func (d *Deriver) priceTotal(text string, start, end int) bool {
	match := strings.ToLower(text[start:end])
	if strings.Contains(match, "project") && strings.Contains(match, "cost") {
		return true
	}
	tail := text[end:min(len(text), end+currencyLookahead)]
	if nl := strings.IndexByte(tail, '\n'); nl >= 0 {
		tail = tail[:nl]
	}
	span := match + strings.ToLower(tail)
	for _, cur := range []string{"€", "eur", strings.ToLower(d.pricing.Currency)} {
		if cur != "" && strings.Contains(span, cur) {
			return true
		}
	}
	return false
}

// roundAmount rounds half away from zero to the nearest RoundTo. Values are
// clamped to [0, maxAmount] first.
func (d *Deriver) roundAmount(v float64) int64 {
	if math.IsNaN(v) || v < 0 {
		v = 0
	}
	v = min(v, maxAmount)
	step := float64(d.pricing.RoundTo)
	return int64(math.Round(v/step) * step)
}

// parseAmount drops every non-digit, so "6,500" and "6.500" are both 6500.
func parseAmount(raw string) (float64, bool) {
	digits := nonDigitRe.ReplaceAllString(raw, "")
	if digits == "" || len(digits) > 12 {
		return 0, false
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return float64(v), true
}
