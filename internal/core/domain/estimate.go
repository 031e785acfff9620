package domain

// EstimateSource names the rule that produced an investment range.
type EstimateSource string

const (
	SourceTotalRange  EstimateSource = "total_range"
	SourcePerArea     EstimateSource = "per_area"
	SourceSingleTotal EstimateSource = "single_total"
	SourceFallback    EstimateSource = "fallback"
)

type InvestmentRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// ParsedEstimate is derived from raw analysis text; recompute it, never mutate it.
type ParsedEstimate struct {
	AssessmentText      string          `json:"assessmentText"`
	VisualizationText   string          `json:"visualizationText"`
	RecommendationsText string          `json:"recommendationsText"`
	PricingText         string          `json:"pricingText"`
	TimelineText        string          `json:"timelineText"`
	InvestmentRange     InvestmentRange `json:"investmentRange"`
	Source              EstimateSource  `json:"source"`
	ResolvedArea        float64         `json:"resolvedArea"`
}

// Analysis is the raw text answer plus where it came from.
type Analysis struct {
	Text     string       `json:"text"`
	Provider TextProvider `json:"provider"`
	Local    bool         `json:"local"`
}
