package estimate

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pricing holds the business constants used to turn analysis text into a
// price range. They are product decisions, so they can be overridden from a
// YAML file without a rebuild.
type Pricing struct {
	DefaultArea    float64            `yaml:"default_area"`
	MaxArea        float64            `yaml:"max_area"`
	BucketAreas    map[string]float64 `yaml:"bucket_areas"`
	FallbackAmount int64              `yaml:"fallback_amount"`
	RoundTo        int64              `yaml:"round_to"`
	RateMin        float64            `yaml:"rate_min_per_m2"`
	RateMax        float64            `yaml:"rate_max_per_m2"`
	Currency       string             `yaml:"currency"`
}

const (
	defaultArea           = 100
	defaultMaxArea        = 100000
	defaultFallbackAmount = 5000
	defaultRoundTo        = 100
	defaultRateMin        = 80
	defaultRateMax        = 150
	defaultCurrency       = "€"
)

func DefaultPricing() Pricing {
	return Pricing{
		DefaultArea: defaultArea,
		MaxArea:     defaultMaxArea,
		BucketAreas: map[string]float64{
			"<50":  40,
			">150": 180,
		},
		FallbackAmount: defaultFallbackAmount,
		RoundTo:        defaultRoundTo,
		RateMin:        defaultRateMin,
		RateMax:        defaultRateMax,
		Currency:       defaultCurrency,
	}
}

// LoadPricing reads overrides from path. An empty path yields the defaults.
func LoadPricing(path string) (Pricing, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultPricing(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Pricing{}, fmt.Errorf("read pricing config: %w", err)
	}

	var p Pricing
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Pricing{}, fmt.Errorf("parse pricing config: %w", err)
	}
	p = p.withDefaults()
	if err := p.Validate(); err != nil {
		return Pricing{}, err
	}
	return p, nil
}

func (p Pricing) withDefaults() Pricing {
	def := DefaultPricing()
	if p.DefaultArea == 0 {
		p.DefaultArea = def.DefaultArea
	}
	if p.MaxArea == 0 {
		p.MaxArea = def.MaxArea
	}
	if p.BucketAreas == nil {
		p.BucketAreas = def.BucketAreas
	}
	if p.FallbackAmount == 0 {
		p.FallbackAmount = def.FallbackAmount
	}
	if p.RoundTo == 0 {
		p.RoundTo = def.RoundTo
	}
	if p.RateMin == 0 {
		p.RateMin = def.RateMin
	}
	if p.RateMax == 0 {
		p.RateMax = def.RateMax
	}
	if strings.TrimSpace(p.Currency) == "" {
		p.Currency = def.Currency
	}
	return p
}

func (p Pricing) Validate() error {
	if p.DefaultArea <= 0 {
		return fmt.Errorf("pricing: default_area must be > 0")
	}
	if p.MaxArea < p.DefaultArea {
		return fmt.Errorf("pricing: max_area must be >= default_area")
	}
	for token, area := range p.BucketAreas {
		if area <= 0 || area > p.MaxArea {
			return fmt.Errorf("pricing: bucket %q must map to an area in (0, max_area]", token)
		}
	}
	if p.FallbackAmount <= 0 {
		return fmt.Errorf("pricing: fallback_amount must be > 0")
	}
	if p.RoundTo <= 0 {
		return fmt.Errorf("pricing: round_to must be > 0")
	}
	if p.RateMin <= 0 || p.RateMax < p.RateMin {
		return fmt.Errorf("pricing: rate band %.0f-%.0f is invalid", p.RateMin, p.RateMax)
	}
	return nil
}
