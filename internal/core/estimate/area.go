package estimate

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	areaBucketRe  = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*-\s*(\d+(?:\.\d+)?)$`)
	areaNumericRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(?:m²|m2|sqm)?$`)
)

// ResolveArea turns the surface-area answer into square metres. It is total:
// any input yields a finite positive number no larger than MaxArea.
func (d *Deriver) ResolveArea(surfaceArea string) float64 {
	token := strings.ToLower(strings.TrimSpace(surfaceArea))
	token = strings.ReplaceAll(token, ",", ".")
	if token == "" || token == "unknown" {
		return d.pricing.DefaultArea
	}

	if area, ok := d.pricing.BucketAreas[token]; ok {
		return area
	}

	if m := areaBucketRe.FindStringSubmatch(token); m != nil {
		low, errLow := strconv.ParseFloat(m[1], 64)
		high, errHigh := strconv.ParseFloat(m[2], 64)
		if errLow == nil && errHigh == nil {
			if mean := (low + high) / 2; d.usableArea(mean) {
				return mean
			}
		}
		return d.pricing.DefaultArea
	}

	if m := areaNumericRe.FindStringSubmatch(token); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && d.usableArea(v) {
			return v
		}
	}
	return d.pricing.DefaultArea
}

// usableArea rejects non-positive, non-finite and implausibly large areas.
func (d *Deriver) usableArea(v float64) bool {
	return v > 0 && v <= d.pricing.MaxArea && !math.IsNaN(v) && !math.IsInf(v, 0)
}
