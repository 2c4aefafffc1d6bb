package normalization

import (
	"math"

	"github.com/shopspring/decimal"

	"solana-token-feed/internal/domain"
	"solana-token-feed/internal/upstream"
)

var maxCount = decimal.NewFromInt(math.MaxInt64)

// parseFloat parses an upstream number. Missing, unparseable or out of range
// input yields 0.
func parseFloat(n upstream.Number) float64 {
	f, ok := toFloat(n)
	if !ok {
		return 0
	}
	return f
}

// toFloat reports false for input that is missing, unparseable or does not
// fit in a finite float64.
func toFloat(n upstream.Number) (float64, bool) {
	if n == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return 0, false
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// parseNonNegative is parseFloat clamped at 0.
func parseNonNegative(n upstream.Number) float64 {
	f := parseFloat(n)
	if f < 0 {
		return 0
	}
	return f
}

// parseCount parses a count, truncating fractions. Negative or invalid input
// yields 0; counts beyond int64 saturate at math.MaxInt64.
func parseCount(n upstream.Number) int64 {
	if n == "" {
		return 0
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil || d.IsNegative() {
		return 0
	}
	if d.GreaterThan(maxCount) {
		return math.MaxInt64
	}
	return d.IntPart()
}

// sumCounts parses and adds two counts without overflowing.
func sumCounts(a, b upstream.Number) int64 {
	return domain.AddCounts(parseCount(a), parseCount(b))
}

// parsePrice parses a price and reports whether it is usable (present,
// numeric, finite, non-negative).
func parsePrice(n upstream.Number) (float64, bool) {
	f, ok := toFloat(n)
	if !ok || f < 0 {
		return 0, false
	}
	return f, true
}

// firstPositive returns the first value greater than zero, or 0.
func firstPositive(values ...float64) float64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
