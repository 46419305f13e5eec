package scoring

import "math"

// Signal normalizers map raw magnitudes (USD, counts, elapsed days) onto
// bounded [0,1] values so heterogeneous inputs can be combined in the
// weighted composite formulas. Every function is total: defined for all
// real inputs, never panics, never divides by zero.

// VolumeSignal maps a USD amount onto [0,1] on a piecewise log10 curve.
// The curve is flat below $1k, then gains 0.2 per decade up to $1M.
func VolumeSignal(usd float64) float64 {
	switch {
	case usd <= 0:
		return 0.0
	case usd < 1_000:
		return 0.2
	case usd < 10_000:
		return 0.3 + 0.2*math.Log10(usd/1_000)
	case usd < 100_000:
		return 0.5 + 0.2*math.Log10(usd/10_000)
	case usd < 1_000_000:
		return 0.7 + 0.2*math.Log10(usd/100_000)
	default:
		return 0.95
	}
}

// UrgencySignal maps days-until-resolution onto [0,1]. A nil value means
// the market has no known end date and scores a neutral 0.3. Markets at or
// past their end date score 1.0.
func UrgencySignal(daysUntilEnd *float64) float64 {
	if daysUntilEnd == nil {
		return 0.3
	}
	d := *daysUntilEnd
	switch {
	case d <= 0:
		return 1.0
	case d <= 1:
		return 0.95
	case d <= 3:
		return 0.85
	case d <= 7:
		return 0.7
	case d <= 14:
		return 0.5
	case d <= 30:
		return 0.3
	default:
		return 0.1
	}
}

// LogScaled compresses a raw magnitude onto [0,cap] via
// log10(max(x,1))/divisor. Values below 1 score 0.
func LogScaled(x, divisor, cap float64) float64 {
	if divisor <= 0 {
		return 0
	}
	v := math.Log10(math.Max(x, 1)) / divisor
	if v > cap {
		return cap
	}
	return v
}

// CountRatio is min(n/denom, cap), with 0 for non-positive denominators.
func CountRatio(n, denom, cap float64) float64 {
	if denom <= 0 {
		return 0
	}
	v := n / denom
	if v > cap {
		return cap
	}
	return v
}

// SafeRatio is num/denom with the zero-denominator case pinned to 0 and the
// result clamped to [0,1]. Used for timing-concentration ratios where the
// numerator is a subset of the denominator by construction.
func SafeRatio(num, denom float64) float64 {
	if denom <= 0 {
		return 0
	}
	return Clamp01(num / denom)
}

// Clamp01 clamps v into [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
