// Package validate provides reusable financial math utilities shared by the
// assumption generator, the moat scorer, and the snapshot providers. All
// rates are decimals (0.10 = 10%).
package validate

import (
	"fmt"
	"math"
)

// =============================================================================
// GROWTH CALCULATIONS
// =============================================================================

// CAGR computes compound annual growth rate as a decimal.
// CAGR = (end/start)^(1/years) - 1. Returns 0 when start or years is
// non-positive.
func CAGR(start, end float64, years int) float64 {
	if start <= 0 || years <= 0 {
		return 0
	}
	if end <= 0 {
		return -1
	}
	return math.Pow(end/start, 1.0/float64(years)) - 1
}

// YoY computes the year-over-year change as a decimal.
func YoY(current, prior float64) float64 {
	if prior == 0 {
		if current == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return (current - prior) / prior
}

// =============================================================================
// BOUNDS AND BLENDS
// =============================================================================

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Blend mixes two values: w*a + (1-w)*b.
func Blend(a, b, w float64) float64 {
	return w*a + (1-w)*b
}

// MeanRevert moves current toward target but never by more than maxShift
// in either direction.
func MeanRevert(current, target, maxShift float64) float64 {
	shift := Clamp(target-current, -maxShift, maxShift)
	return current + shift
}

// SafeDiv returns num/den, or fallback when den is zero.
func SafeDiv(num, den, fallback float64) float64 {
	if den == 0 {
		return fallback
	}
	return num / den
}

// =============================================================================
// OUTLIER DETECTION
// =============================================================================

// OutlierCheck flags a suspicious value change between two periods.
type OutlierCheck struct {
	Item      string
	Value     float64
	Prior     float64
	ChangePct float64
	IsOutlier bool
	Reason    string
}

// CheckForOutlier flags values that dropped to zero or moved more than
// threshold (decimal) versus the prior period. Used by providers to reject
// mangled scrapes before they reach the model.
func CheckForOutlier(item string, current, prior, threshold float64) *OutlierCheck {
	change := YoY(current, prior)
	check := &OutlierCheck{Item: item, Value: current, Prior: prior, ChangePct: change}

	if current == 0 && prior > 0 {
		check.IsOutlier = true
		check.Reason = "value dropped to zero (likely extraction error)"
		return check
	}
	if math.Abs(change) > threshold {
		check.IsOutlier = true
		check.Reason = fmt.Sprintf("change of %.1f%% exceeds threshold of %.1f%%", change*100, threshold*100)
	}
	return check
}
