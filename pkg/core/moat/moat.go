// Package moat scores competitive advantage from fundamentals. The rating
// feeds the terminal growth assumption: durable moats compound closer to
// nominal GDP growth for longer.
package moat

import (
	"fmt"

	"dcf_valuation/pkg/models"
)

// Score grades a company on a 100-point scale and maps it to a rating.
//
// Points:
//   - ROIC (40): >25% full credit, >15% half, >10% quarter
//   - Gross margin (30): >50% full, >35% half
//   - FCF margin (20): >20% full, >10% half
//   - Growth durability (10): 3y revenue CAGR >5% with positive FCF
//
// Wide >= 70, narrow >= 45, else none.
func Score(roic, grossMargin, revCAGR3, fcfMargin float64) (models.MoatRating, int, []string) {
	points := 0
	var notes []string

	switch {
	case roic > 0.25:
		points += 40
		notes = append(notes, fmt.Sprintf("ROIC %.1f%% indicates exceptional capital efficiency", roic*100))
	case roic > 0.15:
		points += 20
		notes = append(notes, fmt.Sprintf("ROIC %.1f%% is solidly above cost of capital", roic*100))
	case roic > 0.10:
		points += 10
		notes = append(notes, fmt.Sprintf("ROIC %.1f%% modestly exceeds cost of capital", roic*100))
	default:
		notes = append(notes, fmt.Sprintf("ROIC %.1f%% offers no excess-return evidence", roic*100))
	}

	switch {
	case grossMargin > 0.50:
		points += 30
		notes = append(notes, fmt.Sprintf("gross margin %.1f%% shows strong pricing power", grossMargin*100))
	case grossMargin > 0.35:
		points += 15
		notes = append(notes, fmt.Sprintf("gross margin %.1f%% shows some pricing power", grossMargin*100))
	}

	switch {
	case fcfMargin > 0.20:
		points += 20
		notes = append(notes, fmt.Sprintf("FCF margin %.1f%% converts revenue to cash at an elite rate", fcfMargin*100))
	case fcfMargin > 0.10:
		points += 10
	}

	if revCAGR3 > 0.05 && fcfMargin > 0 {
		points += 10
		notes = append(notes, fmt.Sprintf("revenue CAGR %.1f%% with positive FCF suggests durable demand", revCAGR3*100))
	}

	rating := models.MoatNone
	switch {
	case points >= 70:
		rating = models.MoatWide
	case points >= 45:
		rating = models.MoatNarrow
	}
	return rating, points, notes
}
