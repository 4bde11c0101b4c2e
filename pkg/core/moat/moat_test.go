package moat

import (
	"testing"

	"dcf_valuation/pkg/models"
)

func TestScoreWideMoat(t *testing.T) {
	// Apple-like: ROIC 30%, gross margin 45%, 3y CAGR 8%, FCF margin 26%.
	rating, points, notes := Score(0.30, 0.45, 0.08, 0.26)
	if rating != models.MoatWide {
		t.Errorf("rating = %s, want wide (points=%d)", rating, points)
	}
	// 40 + 15 + 20 + 10 = 85
	if points != 85 {
		t.Errorf("points = %d, want 85", points)
	}
	if len(notes) == 0 {
		t.Error("expected rationale notes for a wide moat")
	}
}

func TestScoreNarrowMoat(t *testing.T) {
	// ROIC 17%, gross margin 40%, flat growth, FCF margin 12%.
	rating, points, _ := Score(0.17, 0.40, 0.01, 0.12)
	if rating != models.MoatNarrow {
		t.Errorf("rating = %s, want narrow (points=%d)", rating, points)
	}
	// 20 + 15 + 10 = 45, exactly at the narrow boundary.
	if points != 45 {
		t.Errorf("points = %d, want 45", points)
	}
}

func TestScoreNoMoat(t *testing.T) {
	rating, points, _ := Score(0.06, 0.22, -0.02, 0.03)
	if rating != models.MoatNone {
		t.Errorf("rating = %s, want none (points=%d)", rating, points)
	}
	if points != 0 {
		t.Errorf("points = %d, want 0", points)
	}
}

func TestScoreGrowthNeedsPositiveFCF(t *testing.T) {
	// Growth alone without cash generation earns no durability points.
	_, withFCF, _ := Score(0.12, 0.30, 0.10, 0.05)
	_, withoutFCF, _ := Score(0.12, 0.30, 0.10, -0.05)
	if withFCF-withoutFCF != 10 {
		t.Errorf("durability delta = %d, want 10", withFCF-withoutFCF)
	}
}
