package valuation

import (
	"time"

	"dcf_valuation/pkg/models"
)

// Recommendation buckets an upside percentage.
type Recommendation string

const (
	StrongBuy  Recommendation = "STRONG BUY"
	Buy        Recommendation = "BUY"
	Hold       Recommendation = "HOLD"
	Sell       Recommendation = "SELL"
	StrongSell Recommendation = "STRONG SELL"
)

// Recommend maps an upside percentage to a rating.
func Recommend(upsidePct float64) Recommendation {
	switch {
	case upsidePct > 20:
		return StrongBuy
	case upsidePct > 10:
		return Buy
	case upsidePct > -5:
		return Hold
	case upsidePct > -15:
		return Sell
	default:
		return StrongSell
	}
}

// ModelEstimate is one model's fair value contribution to the consensus.
type ModelEstimate struct {
	Model     string  `json:"model"`
	FairValue float64 `json:"fair_value"`
	Upside    float64 `json:"upside_downside"`
}

// AnalystGap compares the model consensus with street targets.
type AnalystGap struct {
	AverageTarget float64 `json:"average_target_price"`
	AnalystCount  int     `json:"analyst_count"`
	Gap           float64 `json:"gap_vs_weighted"`
	GapPercent    float64 `json:"gap_vs_weighted_pct"`
}

// Summary aggregates the individual model runs into a consensus view.
type Summary struct {
	Ticker            string          `json:"ticker"`
	CurrentPrice      float64         `json:"current_price"`
	Estimates         []ModelEstimate `json:"estimates"`
	WeightedFairValue float64         `json:"weighted_fair_value"`
	UpsideToWeighted  float64         `json:"upside_to_weighted"`
	Recommendation    Recommendation  `json:"recommendation"`
	Method            string          `json:"method"`
	AnalystConsensus  *AnalystGap     `json:"analyst_consensus,omitempty"`
	GeneratedAt       time.Time       `json:"generated_at"`
}

// Summarize equal-weights the supplied model estimates, maps the blended
// upside to a recommendation, and reports how far the street is from the
// models when analyst targets are available.
func Summarize(snap *models.FundamentalsSnapshot, estimates []ModelEstimate) (*Summary, error) {
	if len(estimates) == 0 {
		return nil, models.NewInvalidInput("at least one model estimate required")
	}

	sum := 0.0
	for _, e := range estimates {
		sum += e.FairValue
	}
	weighted := sum / float64(len(estimates))

	upside := 0.0
	if snap.CurrentPrice > 0 {
		upside = (weighted - snap.CurrentPrice) / snap.CurrentPrice * 100
	}

	s := &Summary{
		Ticker:            snap.Ticker,
		CurrentPrice:      snap.CurrentPrice,
		Estimates:         estimates,
		WeightedFairValue: weighted,
		UpsideToWeighted:  upside,
		Recommendation:    Recommend(upside),
		Method:            "Equal weight average of available models",
		GeneratedAt:       time.Now().UTC(),
	}

	if snap.AnalystAvgTarget > 0 && snap.AnalystCount > 0 {
		gap := snap.AnalystAvgTarget - weighted
		gapPct := 0.0
		if snap.CurrentPrice > 0 {
			gapPct = gap / snap.CurrentPrice * 100
		}
		s.AnalystConsensus = &AnalystGap{
			AverageTarget: snap.AnalystAvgTarget,
			AnalystCount:  snap.AnalystCount,
			Gap:           gap,
			GapPercent:    gapPct,
		}
	}
	return s, nil
}
