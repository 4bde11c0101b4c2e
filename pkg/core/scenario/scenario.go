// Package scenario runs the valuation engine under perturbed assumptions:
// bull/bear/base cases with probability weighting, and one- and two-way
// sensitivity grids.
package scenario

import (
	"fmt"
	"math"
	"sync"

	"dcf_valuation/pkg/core/assumption"
	"dcf_valuation/pkg/core/pipeline"
	"dcf_valuation/pkg/core/valuation"
	"dcf_valuation/pkg/core/validate"
	"dcf_valuation/pkg/models"
)

// Name identifies a scenario case.
type Name string

const (
	Base Name = "base"
	Bull Name = "bull"
	Bear Name = "bear"
)

// Probabilities assigned to each case in the weighted fair value.
var probabilities = map[Name]float64{
	Base: 0.50,
	Bull: 0.25,
	Bear: 0.25,
}

// Case is one scenario's outcome.
type Case struct {
	Name        Name              `json:"scenario"`
	Probability float64           `json:"probability"`
	Result      *valuation.Result `json:"result,omitempty"`
	Err         string            `json:"error,omitempty"`
}

// FairValueRange brackets the per-share outcome across scenarios.
type FairValueRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
	Base float64 `json:"base"`
}

// Bundle aggregates the scenario runs with an executive summary: the
// probability-weighted value, the bull/bear range, and a confidence level
// that shrinks as the range widens relative to its midpoint.
type Bundle struct {
	Ticker            string         `json:"ticker"`
	Cases             []Case         `json:"scenarios"`
	Range             FairValueRange `json:"fair_value_range"`
	WeightedFairValue float64        `json:"probability_weighted_value"`
	Confidence        float64        `json:"confidence_level"`
	CurrentPrice      float64        `json:"current_price"`
	UpsidePercent     float64        `json:"upside_downside"`
	KeyDrivers        []string       `json:"key_drivers"`
	KeyRisks          []string       `json:"key_risks"`
}

// Adjust perturbs a copy of the base assumptions for a scenario.
//
// Bull: growth +30%, margin +2pp, risk-free -1pp, exit multiple +20%.
// Bear: growth -30% (floored at -5%), margin -2pp (floored at 5%),
// risk-free +1pp, exit multiple -20%. Base returns the copy unchanged.
func Adjust(base assumption.AssumptionSet, name Name, maxGrowth float64) assumption.AssumptionSet {
	a := base
	switch name {
	case Bull:
		a.Stage1Growth = validate.Clamp(a.Stage1Growth*1.3, -0.05, maxGrowth)
		a.EBITDAMarginTarget = validate.Clamp(a.EBITDAMarginTarget+0.02, 0.05, 0.70)
		a.RiskFreeRate -= 0.01
		a.ExitMultiple *= 1.2
	case Bear:
		a.Stage1Growth = validate.Clamp(a.Stage1Growth*0.7, -0.05, maxGrowth)
		a.EBITDAMarginTarget = validate.Clamp(a.EBITDAMarginTarget-0.02, 0.05, 0.70)
		a.RiskFreeRate += 0.01
		a.ExitMultiple *= 0.8
	}
	return a
}

// Run executes base, bull, and bear concurrently and probability-weights
// the fair values. A failed case keeps its probability out of the weighting;
// the surviving weights are re-normalized. All three failing is an error.
func Run(engine *pipeline.Engine, snap *models.FundamentalsSnapshot, ov *assumption.Overrides) (*Bundle, error) {
	base, err := engine.Assumptions(snap, ov)
	if err != nil {
		return nil, err
	}
	maxGrowth := engine.Config().Market.MaxGrowthRate

	names := []Name{Base, Bull, Bear}
	cases := make([]Case, len(names))

	var wg sync.WaitGroup
	var mu sync.Mutex
	for i, name := range names {
		wg.Add(1)
		go func(i int, name Name) {
			defer wg.Done()
			adjusted := Adjust(base, name, maxGrowth)
			res, err := engine.RunDCFWith(snap, adjusted)

			mu.Lock()
			defer mu.Unlock()
			c := Case{Name: name, Probability: probabilities[name]}
			if err != nil {
				c.Err = err.Error()
			} else {
				c.Result = res
			}
			cases[i] = c
		}(i, name)
	}
	wg.Wait()

	weighted, totalProb := 0.0, 0.0
	for _, c := range cases {
		if c.Result != nil {
			weighted += c.Result.FairValuePerShare * c.Probability
			totalProb += c.Probability
		}
	}
	if totalProb == 0 {
		return nil, models.NewInvalidInput("all scenarios failed for %s", snap.Ticker)
	}
	weighted /= totalProb

	upside := 0.0
	if snap.CurrentPrice > 0 {
		upside = (weighted - snap.CurrentPrice) / snap.CurrentPrice * 100
	}
	rng, confidence := summarize(cases)
	return &Bundle{
		Ticker:            snap.Ticker,
		Cases:             cases,
		Range:             rng,
		WeightedFairValue: weighted,
		Confidence:        confidence,
		CurrentPrice:      snap.CurrentPrice,
		UpsidePercent:     upside,
		KeyDrivers:        drivers(snap, caseResult(cases, Base)),
		KeyRisks: []string{
			"Growth slowdown below assumptions",
			"Margin compression from competition",
			"Higher cost of capital",
		},
	}, nil
}

func caseResult(cases []Case, name Name) *valuation.Result {
	for _, c := range cases {
		if c.Name == name {
			return c.Result
		}
	}
	return nil
}

// summarize brackets the scenario outcomes and scores confidence by the
// bull/bear spread relative to its midpoint, floored at 0.5. A failed
// case leaves its bound at zero.
func summarize(cases []Case) (FairValueRange, float64) {
	var r FairValueRange
	for _, c := range cases {
		if c.Result == nil {
			continue
		}
		switch c.Name {
		case Base:
			r.Base = c.Result.FairValuePerShare
		case Bull:
			r.High = c.Result.FairValuePerShare
		case Bear:
			r.Low = c.Result.FairValuePerShare
		}
	}
	confidence := 0.5
	if avg := (r.High + r.Low) / 2; avg > 0 {
		confidence = math.Max(0.5, 1-(r.High-r.Low)/avg/2)
	}
	return r, confidence
}

func drivers(snap *models.FundamentalsSnapshot, base *valuation.Result) []string {
	growth := "Revenue growth"
	wacc := 0.0
	if base != nil {
		if snap.Revenue > 0 && len(base.Projections) > 0 {
			growth = fmt.Sprintf("Revenue growth: %.1f%%", (base.Projections[0].Revenue/snap.Revenue-1)*100)
		}
		wacc = base.WACC.WACC
	}
	return []string{
		growth,
		"EBITDA margin expansion",
		fmt.Sprintf("WACC: %.1f%%", wacc*100),
	}
}
