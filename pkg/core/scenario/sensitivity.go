package scenario

import (
	"dcf_valuation/pkg/core/assumption"
	"dcf_valuation/pkg/core/pipeline"
	"dcf_valuation/pkg/core/validate"
	"dcf_valuation/pkg/models"
)

// Axis names a perturbable assumption.
type Axis string

const (
	AxisGrowth         Axis = "revenue_growth"
	AxisMargin         Axis = "ebitda_margin"
	AxisWACC           Axis = "wacc"
	AxisTerminalGrowth Axis = "terminal_growth"
)

// Point is one sensitivity cell.
type Point struct {
	Delta     float64 `json:"delta"`
	Value     float64 `json:"value"`
	FairValue float64 `json:"price_per_share"`
	Err       string  `json:"error,omitempty"`
}

// OneWayResult is a single-axis sweep.
type OneWayResult struct {
	Axis   Axis    `json:"axis"`
	Points []Point `json:"points"`
}

// GridCell is one cell of the two-way grid.
type GridCell struct {
	GrowthDelta float64 `json:"growth_delta"`
	MarginDelta float64 `json:"margin_delta"`
	FairValue   float64 `json:"price_per_share"`
	Err         string  `json:"error,omitempty"`
}

// Sensitivity bundles the standard analysis: four one-way sweeps and the
// growth-by-margin grid.
type Sensitivity struct {
	Ticker        string         `json:"ticker"`
	BaseFairValue float64        `json:"base_fair_value"`
	OneWay        []OneWayResult `json:"one_way"`
	TwoWay        []GridCell     `json:"two_way_growth_margin"`
}

// Default deltas per axis. Growth moves in percentage points of the stage-1
// rate, margin in points of the target, WACC via the risk-free rate, and
// terminal growth directly.
var (
	growthDeltas   = []float64{-0.05, -0.025, 0, 0.025, 0.05}
	marginDeltas   = []float64{-0.02, -0.01, 0, 0.01, 0.02}
	waccDeltas     = []float64{-0.01, -0.005, 0, 0.005, 0.01}
	terminalDeltas = []float64{-0.01, -0.005, 0, 0.005, 0.01}

	twoWayGrowthDeltas = []float64{-0.03, 0, 0.03}
	twoWayMarginDeltas = []float64{-0.02, 0, 0.02}
)

// applyDelta perturbs one axis on a copy of the assumptions, holding the
// same floors the scenario adjustments use. Terminal growth keeps a 1%
// floor so a downward delta cannot push the perpetuity negative.
func applyDelta(base assumption.AssumptionSet, axis Axis, delta float64) assumption.AssumptionSet {
	a := base
	switch axis {
	case AxisGrowth:
		a.Stage1Growth = validate.Clamp(a.Stage1Growth+delta, -0.05, 1.0)
	case AxisMargin:
		a.EBITDAMarginTarget = validate.Clamp(a.EBITDAMarginTarget+delta, 0.05, 0.70)
	case AxisWACC:
		a.RiskFreeRate += delta
	case AxisTerminalGrowth:
		a.TerminalGrowth = validate.Clamp(a.TerminalGrowth+delta, 0.01, 0.08)
	}
	return a
}

func axisValue(a *assumption.AssumptionSet, axis Axis) float64 {
	switch axis {
	case AxisGrowth:
		return a.Stage1Growth
	case AxisMargin:
		return a.EBITDAMarginTarget
	case AxisWACC:
		return a.RiskFreeRate
	case AxisTerminalGrowth:
		return a.TerminalGrowth
	}
	return 0
}

// OneWay sweeps a single axis around the base assumptions.
func OneWay(engine *pipeline.Engine, snap *models.FundamentalsSnapshot, base assumption.AssumptionSet, axis Axis, deltas []float64) OneWayResult {
	out := OneWayResult{Axis: axis, Points: make([]Point, 0, len(deltas))}
	for _, d := range deltas {
		a := applyDelta(base, axis, d)
		p := Point{Delta: d, Value: axisValue(&a, axis)}
		if res, err := engine.RunDCFWith(snap, a); err != nil {
			p.Err = err.Error()
		} else {
			p.FairValue = res.FairValuePerShare
		}
		out.Points = append(out.Points, p)
	}
	return out
}

// TwoWay builds the growth-by-margin grid.
func TwoWay(engine *pipeline.Engine, snap *models.FundamentalsSnapshot, base assumption.AssumptionSet) []GridCell {
	cells := make([]GridCell, 0, len(twoWayGrowthDeltas)*len(twoWayMarginDeltas))
	for _, dg := range twoWayGrowthDeltas {
		for _, dm := range twoWayMarginDeltas {
			a := applyDelta(base, AxisGrowth, dg)
			a = applyDelta(a, AxisMargin, dm)
			cell := GridCell{GrowthDelta: dg, MarginDelta: dm}
			if res, err := engine.RunDCFWith(snap, a); err != nil {
				cell.Err = err.Error()
			} else {
				cell.FairValue = res.FairValuePerShare
			}
			cells = append(cells, cell)
		}
	}
	return cells
}

// Analyze runs the full standard sensitivity suite.
func Analyze(engine *pipeline.Engine, snap *models.FundamentalsSnapshot, ov *assumption.Overrides) (*Sensitivity, error) {
	base, err := engine.Assumptions(snap, ov)
	if err != nil {
		return nil, err
	}
	baseRes, err := engine.RunDCFWith(snap, base)
	if err != nil {
		return nil, err
	}

	return &Sensitivity{
		Ticker:        snap.Ticker,
		BaseFairValue: baseRes.FairValuePerShare,
		OneWay: []OneWayResult{
			OneWay(engine, snap, base, AxisGrowth, growthDeltas),
			OneWay(engine, snap, base, AxisMargin, marginDeltas),
			OneWay(engine, snap, base, AxisWACC, waccDeltas),
			OneWay(engine, snap, base, AxisTerminalGrowth, terminalDeltas),
		},
		TwoWay: TwoWay(engine, snap, base),
	}, nil
}
