package projection

import (
	"dcf_valuation/pkg/core/assumption"
	"dcf_valuation/pkg/models"
)

// Result holds the explicit forecast plus the normalized terminal year the
// valuation layer values into perpetuity.
type Result struct {
	Years    []Year `json:"projections"`
	Terminal Year   `json:"terminal_year"`
}

// Project builds the full staged forecast for a snapshot.
//
// Stage 1 grows revenue at the stage-1 rate, decayed geometrically each year
// when the rate starts above the high-growth threshold. The EBITDA margin
// interpolates linearly from current to target across stage 1. Stage 2
// declines growth linearly to the stage-2 ending rate with the margin held
// at target. The terminal year grows once more at the terminal rate.
//
// FCF = NOPAT + D&A - CapEx - change in NWC for every year.
func Project(snap *models.FundamentalsSnapshot, a *assumption.AssumptionSet) Result {
	s1, s2 := a.Stage1Years, a.Stage2Years
	horizon := s1 + s2

	years := make([]Year, 0, horizon)
	revenue := snap.Revenue
	priorRevenue := snap.Revenue
	priorNWC := nwcBalance(snap.Revenue, a)
	shares := snap.SharesOutstanding
	debt := snap.TotalDebt

	growth := a.Stage1Growth
	decaying := a.Stage1Growth > a.HighGrowthThreshold && a.GrowthDecayFactor > 0
	// Stage 2 glides down from where stage 1 actually ended, so an active
	// decay never produces a growth rebound at the stage boundary.
	stage1Ending := growth

	for y := 1; y <= horizon; y++ {
		var (
			stage  Stage
			margin float64
		)
		switch {
		case y <= s1:
			stage = StageHighGrowth
			if decaying && y > 1 {
				growth *= a.GrowthDecayFactor
			}
			stage1Ending = growth
			progress := float64(y) / float64(s1)
			margin = a.EBITDAMarginCurrent + (a.EBITDAMarginTarget-a.EBITDAMarginCurrent)*progress
		default:
			stage = StageTransition
			progress := float64(y-s1) / float64(s2)
			growth = stage1Ending - (stage1Ending-a.Stage2EndingGrowth)*progress
			margin = a.EBITDAMarginTarget
		}

		revenue = priorRevenue * (1 + growth)
		shares *= 1 - a.BuybackRate
		debt *= 1 - a.DebtPaydownRate

		yr := articulate(y, stage, growth, revenue, priorRevenue, margin, a, &priorNWC)
		yr.SharesOutstanding = shares
		yr.TotalDebt = debt
		years = append(years, yr)
		priorRevenue = revenue
	}

	// Terminal year: one more period at the perpetuity growth rate.
	terminalRevenue := revenue * (1 + a.TerminalGrowth)
	terminal := articulate(horizon+1, StageTerminal, a.TerminalGrowth,
		terminalRevenue, revenue, a.EBITDAMarginTarget, a, &priorNWC)
	terminal.SharesOutstanding = shares
	terminal.TotalDebt = debt

	return Result{Years: years, Terminal: terminal}
}

// articulate fills in one year's income statement walk down to FCF.
// priorNWC is updated in place when day drivers are active.
func articulate(year int, stage Stage, growth, revenue, priorRevenue, margin float64,
	a *assumption.AssumptionSet, priorNWC *float64) Year {

	ebitda := revenue * margin
	depreciation := revenue * a.DAPct
	ebit := ebitda - depreciation
	nopat := ebit * (1 - a.TaxRate)
	capex := revenue * a.CapexPct

	var nwcChange float64
	if a.UsesDayDrivers() {
		balance := nwcBalance(revenue, a)
		nwcChange = balance - *priorNWC
		*priorNWC = balance
	} else {
		nwcChange = (revenue - priorRevenue) * a.NWCPct
	}

	return Year{
		Year:         year,
		Stage:        stage,
		GrowthRate:   growth,
		Revenue:      revenue,
		EBITDAMargin: margin,
		EBITDA:       ebitda,
		Depreciation: depreciation,
		EBIT:         ebit,
		NOPAT:        nopat,
		CapEx:        capex,
		NWCChange:    nwcChange,
		FreeCashFlow: nopat + depreciation - capex - nwcChange,
	}
}

// nwcBalance computes working capital from day-based drivers:
// receivables + inventory - payables, with COGS approximated as a fixed
// fraction of revenue. Returns 0 when the drivers are unset, which makes
// the first delta equal the flat-percent method's baseline of zero.
func nwcBalance(revenue float64, a *assumption.AssumptionSet) float64 {
	if !a.UsesDayDrivers() {
		return 0
	}
	cogs := revenue * a.COGSPct
	receivables := revenue / 365 * a.DSO
	inventory := cogs / 365 * a.DIO
	payables := cogs / 365 * a.DPO
	return receivables + inventory - payables
}
