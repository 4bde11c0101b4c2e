// Package assumption derives the model inputs for a valuation run from a
// fundamentals snapshot. The generator applies the house view (growth
// blending, size ceilings, margin mean reversion, moat-keyed terminal
// growth) and records every guardrail it triggers as a warning on the
// resulting set. Sets are value types: scenario and sensitivity code copies
// them freely and mutates the copies.
package assumption

import (
	"fmt"
	"time"

	"dcf_valuation/pkg/core/config"
	"dcf_valuation/pkg/core/validate"
	"dcf_valuation/pkg/models"
)

// TerminalMethod selects how the terminal value is computed.
type TerminalMethod string

const (
	TerminalPerpetuity   TerminalMethod = "perpetuity"
	TerminalExitMultiple TerminalMethod = "exit_multiple"
	TerminalBoth         TerminalMethod = "both"
)

// =============================================================================
// ASSUMPTION SET
// =============================================================================

// AssumptionSet is the complete, flat input contract of the projection and
// valuation engines. All rates are decimals.
type AssumptionSet struct {
	// Stage 1: high growth.
	Stage1Growth float64 `json:"stage1_revenue_growth"`
	Stage1Years  int     `json:"stage1_years"`

	// Stage 2: linear transition toward terminal.
	Stage2EndingGrowth float64 `json:"stage2_ending_growth"`
	Stage2Years        int     `json:"stage2_years"`

	// Terminal stage.
	TerminalGrowth float64        `json:"terminal_growth"`
	TerminalMethod TerminalMethod `json:"terminal_method"`
	ExitMultiple   float64        `json:"terminal_ebitda_multiple"`

	// Margins.
	EBITDAMarginCurrent float64 `json:"ebitda_margin_current"`
	EBITDAMarginTarget  float64 `json:"ebitda_margin_target"`

	// Reinvestment.
	CapexPct float64 `json:"capex_percent_revenue"`
	DAPct    float64 `json:"depreciation_percent_revenue"`
	NWCPct   float64 `json:"nwc_percent_revenue"`

	// Working-capital day drivers. When all three are set the projection
	// derives the NWC change from receivable/inventory/payable balances
	// instead of NWCPct.
	DSO     float64 `json:"dso,omitempty"`
	DIO     float64 `json:"dio,omitempty"`
	DPO     float64 `json:"dpo,omitempty"`
	COGSPct float64 `json:"cogs_percent_revenue,omitempty"`

	// Cost of capital inputs.
	RiskFreeRate      float64 `json:"risk_free_rate"`
	MarketRiskPremium float64 `json:"market_risk_premium"`
	Beta              float64 `json:"beta"`
	CostOfDebt        float64 `json:"cost_of_debt"`
	TaxRate           float64 `json:"tax_rate"`

	// Capital allocation drift applied across the projection horizon.
	BuybackRate     float64 `json:"buyback_rate"`
	DebtPaydownRate float64 `json:"debt_paydown_rate"`

	// Stage-1 hyper-growth decay.
	HighGrowthThreshold float64 `json:"high_growth_threshold"`
	GrowthDecayFactor   float64 `json:"growth_decay_factor"`

	// Context carried through to the result.
	EconomicMoat models.MoatRating `json:"economic_moat"`
	MoatScore    int               `json:"moat_score"`

	Warnings    []string  `json:"warnings,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Horizon returns the total number of explicit projection years.
func (a *AssumptionSet) Horizon() int {
	return a.Stage1Years + a.Stage2Years
}

// UsesDayDrivers reports whether working capital is modeled from
// DSO/DIO/DPO balances rather than a flat percent of revenue change.
func (a *AssumptionSet) UsesDayDrivers() bool {
	return a.DSO > 0 && a.DIO > 0 && a.DPO > 0 && a.COGSPct > 0
}

// Warn appends a guardrail note.
func (a *AssumptionSet) Warn(format string, args ...interface{}) {
	a.Warnings = append(a.Warnings, fmt.Sprintf(format, args...))
}

// EnforceTerminalConstraint corrects terminal growth that meets or exceeds
// the discount rate. Gordon growth is undefined there, so the rate is pulled
// back to half the WACC. Scenario and sensitivity cells call this after
// perturbing either side.
func (a *AssumptionSet) EnforceTerminalConstraint(wacc float64) {
	if a.TerminalGrowth >= wacc {
		corrected := wacc * 0.5
		a.Warn("terminal growth %.2f%% >= WACC %.2f%%, corrected to %.2f%%",
			a.TerminalGrowth*100, wacc*100, corrected*100)
		a.TerminalGrowth = corrected
	}
}

// =============================================================================
// OVERRIDES
// =============================================================================

// Overrides selectively replaces generated assumptions. Nil fields keep the
// generated value.
type Overrides struct {
	Stage1Growth        *float64        `json:"stage1_revenue_growth,omitempty"`
	Stage2EndingGrowth  *float64        `json:"stage2_ending_growth,omitempty"`
	TerminalGrowth      *float64        `json:"terminal_growth,omitempty"`
	TerminalMethod      *TerminalMethod `json:"terminal_method,omitempty"`
	ExitMultiple        *float64        `json:"terminal_ebitda_multiple,omitempty"`
	EBITDAMarginTarget  *float64        `json:"ebitda_margin_target,omitempty"`
	CapexPct            *float64        `json:"capex_percent_revenue,omitempty"`
	NWCPct              *float64        `json:"nwc_percent_revenue,omitempty"`
	RiskFreeRate        *float64        `json:"risk_free_rate,omitempty"`
	Beta                *float64        `json:"beta,omitempty"`
	CostOfDebt          *float64        `json:"cost_of_debt,omitempty"`
	TaxRate             *float64        `json:"tax_rate,omitempty"`
	BuybackRate         *float64        `json:"buyback_rate,omitempty"`
	DebtPaydownRate     *float64        `json:"debt_paydown_rate,omitempty"`
}

func (o *Overrides) apply(a *AssumptionSet) {
	if o == nil {
		return
	}
	setF := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	setF(&a.Stage1Growth, o.Stage1Growth)
	setF(&a.Stage2EndingGrowth, o.Stage2EndingGrowth)
	setF(&a.TerminalGrowth, o.TerminalGrowth)
	setF(&a.ExitMultiple, o.ExitMultiple)
	setF(&a.EBITDAMarginTarget, o.EBITDAMarginTarget)
	setF(&a.CapexPct, o.CapexPct)
	setF(&a.NWCPct, o.NWCPct)
	setF(&a.RiskFreeRate, o.RiskFreeRate)
	setF(&a.Beta, o.Beta)
	setF(&a.CostOfDebt, o.CostOfDebt)
	setF(&a.TaxRate, o.TaxRate)
	setF(&a.BuybackRate, o.BuybackRate)
	setF(&a.DebtPaydownRate, o.DebtPaydownRate)
	if o.TerminalMethod != nil {
		a.TerminalMethod = *o.TerminalMethod
	}
}

// =============================================================================
// GENERATOR
// =============================================================================

// Generator builds assumption sets against an injected configuration.
type Generator struct {
	cfg *config.Config
}

// NewGenerator returns a Generator using cfg, or the compiled-in defaults
// when cfg is nil.
func NewGenerator(cfg *config.Config) *Generator {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Generator{cfg: cfg}
}

// Generate derives a full assumption set from the snapshot, then layers
// overrides on top. Overridden values are taken as-is except for the
// terminal growth ceiling, which always holds.
func (g *Generator) Generate(snap *models.FundamentalsSnapshot, ov *Overrides) (AssumptionSet, error) {
	if err := snap.Validate(); err != nil {
		return AssumptionSet{}, err
	}
	mkt := g.cfg.Market
	sector := g.cfg.Sector(snap.Sector)

	a := AssumptionSet{
		Stage1Years:         mkt.Stage1Years,
		Stage2Years:         mkt.Stage2Years,
		TerminalMethod:      TerminalPerpetuity,
		RiskFreeRate:        mkt.RiskFreeRate,
		MarketRiskPremium:   mkt.MarketRiskPremium,
		TaxRate:             mkt.TaxRate,
		NWCPct:              0.02,
		DAPct:               0.03,
		HighGrowthThreshold: mkt.HighGrowthThreshold,
		GrowthDecayFactor:   mkt.GrowthDecayFactor,
		EconomicMoat:        snap.EconomicMoat,
		MoatScore:           snap.MoatScore,
		GeneratedAt:         time.Now().UTC(),
	}

	// Growth: blend 40% historical with 60% analyst forward view, then cap
	// by company size. Mega caps cannot compound at startup rates.
	hist := snap.RevenueCAGR3Y
	analyst := snap.AnalystRevenueGrowth3Y
	if analyst == 0 {
		analyst = hist
	}
	blended := validate.Blend(hist, analyst, 0.4)
	ceiling := g.cfg.GrowthCeilingFor(snap.MarketCapValue())
	a.Stage1Growth = blended
	if blended > ceiling {
		a.Stage1Growth = ceiling
		a.Warn("stage-1 growth %.1f%% capped at %.1f%% for market cap $%.0fB",
			blended*100, ceiling*100, snap.MarketCapValue()/1e9)
	}
	if a.Stage1Growth > mkt.MaxGrowthRate {
		a.Stage1Growth = mkt.MaxGrowthRate
	}

	// Margins: revert toward the sector norm, at most 5pp of movement,
	// never below 5%.
	current := snap.EBITDAMargin
	if current == 0 && snap.Revenue > 0 {
		current = snap.EBITDA / snap.Revenue
	}
	a.EBITDAMarginCurrent = current
	target := validate.MeanRevert(current, sector.EBITDAMarginNorm, 0.05)
	a.EBITDAMarginTarget = validate.Clamp(target, 0.05, 0.70)
	if current <= 0 {
		// A negative margin would compound through the stage-1
		// interpolation; start from the target instead.
		a.EBITDAMarginCurrent = a.EBITDAMarginTarget
		a.Warn("EBITDA margin %.1f%% is not positive, projecting from the %.1f%% target",
			current*100, a.EBITDAMarginTarget*100)
	}

	// Beta: clamp extremes, then blend with the industry beta since a
	// reading outside the band is usually noise.
	beta := snap.Beta
	if beta == 0 {
		beta = sector.IndustryBeta
	}
	if beta < 0.3 || beta > 2.5 {
		clamped := validate.Clamp(beta, 0.3, 2.5)
		blendedBeta := validate.Blend(clamped, sector.IndustryBeta, 0.5)
		a.Warn("beta %.2f outside [0.3, 2.5], blended with industry beta %.2f -> %.2f",
			beta, sector.IndustryBeta, blendedBeta)
		beta = blendedBeta
	}
	a.Beta = beta

	// CapEx: observed intensity with a floor. Accelerating programs get a
	// higher floor since announced buildouts rarely reverse within the
	// explicit horizon.
	floor := sector.CapexFloor
	if floor < 0.04 {
		floor = 0.04
	}
	if snap.CapexAccelerating {
		floor = 0.06
	}
	capex := snap.CapexToRevenue
	if capex < floor {
		capex = floor
	}
	a.CapexPct = capex

	// Cost of debt from implied interest coverage.
	if snap.TotalDebt > 0 {
		implied := snap.EBIT * 0.02 / snap.TotalDebt
		a.CostOfDebt = validate.Clamp(implied, 0.03, 0.10)
	} else {
		a.CostOfDebt = 0.04
	}

	// Terminal growth keyed to moat durability, hard-capped.
	tg := g.cfg.TerminalGrowthForMoat(string(snap.EconomicMoat))
	a.TerminalGrowth = validate.Clamp(tg, 0, mkt.TerminalGrowthCeiling)

	// Stage 2 glides from stage-1 growth down to just above terminal.
	a.Stage2EndingGrowth = a.TerminalGrowth + 0.01
	if alt := a.Stage1Growth * 0.4; alt > a.Stage2EndingGrowth {
		a.Stage2EndingGrowth = alt
	}

	// Exit multiple defaults to the sector midpoint.
	a.ExitMultiple = (sector.ExitMultipleLow + sector.ExitMultipleHigh) / 2

	// Capital allocation drift.
	if snap.ShareRepurchases > 0 && snap.MarketCapValue() > 0 {
		a.BuybackRate = validate.Clamp(snap.ShareRepurchases/snap.MarketCapValue(), 0, 0.10)
	}
	if snap.TotalDebt > 0 && snap.FreeCashFlow > 0 {
		// Assume a quarter of FCF services debt, as a fraction of the stack.
		a.DebtPaydownRate = validate.Clamp(snap.FreeCashFlow*0.25/snap.TotalDebt, 0, 0.20)
	}

	ov.apply(&a)

	// Constraints that hold even over overrides.
	if a.TerminalGrowth > mkt.TerminalGrowthCeiling {
		a.Warn("terminal growth %.1f%% capped at ceiling %.1f%%",
			a.TerminalGrowth*100, mkt.TerminalGrowthCeiling*100)
		a.TerminalGrowth = mkt.TerminalGrowthCeiling
	}
	if a.ExitMultiple < mkt.ExitMultipleMin || a.ExitMultiple > mkt.ExitMultipleMax {
		clamped := validate.Clamp(a.ExitMultiple, mkt.ExitMultipleMin, mkt.ExitMultipleMax)
		a.Warn("exit multiple %.1fx clamped to %.1fx", a.ExitMultiple, clamped)
		a.ExitMultiple = clamped
	}
	if a.Stage1Years <= 0 || a.Stage2Years <= 0 {
		return AssumptionSet{}, models.NewInvalidInput("projection horizon must be positive, got %d+%d",
			a.Stage1Years, a.Stage2Years)
	}
	return a, nil
}
