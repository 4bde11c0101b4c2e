package valuation

import (
	"math"
	"time"

	"github.com/google/uuid"

	"dcf_valuation/pkg/core/assumption"
	"dcf_valuation/pkg/core/config"
	"dcf_valuation/pkg/core/projection"
	"dcf_valuation/pkg/models"
)

// Result is the output of a single valuation model run.
type Result struct {
	RunID  string `json:"run_id"`
	Ticker string `json:"ticker"`
	Model  string `json:"model"`

	FairValuePerShare float64 `json:"price_per_share"`
	CurrentPrice      float64 `json:"current_price"`
	UpsidePercent     float64 `json:"upside_downside"`

	EnterpriseValue float64 `json:"enterprise_value"`
	EquityValue     float64 `json:"equity_value"`
	NetDebt         float64 `json:"net_debt"`

	WACC                 WACCResult    `json:"wacc"`
	TerminalValue        TerminalValue `json:"terminal_value"`
	PVTerminalValue      float64       `json:"pv_terminal_value"`
	TerminalValuePercent float64       `json:"terminal_value_percent"`
	SumPVExplicit        float64       `json:"sum_pv_fcf"`

	Projections  []projection.Year `json:"projections,omitempty"`
	TerminalYear projection.Year   `json:"terminal_year"`

	Assumptions assumption.AssumptionSet `json:"assumptions"`
	Warnings    []string                 `json:"warnings,omitempty"`

	CalculatedAt time.Time `json:"calculation_date"`
}

// Assemble projects the staged forecast, discounts it, resolves the terminal
// value, and walks from enterprise value down to a per-share fair value.
//
// WACC and the terminal growth correction run before the projection so the
// terminal year compounds at the same rate the Gordon denominator uses.
//
// Two guardrails apply after the EV build. A terminal value above the
// dominance limit means the explicit forecast hardly matters, so the TV is
// haircut and the EV rebuilt. An implied market cap above the ceiling is
// scaled back proportionally; no company has ever sustained one.
func Assemble(snap *models.FundamentalsSnapshot, a assumption.AssumptionSet, model string, mkt config.MarketConfig) (*Result, error) {
	w := ComputeWACC(&a, snap.MarketCapValue(), snap.TotalDebt, mkt)
	a.EnforceTerminalConstraint(w.WACC)
	proj := projection.Project(snap, &a)

	// Discount the explicit years.
	sumPV := 0.0
	for i := range proj.Years {
		yr := &proj.Years[i]
		yr.DiscountFactor = math.Pow(1+w.WACC, float64(yr.Year))
		yr.PresentValue = yr.FreeCashFlow / yr.DiscountFactor
		sumPV += yr.PresentValue
	}

	tv, err := ResolveTerminalValue(proj.Terminal, &a, w.WACC, mkt)
	if err != nil {
		return nil, err
	}
	horizon := float64(len(proj.Years))
	pvTV := tv.Value / math.Pow(1+w.WACC, horizon)
	ev := sumPV + pvTV

	if ev > 0 {
		share := pvTV / ev
		switch {
		case share > mkt.TVDominanceLimit:
			a.Warn("terminal value is %.0f%% of EV, haircut %.0f%% applied",
				share*100, mkt.TVHaircut*100)
			tv.Value *= 1 - mkt.TVHaircut
			pvTV = tv.Value / math.Pow(1+w.WACC, horizon)
			ev = sumPV + pvTV
		case share > mkt.TVDominanceWarn:
			a.Warn("terminal value is %.0f%% of EV, explicit forecast carries little weight", share*100)
		}
	}

	// The bridge nets the ending projected debt, not today's, so the
	// debt-paydown drift carries into equity value.
	endingDebt := snap.TotalDebt
	if n := len(proj.Years); n > 0 {
		endingDebt = proj.Years[n-1].TotalDebt
	}
	netDebt := endingDebt - snap.Cash
	equity := ev - netDebt

	endingShares := snap.SharesOutstanding
	if n := len(proj.Years); n > 0 && proj.Years[n-1].SharesOutstanding > 0 {
		endingShares = proj.Years[n-1].SharesOutstanding
	}
	if endingShares <= 0 {
		return nil, models.NewInvalidInput("ending share count %.0f must be positive", endingShares)
	}

	fairValue := equity / endingShares
	if implied := fairValue * endingShares; implied > mkt.ImpliedMarketCapCeiling {
		scale := mkt.ImpliedMarketCapCeiling / implied
		a.Warn("implied market cap $%.1fT exceeds $%.0fT ceiling, fair value scaled by %.2f",
			implied/1e12, mkt.ImpliedMarketCapCeiling/1e12, scale)
		fairValue *= scale
		equity = fairValue * endingShares
	}

	upside := 0.0
	if snap.CurrentPrice > 0 {
		upside = (fairValue - snap.CurrentPrice) / snap.CurrentPrice * 100
	}

	tvPct := 0.0
	if ev > 0 {
		tvPct = pvTV / ev
	}

	return &Result{
		RunID:                uuid.NewString(),
		Ticker:               snap.Ticker,
		Model:                model,
		FairValuePerShare:    fairValue,
		CurrentPrice:         snap.CurrentPrice,
		UpsidePercent:        upside,
		EnterpriseValue:      ev,
		EquityValue:          equity,
		NetDebt:              netDebt,
		WACC:                 w,
		TerminalValue:        tv,
		PVTerminalValue:      pvTV,
		TerminalValuePercent: tvPct,
		SumPVExplicit:        sumPV,
		Projections:          proj.Years,
		TerminalYear:         proj.Terminal,
		Assumptions:          a,
		Warnings:             a.Warnings,
		CalculatedAt:         time.Now().UTC(),
	}, nil
}
