package valuation

import (
	"math"
	"time"

	"github.com/google/uuid"

	"dcf_valuation/pkg/core/assumption"
	"dcf_valuation/pkg/core/config"
	"dcf_valuation/pkg/core/validate"
	"dcf_valuation/pkg/models"
)

// HModelResult is the output of the two-component H-Model valuation.
type HModelResult struct {
	RunID  string `json:"run_id"`
	Ticker string `json:"ticker"`
	Model  string `json:"model"`

	FairValuePerShare float64 `json:"price_per_share"`
	CurrentPrice      float64 `json:"current_price"`
	UpsidePercent     float64 `json:"upside_downside"`

	EnterpriseValue float64 `json:"enterprise_value"`
	EquityValue     float64 `json:"equity_value"`
	NetDebt         float64 `json:"net_debt"`

	WACC             WACCResult `json:"wacc"`
	GrowthHigh       float64    `json:"g_high"`
	GrowthLow        float64    `json:"g_low"`
	HalfLife         float64    `json:"h"`
	PVTerminal       float64    `json:"pv_terminal"`
	PVExcessGrowth   float64    `json:"pv_excess_growth"`
	AdjustedShares   float64    `json:"shares_outstanding_adjusted"`
	Warnings         []string   `json:"warnings,omitempty"`
	CalculatedAt     time.Time  `json:"calculation_date"`
}

// HalfLifeForMarketCap returns H, the number of years for excess growth to
// halve. Larger companies fade faster toward maturity.
func HalfLifeForMarketCap(marketCap float64) float64 {
	switch {
	case marketCap > 1e12:
		return 6
	case marketCap > 1e11:
		return 8
	default:
		return 10
	}
}

// ComputeHModel values the company as a terminal perpetuity plus a linearly
// fading excess-growth component:
//
//	EV = FCF*(1+gL)/(r-gL) + FCF*H*(gH-gL)/(r-gL)
//
// The high rate is the blended CAGR capped at 20%; the low rate is the
// terminal growth from the assumption set. Shares are reduced by the
// buyback rate over the 2H-year fade before the per-share divide.
func ComputeHModel(snap *models.FundamentalsSnapshot, a assumption.AssumptionSet, mkt config.MarketConfig) (*HModelResult, error) {
	if snap.FreeCashFlow <= 0 {
		return nil, models.NewInvalidInput("H-Model requires positive current FCF, got $%.0fM",
			snap.FreeCashFlow/1e6)
	}

	w := ComputeWACC(&a, snap.MarketCapValue(), snap.TotalDebt, mkt)

	gHigh := snap.RevenueCAGR3Y
	if snap.FCFCAGR3Y > gHigh {
		gHigh = snap.FCFCAGR3Y
	}
	gHigh = validate.Clamp(gHigh, 0, 0.20)
	gLow := a.TerminalGrowth
	if gLow >= w.WACC {
		a.Warn("terminal growth %.2f%% >= WACC %.2f%%, corrected to %.2f%%",
			gLow*100, w.WACC*100, w.WACC*50)
		gLow = w.WACC * 0.5
	}
	h := HalfLifeForMarketCap(snap.MarketCapValue())

	fcf := snap.FreeCashFlow
	pvTerminal := fcf * (1 + gLow) / (w.WACC - gLow)
	pvExcess := fcf * h * (gHigh - gLow) / (w.WACC - gLow)
	ev := pvTerminal + pvExcess

	// Buybacks shrink the share count over the fade period.
	years := 2 * h
	shares := snap.SharesOutstanding * math.Pow(1-a.BuybackRate, years)
	if shares <= 0 {
		return nil, models.NewInvalidInput("adjusted share count %.0f must be positive", shares)
	}

	netDebt := snap.NetDebt()
	equity := ev - netDebt
	fairValue := equity / shares

	upside := 0.0
	if snap.CurrentPrice > 0 {
		upside = (fairValue - snap.CurrentPrice) / snap.CurrentPrice * 100
	}

	return &HModelResult{
		RunID:             uuid.NewString(),
		Ticker:            snap.Ticker,
		Model:             "hmodel",
		FairValuePerShare: fairValue,
		CurrentPrice:      snap.CurrentPrice,
		UpsidePercent:     upside,
		EnterpriseValue:   ev,
		EquityValue:       equity,
		NetDebt:           netDebt,
		WACC:              w,
		GrowthHigh:        gHigh,
		GrowthLow:         gLow,
		HalfLife:          h,
		PVTerminal:        pvTerminal,
		PVExcessGrowth:    pvExcess,
		AdjustedShares:    shares,
		Warnings:          a.Warnings,
		CalculatedAt:      time.Now().UTC(),
	}, nil
}
