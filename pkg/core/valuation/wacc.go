// Package valuation prices a projected cash flow stream: cost of capital,
// terminal value, enterprise-to-equity bridge, and the alternative H-Model
// and sum-of-the-parts approaches.
package valuation

import (
	"dcf_valuation/pkg/core/assumption"
	"dcf_valuation/pkg/core/config"
	"dcf_valuation/pkg/core/validate"
)

// WACCResult breaks the discount rate into its components for reporting.
type WACCResult struct {
	WACC         float64 `json:"wacc"`
	CostOfEquity float64 `json:"cost_of_equity"`
	CostOfDebt   float64 `json:"cost_of_debt"`
	EquityWeight float64 `json:"equity_weight"`
	DebtWeight   float64 `json:"debt_weight"`
	Clamped      bool    `json:"clamped"`
}

// ComputeWACC calculates the weighted average cost of capital using market
// value weights. Cost of equity follows CAPM. The result is clamped to the
// configured band; a clamp is flagged and warned on the assumption set.
//
// With no debt and no equity value the cost of equity stands in for the
// blended rate, subject to the same band.
func ComputeWACC(a *assumption.AssumptionSet, marketValueEquity, marketValueDebt float64, mkt config.MarketConfig) WACCResult {
	costOfEquity := a.RiskFreeRate + a.Beta*a.MarketRiskPremium

	res := WACCResult{
		CostOfEquity: costOfEquity,
		CostOfDebt:   a.CostOfDebt,
	}
	if total := marketValueEquity + marketValueDebt; total > 0 {
		res.EquityWeight = marketValueEquity / total
		res.DebtWeight = marketValueDebt / total
		res.WACC = res.EquityWeight*costOfEquity + res.DebtWeight*a.CostOfDebt*(1-a.TaxRate)
	} else {
		res.EquityWeight = 1
		res.WACC = costOfEquity
	}

	// The band applies on every path, the all-equity fallback included.
	if res.WACC < mkt.MinWACC || res.WACC > mkt.MaxWACC {
		raw := res.WACC
		res.WACC = validate.Clamp(raw, mkt.MinWACC, mkt.MaxWACC)
		res.Clamped = true
		a.Warn("WACC %.2f%% outside [%.0f%%, %.0f%%], clamped to %.2f%%",
			raw*100, mkt.MinWACC*100, mkt.MaxWACC*100, res.WACC*100)
	}
	return res
}
