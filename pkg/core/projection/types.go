// Package projection turns an assumption set into an explicit multi-year
// free cash flow forecast. The engine is pure: same snapshot and assumptions
// in, same years out.
package projection

// Stage labels a projection year.
type Stage string

const (
	StageHighGrowth Stage = "high_growth"
	StageTransition Stage = "transition"
	StageTerminal   Stage = "terminal"
)

// Year is one fully articulated projection year.
type Year struct {
	Year  int   `json:"year"`
	Stage Stage `json:"stage"`

	GrowthRate   float64 `json:"growth_rate"`
	Revenue      float64 `json:"revenue"`
	EBITDAMargin float64 `json:"ebitda_margin"`
	EBITDA       float64 `json:"ebitda"`
	Depreciation float64 `json:"depreciation"`
	EBIT         float64 `json:"ebit"`
	NOPAT        float64 `json:"nopat"`
	CapEx        float64 `json:"capex"`
	NWCChange    float64 `json:"nwc_change"`
	FreeCashFlow float64 `json:"free_cash_flow"`

	// Filled in by the valuation layer.
	DiscountFactor float64 `json:"discount_factor"`
	PresentValue   float64 `json:"present_value"`

	// Capital structure drift.
	SharesOutstanding float64 `json:"shares_outstanding"`
	TotalDebt         float64 `json:"total_debt"`
}
