// Package models holds the canonical data records exchanged between the
// snapshot providers and the valuation core.
package models

import (
	"fmt"
	"time"
)

// MoatRating classifies the durability of a company's competitive advantage.
type MoatRating string

const (
	MoatWide   MoatRating = "wide"
	MoatNarrow MoatRating = "narrow"
	MoatNone   MoatRating = "none"
)

// Segment is one reportable business segment, used by the SOTP strategy.
type Segment struct {
	Name            string  `json:"segment_name"`
	Revenue         float64 `json:"revenue"`
	OperatingIncome float64 `json:"operating_income"`
	Margin          float64 `json:"margin"`
}

// FundamentalsSnapshot is a point-in-time financial profile of a company.
// It is built once per valuation request by a SnapshotProvider and treated
// as immutable input by the core: adjustments live in the AssumptionSet,
// never here.
type FundamentalsSnapshot struct {
	// Identifiers
	Ticker      string `json:"ticker"`
	CompanyName string `json:"company_name"`
	Sector      string `json:"sector"`
	Industry    string `json:"industry"`

	// Market data
	CurrentPrice      float64 `json:"current_price"`
	SharesOutstanding float64 `json:"shares_outstanding"`
	MarketCap         float64 `json:"market_cap"`

	// Income statement (latest fiscal year / TTM)
	Revenue         float64 `json:"revenue"`
	GrossProfit     float64 `json:"gross_profit"`
	OperatingIncome float64 `json:"operating_income"`
	EBIT            float64 `json:"ebit"`
	EBITDA          float64 `json:"ebitda"`
	NetIncome       float64 `json:"net_income"`

	// Cash flow
	OperatingCashFlow        float64 `json:"operating_cash_flow"`
	CapEx                    float64 `json:"capex"`
	FreeCashFlow             float64 `json:"free_cash_flow"`
	DepreciationAmortization float64 `json:"depreciation_amortization"`

	// Balance sheet
	Cash                 float64 `json:"cash"`
	ShortTermInvestments float64 `json:"short_term_investments"`
	TotalDebt            float64 `json:"total_debt"`
	Equity               float64 `json:"equity"`
	WorkingCapital       float64 `json:"working_capital"`

	// Historical growth (CAGR, clamped to [-50%, +50%] by the provider)
	RevenueCAGR3Y  float64 `json:"revenue_cagr_3y"`
	RevenueCAGR5Y  float64 `json:"revenue_cagr_5y"`
	EarningsCAGR3Y float64 `json:"earnings_cagr_3y"`
	FCFCAGR3Y      float64 `json:"fcf_cagr_3y"`

	// Margins (ratios, may exceed [0,1] for anomalous filings)
	GrossMargin     float64 `json:"gross_margin"`
	OperatingMargin float64 `json:"operating_margin"`
	EBITDAMargin    float64 `json:"ebitda_margin"`
	NetMargin       float64 `json:"net_margin"`
	FCFMargin       float64 `json:"fcf_margin"`

	// Efficiency / risk
	ROIC float64 `json:"roic"`
	Beta float64 `json:"beta"`

	// Capital allocation
	DividendsPaid    float64 `json:"dividends_paid"`
	ShareRepurchases float64 `json:"share_repurchases"`

	// Analyst consensus
	AnalystCount           int     `json:"analyst_count"`
	AnalystAvgTarget       float64 `json:"analyst_avg_target"`
	AnalystRevenueGrowth3Y float64 `json:"analyst_revenue_growth_3y"`

	// Moat assessment
	EconomicMoat MoatRating `json:"economic_moat"`
	MoatScore    int        `json:"moat_strength_score"`
	MoatFactors  []string   `json:"moat_factors,omitempty"`

	// CapEx trend
	CapexAccelerating bool    `json:"capex_accelerating"`
	CapexToRevenue    float64 `json:"capex_to_revenue_ratio"`

	// Segment detail (optional, enables SOTP)
	Segments []Segment `json:"revenue_by_segment,omitempty"`

	// Metadata
	DataSource string    `json:"data_source"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// MarketCapValue returns the reported market cap, falling back to
// price x shares when the provider did not supply one.
func (s *FundamentalsSnapshot) MarketCapValue() float64 {
	if s.MarketCap > 0 {
		return s.MarketCap
	}
	return s.CurrentPrice * s.SharesOutstanding
}

// NetDebt is total debt less cash.
func (s *FundamentalsSnapshot) NetDebt() float64 {
	return s.TotalDebt - s.Cash
}

// Validate enforces the hard preconditions of the valuation core.
// Violations are InvalidInput: the request aborts, nothing is substituted.
func (s *FundamentalsSnapshot) Validate() error {
	if s.Ticker == "" {
		return NewInvalidInput("ticker is required")
	}
	if s.SharesOutstanding <= 0 {
		return NewInvalidInput("shares outstanding must be > 0, got %v", s.SharesOutstanding)
	}
	if s.Revenue <= 0 {
		return NewInvalidInput("revenue must be > 0, got %v", s.Revenue)
	}
	if s.CurrentPrice < 0 {
		return NewInvalidInput("current price cannot be negative, got %v", s.CurrentPrice)
	}
	return nil
}

// String is a compact log form.
func (s *FundamentalsSnapshot) String() string {
	return fmt.Sprintf("%s rev=%.1fB fcf=%.1fB shares=%.2fB", s.Ticker,
		s.Revenue/1e9, s.FreeCashFlow/1e9, s.SharesOutstanding/1e9)
}
