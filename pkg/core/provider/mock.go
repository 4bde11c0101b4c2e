package provider

import (
	"context"
	"strings"
	"time"

	"dcf_valuation/pkg/models"
)

// MockProvider serves canned fundamentals for a handful of mega caps.
// Unknown tickers fall back to the AAPL profile so the whole pipeline stays
// exercisable without network access.
type MockProvider struct{}

func NewMockProvider() *MockProvider { return &MockProvider{} }

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Fetch(_ context.Context, ticker string) (*models.FundamentalsSnapshot, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, models.NewInvalidInput("ticker is required")
	}

	snap, ok := mockSnapshots[ticker]
	if !ok {
		snap = mockSnapshots["AAPL"]
	}
	out := snap // copy, callers own the result
	out.Ticker = ticker
	out.DataSource = "mock"
	out.FetchedAt = time.Now().UTC()
	return &out, nil
}

var mockSnapshots = map[string]models.FundamentalsSnapshot{
	"AAPL": {
		CompanyName:       "Apple Inc.",
		Sector:            "Technology",
		CurrentPrice:      180.0,
		SharesOutstanding: 15.5e9,
		MarketCap:         2.8e12,

		Revenue:         383e9,
		GrossProfit:     170e9,
		OperatingIncome: 114e9,
		EBIT:            114e9,
		EBITDA:          125e9,
		NetIncome:       97e9,

		OperatingCashFlow:        110e9,
		CapEx:                    11e9,
		FreeCashFlow:             99e9,
		DepreciationAmortization: 11e9,

		Cash:      50e9,
		TotalDebt: 100e9,
		Equity:    65e9,

		RevenueCAGR3Y:  0.08,
		EarningsCAGR3Y: 0.12,
		FCFCAGR3Y:      0.09,

		GrossMargin:     170.0 / 383.0,
		OperatingMargin: 114.0 / 383.0,
		EBITDAMargin:    125.0 / 383.0,
		NetMargin:       97.0 / 383.0,
		FCFMargin:       99.0 / 383.0,

		ROIC: 0.30,
		Beta: 1.2,

		ShareRepurchases: 77e9,

		AnalystCount:           35,
		AnalystAvgTarget:       200.0,
		AnalystRevenueGrowth3Y: 0.10,

		EconomicMoat:   models.MoatWide,
		MoatScore:      85,
		CapexToRevenue: 11.0 / 383.0,

		Segments: []models.Segment{
			{Name: "iPhone", Revenue: 200e9, OperatingIncome: 70e9, Margin: 0.35},
			{Name: "Mac", Revenue: 29e9, OperatingIncome: 8e9, Margin: 0.28},
			{Name: "iPad", Revenue: 28e9, OperatingIncome: 8e9, Margin: 0.28},
			{Name: "Wearables, Home and Accessories", Revenue: 40e9, OperatingIncome: 12e9, Margin: 0.30},
			{Name: "Services", Revenue: 86e9, OperatingIncome: 60e9, Margin: 0.70},
		},
	},
	"MSFT": {
		CompanyName:       "Microsoft Corporation",
		Sector:            "Technology",
		CurrentPrice:      380.0,
		SharesOutstanding: 7.5e9,
		MarketCap:         2.85e12,

		Revenue:         211e9,
		GrossProfit:     146e9,
		OperatingIncome: 88e9,
		EBIT:            88e9,
		EBITDA:          102e9,
		NetIncome:       72e9,

		OperatingCashFlow:        87e9,
		CapEx:                    28e9,
		FreeCashFlow:             59e9,
		DepreciationAmortization: 14e9,

		Cash:      80e9,
		TotalDebt: 75e9,
		Equity:    238e9,

		RevenueCAGR3Y:  0.12,
		EarningsCAGR3Y: 0.14,
		FCFCAGR3Y:      0.10,

		GrossMargin:     146.0 / 211.0,
		OperatingMargin: 88.0 / 211.0,
		EBITDAMargin:    102.0 / 211.0,
		NetMargin:       72.0 / 211.0,
		FCFMargin:       59.0 / 211.0,

		ROIC: 0.28,
		Beta: 0.9,

		ShareRepurchases: 20e9,

		AnalystCount:           40,
		AnalystAvgTarget:       420.0,
		AnalystRevenueGrowth3Y: 0.13,

		EconomicMoat:      models.MoatWide,
		MoatScore:         88,
		CapexAccelerating: true,
		CapexToRevenue:    28.0 / 211.0,

		Segments: []models.Segment{
			{Name: "Productivity and Business Processes", Revenue: 69e9, OperatingIncome: 35e9, Margin: 0.51},
			{Name: "Intelligent Cloud", Revenue: 88e9, OperatingIncome: 38e9, Margin: 0.43},
			{Name: "More Personal Computing", Revenue: 54e9, OperatingIncome: 17e9, Margin: 0.31},
		},
	},
}
