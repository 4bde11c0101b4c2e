package valuation

import (
	"math"
	"strings"
	"testing"

	"dcf_valuation/pkg/core/assumption"
	"dcf_valuation/pkg/core/config"
	"dcf_valuation/pkg/core/projection"
	"dcf_valuation/pkg/models"
)

func approx(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func testAssumptions() assumption.AssumptionSet {
	return assumption.AssumptionSet{
		Stage1Growth:        0.09,
		Stage1Years:         5,
		Stage2EndingGrowth:  0.045,
		Stage2Years:         5,
		TerminalGrowth:      0.035,
		TerminalMethod:      assumption.TerminalPerpetuity,
		ExitMultiple:        15,
		EBITDAMarginCurrent: 0.32,
		EBITDAMarginTarget:  0.32,
		TaxRate:             0.21,
		CapexPct:            0.04,
		DAPct:               0.03,
		NWCPct:              0.02,
		RiskFreeRate:        0.045,
		MarketRiskPremium:   0.065,
		Beta:                1.2,
		CostOfDebt:          0.05,
		HighGrowthThreshold: 0.25,
		GrowthDecayFactor:   0.92,
	}
}

func testSnapshot() *models.FundamentalsSnapshot {
	return &models.FundamentalsSnapshot{
		Ticker:            "AAPL",
		Sector:            "Technology",
		CurrentPrice:      180,
		SharesOutstanding: 15.5e9,
		Revenue:           383e9,
		EBITDA:            130e9,
		OperatingIncome:   114e9,
		OperatingMargin:   0.30,
		FreeCashFlow:      99e9,
		Cash:              50e9,
		TotalDebt:         100e9,
		RevenueCAGR3Y:     0.08,
		FCFCAGR3Y:         0.09,
		Beta:              1.2,
	}
}

// =============================================================================
// WACC
// =============================================================================

func TestComputeWACCMarketWeights(t *testing.T) {
	a := testAssumptions()
	mkt := config.Default().Market

	// Equity 2790B, debt 100B. CoE = 4.5% + 1.2*6.5% = 12.3%.
	snap := testSnapshot()
	w := ComputeWACC(&a, snap.MarketCapValue(), snap.TotalDebt, mkt)

	approx(t, "cost of equity", w.CostOfEquity, 0.123, 1e-9)
	total := snap.MarketCapValue() + snap.TotalDebt
	want := snap.MarketCapValue()/total*0.123 + snap.TotalDebt/total*0.05*0.79
	approx(t, "wacc", w.WACC, want, 1e-9)
	if w.Clamped {
		t.Error("wacc should not be clamped for normal inputs")
	}
}

func TestComputeWACCAllEquityFallback(t *testing.T) {
	a := testAssumptions()
	w := ComputeWACC(&a, 0, 0, config.Default().Market)
	approx(t, "all-equity wacc", w.WACC, 0.123, 1e-9)
	approx(t, "equity weight", w.EquityWeight, 1, 1e-12)
}

func TestComputeWACCAllEquityClamps(t *testing.T) {
	a := testAssumptions()
	a.Beta = 5 // CoE = 4.5% + 5*6.5% = 37%.
	w := ComputeWACC(&a, 0, 0, config.Default().Market)
	if !w.Clamped {
		t.Fatal("expected a clamp on the all-equity fallback")
	}
	approx(t, "clamped all-equity wacc", w.WACC, 0.25, 1e-12)
	if len(a.Warnings) == 0 {
		t.Error("clamp should add a warning")
	}
}

func TestComputeWACCClamps(t *testing.T) {
	a := testAssumptions()
	a.Beta = 0.01
	a.RiskFreeRate = 0.01
	w := ComputeWACC(&a, 1e12, 0, config.Default().Market)
	if !w.Clamped {
		t.Fatal("expected a clamp for a near-zero discount rate")
	}
	approx(t, "clamped wacc", w.WACC, 0.05, 1e-12)
	if len(a.Warnings) == 0 {
		t.Error("clamp should add a warning")
	}
}

// =============================================================================
// TERMINAL VALUE
// =============================================================================

func terminalYear(fcf, revenue, ebitda float64) projection.Year {
	return projection.Year{
		Year: 11, Stage: projection.StageTerminal,
		FreeCashFlow: fcf, Revenue: revenue, EBITDA: ebitda,
	}
}

func TestResolveTerminalPerpetuity(t *testing.T) {
	a := testAssumptions()
	tv, err := ResolveTerminalValue(terminalYear(10e9, 100e9, 32e9), &a, 0.095, config.Default().Market)
	if err != nil {
		t.Fatalf("ResolveTerminalValue: %v", err)
	}
	approx(t, "perpetuity TV", tv.Value, 10e9/(0.095-0.035), 1e3)
}

func TestResolveTerminalExitMultiple(t *testing.T) {
	a := testAssumptions()
	a.TerminalMethod = assumption.TerminalExitMultiple
	tv, err := ResolveTerminalValue(terminalYear(10e9, 100e9, 32e9), &a, 0.095, config.Default().Market)
	if err != nil {
		t.Fatalf("ResolveTerminalValue: %v", err)
	}
	approx(t, "multiple TV", tv.Value, 32e9*15, 1e3)
}

func TestResolveTerminalBothAverages(t *testing.T) {
	a := testAssumptions()
	a.TerminalMethod = assumption.TerminalBoth
	tv, err := ResolveTerminalValue(terminalYear(10e9, 100e9, 32e9), &a, 0.095, config.Default().Market)
	if err != nil {
		t.Fatalf("ResolveTerminalValue: %v", err)
	}
	want := (10e9/(0.095-0.035) + 32e9*15) / 2
	approx(t, "both TV", tv.Value, want, 1e3)
}

func TestResolveTerminalFloorsNegativeFCF(t *testing.T) {
	a := testAssumptions()
	tv, err := ResolveTerminalValue(terminalYear(-5e9, 100e9, 32e9), &a, 0.095, config.Default().Market)
	if err != nil {
		t.Fatalf("ResolveTerminalValue: %v", err)
	}
	// Floored at 5% of terminal revenue.
	approx(t, "floored terminal FCF", tv.TerminalFCF, 5e9, 1e3)
	if len(a.Warnings) == 0 {
		t.Error("floor should add a warning")
	}
}

func TestResolveTerminalRejectsGrowthAboveWACC(t *testing.T) {
	a := testAssumptions()
	a.TerminalGrowth = 0.10
	_, err := ResolveTerminalValue(terminalYear(10e9, 100e9, 32e9), &a, 0.08, config.Default().Market)
	if err == nil {
		t.Fatal("expected error when terminal growth >= WACC")
	}
}

// =============================================================================
// ASSEMBLY
// =============================================================================

func TestAssembleProducesPlausibleFairValue(t *testing.T) {
	snap := testSnapshot()
	res, err := Assemble(snap, testAssumptions(), "3stage", config.Default().Market)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if res.FairValuePerShare <= 0 {
		t.Fatalf("fair value = %v, want > 0", res.FairValuePerShare)
	}
	if res.EnterpriseValue <= 0 {
		t.Fatalf("EV = %v, want > 0", res.EnterpriseValue)
	}
	approx(t, "net debt", res.NetDebt, 50e9, 1)
	if res.TerminalValuePercent <= 0 || res.TerminalValuePercent >= 1 {
		t.Errorf("TV percent = %v, want in (0, 1)", res.TerminalValuePercent)
	}
	if res.RunID == "" {
		t.Error("run ID missing")
	}
	// Every explicit year must carry its discounting.
	for _, yr := range res.Projections {
		if yr.DiscountFactor <= 1 {
			t.Errorf("year %d discount factor = %v, want > 1", yr.Year, yr.DiscountFactor)
		}
	}
}

func TestAssembleDebtPaydownRaisesFairValue(t *testing.T) {
	snap := testSnapshot()
	base, err := Assemble(snap, testAssumptions(), "3stage", config.Default().Market)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	a := testAssumptions()
	a.DebtPaydownRate = 0.20
	paid, err := Assemble(snap, a, "3stage", config.Default().Market)
	if err != nil {
		t.Fatalf("Assemble with paydown: %v", err)
	}

	// Ten years at 20% paydown leaves about $10.7B of the $100B.
	approx(t, "net debt after paydown", paid.NetDebt, 100e9*math.Pow(0.8, 10)-50e9, 1e6)
	if paid.NetDebt >= base.NetDebt {
		t.Errorf("net debt %v should fall below the no-paydown bridge %v", paid.NetDebt, base.NetDebt)
	}
	if paid.FairValuePerShare <= base.FairValuePerShare {
		t.Errorf("fair value %v should exceed the no-paydown value %v",
			paid.FairValuePerShare, base.FairValuePerShare)
	}
}

func TestAssembleCorrectedTerminalGrowthShapesTerminalYear(t *testing.T) {
	snap := testSnapshot()
	a := testAssumptions()
	a.Beta = 0.3 // Low WACC so the terminal growth override trips the correction.
	a.TerminalGrowth = 0.079

	res, err := Assemble(snap, a, "3stage", config.Default().Market)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if res.Assumptions.TerminalGrowth >= res.WACC.WACC {
		t.Fatalf("terminal growth %v not corrected below WACC %v",
			res.Assumptions.TerminalGrowth, res.WACC.WACC)
	}
	// The terminal year must be compounded at the corrected rate.
	approx(t, "terminal year growth", res.TerminalYear.GrowthRate, res.Assumptions.TerminalGrowth, 1e-12)
	last := res.Projections[len(res.Projections)-1]
	approx(t, "terminal revenue",
		res.TerminalYear.Revenue, last.Revenue*(1+res.Assumptions.TerminalGrowth), 1)
}

func TestAssembleTVDominanceHaircut(t *testing.T) {
	snap := testSnapshot()
	a := testAssumptions()
	// Near-zero explicit FCF with a huge terminal: high capex burns the
	// explicit years, while the exit multiple keeps the terminal rich.
	a.CapexPct = 0.34
	a.TerminalMethod = assumption.TerminalExitMultiple
	a.ExitMultiple = 30

	res, err := Assemble(snap, a, "3stage", config.Default().Market)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "haircut") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a TV dominance haircut warning, got %v (tv%%=%v)",
			res.Warnings, res.TerminalValuePercent)
	}
}

func TestAssembleImpliedMarketCapCeiling(t *testing.T) {
	snap := testSnapshot()
	snap.Revenue = 5e12
	snap.EBITDA = 2e12
	res, err := Assemble(snap, testAssumptions(), "3stage", config.Default().Market)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	implied := res.FairValuePerShare * snap.SharesOutstanding
	if implied > 5e12*1.001 {
		t.Errorf("implied market cap = %v, want capped at $5T", implied)
	}
}

// =============================================================================
// H-MODEL
// =============================================================================

func TestComputeHModel(t *testing.T) {
	snap := testSnapshot()
	a := testAssumptions()
	res, err := ComputeHModel(snap, a, config.Default().Market)
	if err != nil {
		t.Fatalf("ComputeHModel: %v", err)
	}
	// Market cap 2.79T -> H = 6. gHigh = max(8%, 9%) = 9%.
	approx(t, "half-life", res.HalfLife, 6, 1e-12)
	approx(t, "g_high", res.GrowthHigh, 0.09, 1e-12)

	r := res.WACC.WACC
	wantEV := 99e9*(1+0.035)/(r-0.035) + 99e9*6*(0.09-0.035)/(r-0.035)
	approx(t, "enterprise value", res.EnterpriseValue, wantEV, 1e4)
	approx(t, "equity value", res.EquityValue, wantEV-50e9, 1e4)
}

func TestComputeHModelRequiresPositiveFCF(t *testing.T) {
	snap := testSnapshot()
	snap.FreeCashFlow = -1e9
	if _, err := ComputeHModel(snap, testAssumptions(), config.Default().Market); err == nil {
		t.Fatal("expected error for negative FCF")
	}
}

func TestHalfLifeForMarketCap(t *testing.T) {
	cases := []struct {
		mcap float64
		want float64
	}{
		{2e12, 6},
		{5e11, 8},
		{5e10, 10},
	}
	for _, tc := range cases {
		if got := HalfLifeForMarketCap(tc.mcap); got != tc.want {
			t.Errorf("HalfLifeForMarketCap(%.0f) = %v, want %v", tc.mcap, got, tc.want)
		}
	}
}

// =============================================================================
// SOTP
// =============================================================================

func TestComputeSOTPWithSegments(t *testing.T) {
	snap := testSnapshot()
	snap.Segments = []models.Segment{
		{Name: "iPhone", Revenue: 200e9, OperatingIncome: 60e9, Margin: 0.30},
		{Name: "Services", Revenue: 85e9, OperatingIncome: 60e9, Margin: 0.70},
	}
	res, err := ComputeSOTP(snap, config.Default())
	if err != nil {
		t.Fatalf("ComputeSOTP: %v", err)
	}
	if len(res.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(res.Segments))
	}

	iphone := res.Segments[0]
	if iphone.Type != "hardware" {
		t.Errorf("iPhone classified as %s, want hardware", iphone.Type)
	}
	// 200B * 3.5x, then 15% quality + min((0.30-0.20)*0.5, 0.15)=5% margin.
	approx(t, "iPhone base EV", iphone.BaseEV, 700e9, 1e3)
	approx(t, "iPhone adjusted EV", iphone.AdjustedEV, 700e9*1.20, 1e3)

	services := res.Segments[1]
	if services.Type != "services" {
		t.Errorf("Services classified as %s, want services", services.Type)
	}
	// Margin premium capped at 15%: (0.70-0.20)*0.5 = 25% -> 15%.
	approx(t, "services margin premium", services.MarginPremium, 0.15, 1e-12)

	shareSum := res.Segments[0].PercentOfTotal + res.Segments[1].PercentOfTotal
	approx(t, "segment shares sum", shareSum, 1, 1e-9)
}

func TestComputeSOTPFallbackSingleSegment(t *testing.T) {
	snap := testSnapshot()
	res, err := ComputeSOTP(snap, config.Default())
	if err != nil {
		t.Fatalf("ComputeSOTP: %v", err)
	}
	if len(res.Segments) != 1 || res.Segments[0].Name != "Core Business" {
		t.Fatalf("segments = %+v, want single Core Business", res.Segments)
	}
	if len(res.Warnings) == 0 {
		t.Error("expected a no-disclosure warning")
	}
}

func TestClassifySegment(t *testing.T) {
	cases := []struct {
		name, ticker, want string
	}{
		{"iPhone", "AAPL", "hardware"},
		{"Wearables, Home and Accessories", "AAPL", "hardware"},
		{"Services", "AAPL", "services"},
		{"Intelligent Cloud", "MSFT", "cloud"},
		{"Google Search", "GOOGL", "advertising"},
		{"AWS", "AMZN", "cloud"},
		{"Online Stores", "AMZN", "ecommerce"},
		{"Mystery Division", "XYZ", "default"},
	}
	for _, tc := range cases {
		if got := ClassifySegment(tc.name, tc.ticker); got != tc.want {
			t.Errorf("ClassifySegment(%q, %s) = %s, want %s", tc.name, tc.ticker, got, tc.want)
		}
	}
}

// =============================================================================
// SUMMARY
// =============================================================================

func TestRecommendThresholds(t *testing.T) {
	cases := []struct {
		upside float64
		want   Recommendation
	}{
		{25, StrongBuy},
		{15, Buy},
		{0, Hold},
		{-10, Sell},
		{-30, StrongSell},
	}
	for _, tc := range cases {
		if got := Recommend(tc.upside); got != tc.want {
			t.Errorf("Recommend(%v) = %s, want %s", tc.upside, got, tc.want)
		}
	}
}

func TestSummarizeEqualWeights(t *testing.T) {
	snap := testSnapshot()
	snap.AnalystAvgTarget = 210
	snap.AnalystCount = 30

	s, err := Summarize(snap, []ModelEstimate{
		{Model: "3stage", FairValue: 200},
		{Model: "hmodel", FairValue: 190},
		{Model: "sotp", FairValue: 210},
	})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	approx(t, "weighted fair value", s.WeightedFairValue, 200, 1e-9)
	// (200-180)/180 = 11.1% -> BUY.
	if s.Recommendation != Buy {
		t.Errorf("recommendation = %s, want BUY", s.Recommendation)
	}
	if s.AnalystConsensus == nil {
		t.Fatal("analyst consensus missing")
	}
	approx(t, "analyst gap", s.AnalystConsensus.Gap, 10, 1e-9)
}

func TestSummarizeRequiresEstimates(t *testing.T) {
	if _, err := Summarize(testSnapshot(), nil); err == nil {
		t.Fatal("expected error for empty estimate list")
	}
}
