package pipeline

import (
	"context"
	"testing"

	"dcf_valuation/pkg/core/assumption"
	"dcf_valuation/pkg/core/provider"
	"dcf_valuation/pkg/models"
)

func floatPtr(v float64) *float64 { return &v }

func fetch(t *testing.T, ticker string) *models.FundamentalsSnapshot {
	t.Helper()
	snap, err := provider.NewMockProvider().Fetch(context.Background(), ticker)
	if err != nil {
		t.Fatalf("mock fetch: %v", err)
	}
	return snap
}

func TestRunDCFGoldenAAPL(t *testing.T) {
	engine := NewEngine(nil)
	res, err := engine.RunDCF(fetch(t, "AAPL"), nil)
	if err != nil {
		t.Fatalf("RunDCF: %v", err)
	}

	// Plausibility band for a mega-cap quality compounder.
	if res.WACC.WACC < 0.08 || res.WACC.WACC > 0.13 {
		t.Errorf("WACC = %.4f, want within [0.08, 0.13]", res.WACC.WACC)
	}
	if res.FairValuePerShare < 50 || res.FairValuePerShare > 500 {
		t.Errorf("fair value = %.2f, want a plausible per-share figure", res.FairValuePerShare)
	}
	if res.EnterpriseValue <= res.EquityValue {
		t.Errorf("EV %.0f should exceed equity %.0f with positive net debt",
			res.EnterpriseValue, res.EquityValue)
	}
	if len(res.Projections) != 10 {
		t.Errorf("projections = %d years, want 10", len(res.Projections))
	}
	if res.Model != "3stage" {
		t.Errorf("model = %s, want 3stage", res.Model)
	}
}

func TestRunDCFHonorsOverrides(t *testing.T) {
	engine := NewEngine(nil)
	snap := fetch(t, "AAPL")

	base, err := engine.RunDCF(snap, nil)
	if err != nil {
		t.Fatalf("base RunDCF: %v", err)
	}
	bullish, err := engine.RunDCF(snap, &assumption.Overrides{Stage1Growth: floatPtr(0.18)})
	if err != nil {
		t.Fatalf("override RunDCF: %v", err)
	}
	if bullish.FairValuePerShare <= base.FairValuePerShare {
		t.Errorf("higher growth should raise fair value: %v vs %v",
			bullish.FairValuePerShare, base.FairValuePerShare)
	}
}

func TestRunUnifiedAllModels(t *testing.T) {
	engine := NewEngine(nil)
	u, err := engine.RunUnified(fetch(t, "AAPL"), nil)
	if err != nil {
		t.Fatalf("RunUnified: %v", err)
	}
	if u.DCF == nil || u.HModel == nil || u.SOTP == nil {
		t.Fatalf("expected all three models, got dcf=%v hmodel=%v sotp=%v",
			u.DCF != nil, u.HModel != nil, u.SOTP != nil)
	}
	if len(u.Summary.Estimates) != 3 {
		t.Errorf("estimates = %d, want 3", len(u.Summary.Estimates))
	}
	if u.Errors != nil {
		t.Errorf("unexpected model errors: %v", u.Errors)
	}
	want := (u.DCF.FairValuePerShare + u.HModel.FairValuePerShare + u.SOTP.FairValuePerShare) / 3
	if diff := u.Summary.WeightedFairValue - want; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("weighted fair value = %v, want %v", u.Summary.WeightedFairValue, want)
	}
}

func TestRunUnifiedDropsFailingModel(t *testing.T) {
	engine := NewEngine(nil)
	snap := fetch(t, "AAPL")
	snap.FreeCashFlow = -5e9 // H-Model cannot price negative FCF

	u, err := engine.RunUnified(snap, nil)
	if err != nil {
		t.Fatalf("RunUnified: %v", err)
	}
	if u.HModel != nil {
		t.Error("H-Model should have dropped out")
	}
	if _, ok := u.Errors["hmodel"]; !ok {
		t.Errorf("hmodel error missing from %v", u.Errors)
	}
	if len(u.Summary.Estimates) != 2 {
		t.Errorf("estimates = %d, want 2 survivors", len(u.Summary.Estimates))
	}
}

func TestRunSOTPMicrosoftSegments(t *testing.T) {
	engine := NewEngine(nil)
	res, err := engine.RunSOTP(fetch(t, "MSFT"))
	if err != nil {
		t.Fatalf("RunSOTP: %v", err)
	}
	if len(res.Segments) != 3 {
		t.Fatalf("segments = %d, want 3", len(res.Segments))
	}
	for _, seg := range res.Segments {
		if seg.Name == "Intelligent Cloud" && seg.Type != "cloud" {
			t.Errorf("Intelligent Cloud typed as %s", seg.Type)
		}
	}
}
