package scenario

import (
	"context"
	"math"
	"testing"

	"dcf_valuation/pkg/core/assumption"
	"dcf_valuation/pkg/core/pipeline"
	"dcf_valuation/pkg/core/provider"
	"dcf_valuation/pkg/models"
)

func fetchAAPL(t *testing.T) *models.FundamentalsSnapshot {
	t.Helper()
	snap, err := provider.NewMockProvider().Fetch(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("mock fetch: %v", err)
	}
	return snap
}

func TestAdjustBull(t *testing.T) {
	base := assumption.AssumptionSet{
		Stage1Growth:       0.10,
		EBITDAMarginTarget: 0.30,
		RiskFreeRate:       0.045,
		ExitMultiple:       15,
	}
	bull := Adjust(base, Bull, 0.50)
	if math.Abs(bull.Stage1Growth-0.13) > 1e-9 {
		t.Errorf("bull growth = %v, want 0.13", bull.Stage1Growth)
	}
	if math.Abs(bull.EBITDAMarginTarget-0.32) > 1e-9 {
		t.Errorf("bull margin = %v, want 0.32", bull.EBITDAMarginTarget)
	}
	if math.Abs(bull.RiskFreeRate-0.035) > 1e-9 {
		t.Errorf("bull risk-free = %v, want 0.035", bull.RiskFreeRate)
	}
	if math.Abs(bull.ExitMultiple-18) > 1e-9 {
		t.Errorf("bull exit multiple = %v, want 18", bull.ExitMultiple)
	}
	// The base copy is untouched.
	if base.Stage1Growth != 0.10 {
		t.Error("Adjust mutated the base assumptions")
	}
}

func TestAdjustBearFloors(t *testing.T) {
	base := assumption.AssumptionSet{
		Stage1Growth:       -0.10,
		EBITDAMarginTarget: 0.06,
		RiskFreeRate:       0.045,
		ExitMultiple:       10,
	}
	bear := Adjust(base, Bear, 0.50)
	if math.Abs(bear.Stage1Growth-(-0.05)) > 1e-9 {
		t.Errorf("bear growth = %v, want floor -0.05", bear.Stage1Growth)
	}
	if math.Abs(bear.EBITDAMarginTarget-0.05) > 1e-9 {
		t.Errorf("bear margin = %v, want floor 0.05", bear.EBITDAMarginTarget)
	}
}

func TestRunOrdersScenarios(t *testing.T) {
	engine := pipeline.NewEngine(nil)
	snap := fetchAAPL(t)

	bundle, err := Run(engine, snap, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(bundle.Cases) != 3 {
		t.Fatalf("cases = %d, want 3", len(bundle.Cases))
	}

	byName := map[Name]*Case{}
	for i := range bundle.Cases {
		c := &bundle.Cases[i]
		if c.Result == nil {
			t.Fatalf("scenario %s failed: %s", c.Name, c.Err)
		}
		byName[c.Name] = c
	}
	bull := byName[Bull].Result.FairValuePerShare
	base := byName[Base].Result.FairValuePerShare
	bear := byName[Bear].Result.FairValuePerShare
	if !(bull >= base && base >= bear) {
		t.Errorf("expected bull >= base >= bear, got %v / %v / %v", bull, base, bear)
	}

	want := 0.5*base + 0.25*bull + 0.25*bear
	if math.Abs(bundle.WeightedFairValue-want) > 1e-6 {
		t.Errorf("weighted fair value = %v, want %v", bundle.WeightedFairValue, want)
	}
}

func TestRunSummary(t *testing.T) {
	engine := pipeline.NewEngine(nil)
	snap := fetchAAPL(t)

	bundle, err := Run(engine, snap, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if bundle.Range.Low > bundle.Range.Base || bundle.Range.Base > bundle.Range.High {
		t.Errorf("range not ordered: low %v base %v high %v",
			bundle.Range.Low, bundle.Range.Base, bundle.Range.High)
	}
	avg := (bundle.Range.High + bundle.Range.Low) / 2
	wantConf := math.Max(0.5, 1-(bundle.Range.High-bundle.Range.Low)/avg/2)
	if math.Abs(bundle.Confidence-wantConf) > 1e-9 {
		t.Errorf("confidence = %v, want %v", bundle.Confidence, wantConf)
	}
	if bundle.Confidence < 0.5 || bundle.Confidence > 1 {
		t.Errorf("confidence %v outside [0.5, 1]", bundle.Confidence)
	}
	if len(bundle.KeyDrivers) != 3 || len(bundle.KeyRisks) != 3 {
		t.Fatalf("drivers/risks = %d/%d, want 3/3", len(bundle.KeyDrivers), len(bundle.KeyRisks))
	}
	if bundle.KeyDrivers[0] == "Revenue growth" {
		t.Error("expected a quantified revenue growth driver for a priced snapshot")
	}
}

func TestSensitivityGrowthMonotonic(t *testing.T) {
	engine := pipeline.NewEngine(nil)
	snap := fetchAAPL(t)

	sens, err := Analyze(engine, snap, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(sens.OneWay) != 4 {
		t.Fatalf("one-way sweeps = %d, want 4", len(sens.OneWay))
	}

	var growth *OneWayResult
	for i := range sens.OneWay {
		if sens.OneWay[i].Axis == AxisGrowth {
			growth = &sens.OneWay[i]
		}
	}
	if growth == nil {
		t.Fatal("growth sweep missing")
	}
	if len(growth.Points) != 5 {
		t.Fatalf("growth points = %d, want 5", len(growth.Points))
	}
	for i := 1; i < len(growth.Points); i++ {
		prev, cur := growth.Points[i-1], growth.Points[i]
		if prev.Err != "" || cur.Err != "" {
			t.Fatalf("growth cell error: %s %s", prev.Err, cur.Err)
		}
		if cur.FairValue < prev.FairValue {
			t.Errorf("fair value fell from %v to %v as growth rose", prev.FairValue, cur.FairValue)
		}
	}

	// The center cell of every sweep reproduces the base fair value.
	for _, sweep := range sens.OneWay {
		center := sweep.Points[len(sweep.Points)/2]
		if math.Abs(center.FairValue-sens.BaseFairValue) > 1e-6 {
			t.Errorf("%s center = %v, want base %v", sweep.Axis, center.FairValue, sens.BaseFairValue)
		}
	}
}

func TestSensitivityTwoWayGrid(t *testing.T) {
	engine := pipeline.NewEngine(nil)
	snap := fetchAAPL(t)

	sens, err := Analyze(engine, snap, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(sens.TwoWay) != 9 {
		t.Fatalf("grid cells = %d, want 9", len(sens.TwoWay))
	}
	var worst, best *GridCell
	for i := range sens.TwoWay {
		c := &sens.TwoWay[i]
		if c.Err != "" {
			t.Fatalf("grid cell error: %s", c.Err)
		}
		if c.GrowthDelta == -0.03 && c.MarginDelta == -0.02 {
			worst = c
		}
		if c.GrowthDelta == 0.03 && c.MarginDelta == 0.02 {
			best = c
		}
	}
	if worst == nil || best == nil {
		t.Fatal("corner cells missing")
	}
	if worst.FairValue >= best.FairValue {
		t.Errorf("worst corner %v should price below best corner %v", worst.FairValue, best.FairValue)
	}
}

func TestRunProbabilitiesSumToOne(t *testing.T) {
	engine := pipeline.NewEngine(nil)
	snap := fetchAAPL(t)

	bundle, err := Run(engine, snap, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	total := 0.0
	for _, c := range bundle.Cases {
		total += c.Probability
	}
	if math.Abs(total-1) > 1e-12 {
		t.Errorf("probabilities sum to %v, want 1", total)
	}
}
