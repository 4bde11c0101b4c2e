// Package pipeline wires the valuation stages together: assumptions from a
// snapshot, projection, and pricing, for each model and for the unified
// consensus run.
package pipeline

import (
	"dcf_valuation/pkg/core/assumption"
	"dcf_valuation/pkg/core/config"
	"dcf_valuation/pkg/core/logging"
	"dcf_valuation/pkg/core/valuation"
	"dcf_valuation/pkg/models"
)

// Engine runs valuation models against a fixed configuration.
type Engine struct {
	cfg *config.Config
	gen *assumption.Generator
}

// NewEngine returns an Engine over cfg, defaulting when nil.
func NewEngine(cfg *config.Config) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Engine{cfg: cfg, gen: assumption.NewGenerator(cfg)}
}

// Config exposes the engine's configuration to handlers.
func (e *Engine) Config() *config.Config { return e.cfg }

// Assumptions generates the base assumption set for a snapshot with
// optional overrides.
func (e *Engine) Assumptions(snap *models.FundamentalsSnapshot, ov *assumption.Overrides) (assumption.AssumptionSet, error) {
	return e.gen.Generate(snap, ov)
}

// RunDCF executes the full three-stage DCF: generate assumptions, project,
// discount.
func (e *Engine) RunDCF(snap *models.FundamentalsSnapshot, ov *assumption.Overrides) (*valuation.Result, error) {
	a, err := e.gen.Generate(snap, ov)
	if err != nil {
		return nil, err
	}
	return e.RunDCFWith(snap, a)
}

// RunDCFWith prices a snapshot against an already-built assumption set.
// Scenario and sensitivity runs use this entry point with their perturbed
// copies.
func (e *Engine) RunDCFWith(snap *models.FundamentalsSnapshot, a assumption.AssumptionSet) (*valuation.Result, error) {
	res, err := valuation.Assemble(snap, a, "3stage", e.cfg.Market)
	if err != nil {
		return nil, err
	}
	logging.L().Infow("dcf complete",
		"ticker", snap.Ticker,
		"fair_value", res.FairValuePerShare,
		"upside_pct", res.UpsidePercent,
		"wacc", res.WACC.WACC,
		"warnings", len(res.Warnings),
	)
	return res, nil
}

// RunHModel executes the H-Model valuation.
func (e *Engine) RunHModel(snap *models.FundamentalsSnapshot, ov *assumption.Overrides) (*valuation.HModelResult, error) {
	a, err := e.gen.Generate(snap, ov)
	if err != nil {
		return nil, err
	}
	res, err := valuation.ComputeHModel(snap, a, e.cfg.Market)
	if err != nil {
		return nil, err
	}
	logging.L().Infow("hmodel complete",
		"ticker", snap.Ticker, "fair_value", res.FairValuePerShare, "h", res.HalfLife)
	return res, nil
}

// RunSOTP executes the sum-of-the-parts valuation.
func (e *Engine) RunSOTP(snap *models.FundamentalsSnapshot) (*valuation.SOTPResult, error) {
	res, err := valuation.ComputeSOTP(snap, e.cfg)
	if err != nil {
		return nil, err
	}
	logging.L().Infow("sotp complete",
		"ticker", snap.Ticker, "fair_value", res.FairValuePerShare, "segments", len(res.Segments))
	return res, nil
}

// Unified bundles all model outputs with their consensus summary.
type Unified struct {
	Summary *valuation.Summary      `json:"summary"`
	DCF     *valuation.Result       `json:"dcf,omitempty"`
	HModel  *valuation.HModelResult `json:"hmodel,omitempty"`
	SOTP    *valuation.SOTPResult   `json:"sotp,omitempty"`
	Errors  map[string]string       `json:"model_errors,omitempty"`
}

// RunUnified runs every applicable model and averages the survivors. A model
// failing (H-Model on negative FCF, for instance) drops out of the consensus
// with its error recorded; the run only fails when no model prices at all.
func (e *Engine) RunUnified(snap *models.FundamentalsSnapshot, ov *assumption.Overrides) (*Unified, error) {
	u := &Unified{Errors: map[string]string{}}
	var estimates []valuation.ModelEstimate

	if dcf, err := e.RunDCF(snap, ov); err != nil {
		u.Errors["3stage"] = err.Error()
		logging.L().Warnw("dcf model failed", "ticker", snap.Ticker, "error", err)
	} else {
		u.DCF = dcf
		estimates = append(estimates, valuation.ModelEstimate{
			Model: "3stage", FairValue: dcf.FairValuePerShare, Upside: dcf.UpsidePercent,
		})
	}

	if hm, err := e.RunHModel(snap, ov); err != nil {
		u.Errors["hmodel"] = err.Error()
		logging.L().Warnw("hmodel failed", "ticker", snap.Ticker, "error", err)
	} else {
		u.HModel = hm
		estimates = append(estimates, valuation.ModelEstimate{
			Model: "hmodel", FairValue: hm.FairValuePerShare, Upside: hm.UpsidePercent,
		})
	}

	if sotp, err := e.RunSOTP(snap); err != nil {
		u.Errors["sotp"] = err.Error()
		logging.L().Warnw("sotp failed", "ticker", snap.Ticker, "error", err)
	} else {
		u.SOTP = sotp
		estimates = append(estimates, valuation.ModelEstimate{
			Model: "sotp", FairValue: sotp.FairValuePerShare, Upside: sotp.UpsidePercent,
		})
	}

	if len(estimates) == 0 {
		return nil, models.NewInvalidInput("no valuation model produced a result for %s", snap.Ticker)
	}
	if len(u.Errors) == 0 {
		u.Errors = nil
	}

	summary, err := valuation.Summarize(snap, estimates)
	if err != nil {
		return nil, err
	}
	u.Summary = summary
	return u, nil
}
