package valuation

import (
	"dcf_valuation/pkg/core/assumption"
	"dcf_valuation/pkg/core/config"
	"dcf_valuation/pkg/core/projection"
	"dcf_valuation/pkg/core/validate"
	"dcf_valuation/pkg/models"
)

// TerminalValue is the undiscounted value of the business beyond the
// explicit horizon, plus how it was obtained.
type TerminalValue struct {
	Value       float64                   `json:"terminal_value"`
	Method      assumption.TerminalMethod `json:"method"`
	TerminalFCF float64                   `json:"terminal_fcf"`
	Perpetuity  float64                   `json:"perpetuity_value,omitempty"`
	Multiple    float64                   `json:"multiple_value,omitempty"`
}

// ResolveTerminalValue computes the terminal value using the configured
// method. "both" averages the perpetuity and exit-multiple answers.
//
// A non-positive terminal FCF would produce a negative perpetuity for a
// still-operating business, so it is floored at a fraction of terminal
// revenue with a warning. Gordon growth requires WACC > terminal growth;
// callers are expected to have run EnforceTerminalConstraint, so a
// violation here is an input error.
func ResolveTerminalValue(terminal projection.Year, a *assumption.AssumptionSet, wacc float64, mkt config.MarketConfig) (TerminalValue, error) {
	fcf := terminal.FreeCashFlow
	if fcf <= 0 {
		floored := terminal.Revenue * mkt.TerminalFCFFloorPct
		a.Warn("terminal FCF $%.0fM non-positive, floored at %.0f%% of terminal revenue ($%.0fM)",
			fcf/1e6, mkt.TerminalFCFFloorPct*100, floored/1e6)
		fcf = floored
	}

	tv := TerminalValue{Method: a.TerminalMethod, TerminalFCF: fcf}

	needPerpetuity := a.TerminalMethod == assumption.TerminalPerpetuity || a.TerminalMethod == assumption.TerminalBoth
	needMultiple := a.TerminalMethod == assumption.TerminalExitMultiple || a.TerminalMethod == assumption.TerminalBoth

	if needPerpetuity {
		if wacc <= a.TerminalGrowth {
			return TerminalValue{}, models.NewInvalidInput(
				"WACC %.2f%% must exceed terminal growth %.2f%%", wacc*100, a.TerminalGrowth*100)
		}
		tv.Perpetuity = fcf / (wacc - a.TerminalGrowth)
	}
	if needMultiple {
		multiple := a.ExitMultiple
		if clamped := validate.Clamp(multiple, mkt.ExitMultipleMin, mkt.ExitMultipleMax); clamped != multiple {
			a.Warn("exit multiple %.1fx clamped to %.1fx", multiple, clamped)
			multiple = clamped
		}
		tv.Multiple = terminal.EBITDA * multiple
	}

	switch a.TerminalMethod {
	case assumption.TerminalPerpetuity:
		tv.Value = tv.Perpetuity
	case assumption.TerminalExitMultiple:
		tv.Value = tv.Multiple
	case assumption.TerminalBoth:
		tv.Value = (tv.Perpetuity + tv.Multiple) / 2
	default:
		return TerminalValue{}, models.NewInvalidInput("unknown terminal method %q", a.TerminalMethod)
	}
	return tv, nil
}
