package provider

import (
	"encoding/json"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"

	"dcf_valuation/pkg/core/validate"
	"dcf_valuation/pkg/models"
)

// DecodeSnapshotPayload parses a JSON snapshot payload, repairing the common
// defects of scraped or machine-generated JSON (single quotes, trailing
// commas, unclosed objects) before decoding.
func DecodeSnapshotPayload(payload []byte) (*models.FundamentalsSnapshot, error) {
	var snap models.FundamentalsSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		repaired, rerr := jsonrepair.RepairJSON(string(payload))
		if rerr != nil {
			return nil, fmt.Errorf("decode snapshot payload: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &snap); err != nil {
			return nil, fmt.Errorf("decode repaired snapshot payload: %w", err)
		}
	}
	return &snap, nil
}

// SanityCheck compares a fresh snapshot against a previous one and reports
// fields that look like extraction errors rather than business reality.
func SanityCheck(fresh, prior *models.FundamentalsSnapshot) []string {
	if prior == nil {
		return nil
	}
	var issues []string
	checks := []struct {
		item             string
		current, before  float64
		threshold        float64
	}{
		{"revenue", fresh.Revenue, prior.Revenue, 0.60},
		{"shares_outstanding", fresh.SharesOutstanding, prior.SharesOutstanding, 0.30},
		{"total_debt", fresh.TotalDebt, prior.TotalDebt, 2.00},
		{"free_cash_flow", fresh.FreeCashFlow, prior.FreeCashFlow, 2.00},
	}
	for _, c := range checks {
		if out := validate.CheckForOutlier(c.item, c.current, c.before, c.threshold); out.IsOutlier {
			issues = append(issues, fmt.Sprintf("%s: %s", c.item, out.Reason))
		}
	}
	return issues
}
