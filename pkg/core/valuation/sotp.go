package valuation

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"dcf_valuation/pkg/core/config"
	"dcf_valuation/pkg/models"
)

// SegmentValuation is one segment's contribution to the SOTP build.
type SegmentValuation struct {
	Name              string  `json:"segment_name"`
	Type              string  `json:"segment_type"`
	Revenue           float64 `json:"revenue"`
	Margin            float64 `json:"margin"`
	EVRevenueMultiple float64 `json:"ev_revenue_multiple"`
	BaseEV            float64 `json:"base_ev"`
	QualityPremium    float64 `json:"quality_premium"`
	MarginPremium     float64 `json:"margin_premium"`
	AdjustedEV        float64 `json:"adjusted_ev"`
	PercentOfTotal    float64 `json:"percent_of_total"`
}

// CorporateAdjustments captures the group-level items layered on top of the
// segment sum.
type CorporateAdjustments struct {
	Overhead       float64 `json:"corporate_overhead"`
	SharedServices float64 `json:"shared_services_value"`
	RealOptions    float64 `json:"real_options_value"`
	Total          float64 `json:"total_adjustments"`
}

// SOTPResult is the output of a sum-of-the-parts valuation.
type SOTPResult struct {
	RunID  string `json:"run_id"`
	Ticker string `json:"ticker"`
	Model  string `json:"model"`

	FairValuePerShare float64 `json:"price_per_share"`
	CurrentPrice      float64 `json:"current_price"`
	UpsidePercent     float64 `json:"upside_downside"`

	EnterpriseValue float64 `json:"enterprise_value"`
	EquityValue     float64 `json:"equity_value"`
	NetDebt         float64 `json:"net_debt"`

	Segments       []SegmentValuation   `json:"segment_valuations"`
	TotalSegmentEV float64              `json:"total_segment_ev"`
	Adjustments    CorporateAdjustments `json:"corporate_adjustments"`
	Warnings       []string             `json:"warnings,omitempty"`
	CalculatedAt   time.Time            `json:"calculation_date"`
}

// ComputeSOTP values each operating segment on a comparable EV/Revenue
// multiple, layers on quality and margin premiums, and nets corporate-level
// adjustments. Companies without segment disclosure are valued as a single
// "Core Business" segment, which degrades the method into a plain
// comparables check and is warned about.
func ComputeSOTP(snap *models.FundamentalsSnapshot, cfg *config.Config) (*SOTPResult, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	var warnings []string
	segments := snap.Segments
	if len(segments) == 0 {
		warnings = append(warnings, "no segment disclosure, valued as a single core business")
		margin := snap.OperatingMargin
		oi := snap.OperatingIncome
		if oi == 0 {
			oi = snap.Revenue * 0.25
			margin = 0.25
		}
		segments = []models.Segment{{
			Name:            "Core Business",
			Revenue:         snap.Revenue,
			OperatingIncome: oi,
			Margin:          margin,
		}}
	}

	valuations := make([]SegmentValuation, 0, len(segments))
	totalEV := 0.0
	for _, seg := range segments {
		segType := ClassifySegment(seg.Name, snap.Ticker)
		multiples := cfg.SegmentMultiplesFor(segType)

		baseEV := seg.Revenue * multiples.EVToRevenue

		// Segments earning above a 20% reference margin get half the excess
		// as a premium, capped at 15%.
		marginPremium := 0.0
		if seg.Margin > 0.20 {
			marginPremium = (seg.Margin - 0.20) * 0.5
			if marginPremium > 0.15 {
				marginPremium = 0.15
			}
		}
		adjustedEV := baseEV * (1 + multiples.QualityPremium + marginPremium)
		totalEV += adjustedEV

		valuations = append(valuations, SegmentValuation{
			Name:              seg.Name,
			Type:              segType,
			Revenue:           seg.Revenue,
			Margin:            seg.Margin,
			EVRevenueMultiple: multiples.EVToRevenue,
			BaseEV:            baseEV,
			QualityPremium:    multiples.QualityPremium,
			MarginPremium:     marginPremium,
			AdjustedEV:        adjustedEV,
		})
	}
	for i := range valuations {
		if totalEV > 0 {
			valuations[i].PercentOfTotal = valuations[i].AdjustedEV / totalEV
		}
	}

	adj := CorporateAdjustments{
		Overhead:       -snap.Revenue * 0.015,
		SharedServices: snap.Revenue * 0.005,
		RealOptions:    snap.MarketCapValue() * 0.05,
	}
	adj.Total = adj.Overhead + adj.SharedServices + adj.RealOptions

	ev := totalEV + adj.Total
	netDebt := snap.NetDebt()
	equity := ev - netDebt
	fairValue := equity / snap.SharesOutstanding

	upside := 0.0
	if snap.CurrentPrice > 0 {
		upside = (fairValue - snap.CurrentPrice) / snap.CurrentPrice * 100
	}

	return &SOTPResult{
		RunID:             uuid.NewString(),
		Ticker:            snap.Ticker,
		Model:             "sotp",
		FairValuePerShare: fairValue,
		CurrentPrice:      snap.CurrentPrice,
		UpsidePercent:     upside,
		EnterpriseValue:   ev,
		EquityValue:       equity,
		NetDebt:           netDebt,
		Segments:          valuations,
		TotalSegmentEV:    totalEV,
		Adjustments:       adj,
		Warnings:          warnings,
		CalculatedAt:      time.Now().UTC(),
	}, nil
}

// ClassifySegment maps a reported segment name to a multiples bucket using
// keyword matching, with ticker-specific rules for the big disclosers.
func ClassifySegment(name, ticker string) string {
	n := strings.ToLower(name)

	containsAny := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(n, w) {
				return true
			}
		}
		return false
	}

	if containsAny("iphone", "mac", "ipad", "watch", "wearable", "device", "hardware") {
		return "hardware"
	}
	if containsAny("service", "subscription", "cloud", "saas", "azure", "aws", "office 365") {
		if containsAny("cloud", "azure", "aws", "gcp", "compute", "storage") {
			return "cloud"
		}
		return "services"
	}
	if containsAny("advertising", "ads", "search", "youtube") {
		return "advertising"
	}
	if containsAny("ecommerce", "retail", "online store", "marketplace") {
		return "ecommerce"
	}

	switch ticker {
	case "MSFT":
		if containsAny("azure", "cloud", "intelligent cloud") {
			return "cloud"
		}
		if containsAny("office", "dynamics", "productivity") {
			return "services"
		}
	case "GOOGL", "GOOG":
		if containsAny("advertising", "search", "youtube") {
			return "advertising"
		}
		if strings.Contains(n, "cloud") {
			return "cloud"
		}
	case "AMZN":
		if containsAny("aws", "cloud") {
			return "cloud"
		}
		if containsAny("online", "retail", "store") {
			return "ecommerce"
		}
	}
	return "default"
}
