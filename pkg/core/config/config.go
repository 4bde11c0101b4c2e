// Package config holds the macro assumptions and sector reference tables
// consumed by the assumption generator and the terminal value resolver.
// Everything here is versioned, swappable data: defaults are compiled in,
// a YAML file overrides the market constants, and an HJSON resource (which
// tolerates comments) overrides the sector tables. Projection logic never
// hard-codes these numbers.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	hjson "github.com/hjson/hjson-go/v4"
	"gopkg.in/yaml.v2"
)

// MarketConfig carries the economy-wide constants of a model run.
type MarketConfig struct {
	RiskFreeRate          float64 `yaml:"risk_free_rate"`
	MarketRiskPremium     float64 `yaml:"market_risk_premium"`
	TaxRate               float64 `yaml:"tax_rate"`
	DefaultTerminalGrowth float64 `yaml:"default_terminal_growth"`

	// Hard bounds enforced by the core.
	TerminalGrowthCeiling float64 `yaml:"terminal_growth_ceiling"`
	MinWACC               float64 `yaml:"min_wacc"`
	MaxWACC               float64 `yaml:"max_wacc"`
	MaxGrowthRate         float64 `yaml:"max_growth_rate"`

	// Stage-1 hyper-growth decay. Calibration is ad hoc (see DESIGN.md);
	// kept configurable so a domain expert can retune without code changes.
	HighGrowthThreshold float64 `yaml:"high_growth_threshold"`
	GrowthDecayFactor   float64 `yaml:"growth_decay_factor"`

	// Valuation safety rails.
	ImpliedMarketCapCeiling float64 `yaml:"implied_market_cap_ceiling"`
	TVDominanceLimit        float64 `yaml:"tv_dominance_limit"`
	TVDominanceWarn         float64 `yaml:"tv_dominance_warn"`
	TVHaircut               float64 `yaml:"tv_haircut"`
	TerminalFCFFloorPct     float64 `yaml:"terminal_fcf_floor_pct"`
	ExitMultipleMin         float64 `yaml:"exit_multiple_min"`
	ExitMultipleMax         float64 `yaml:"exit_multiple_max"`

	// Horizon defaults.
	Stage1Years int `yaml:"stage1_years"`
	Stage2Years int `yaml:"stage2_years"`
}

// GrowthCeiling maps a market-cap floor to the maximum stage-1 growth a
// company of that size may be modeled with ("law of large numbers").
type GrowthCeiling struct {
	MarketCap float64 `yaml:"market_cap"`
	MaxGrowth float64 `yaml:"max_growth"`
}

// SectorProfile carries the per-sector norms used for mean reversion and
// multiple validation.
type SectorProfile struct {
	EBITDAMarginNorm float64 `json:"ebitda_margin_norm"`
	CapexFloor       float64 `json:"capex_floor"`
	ExitMultipleLow  float64 `json:"exit_multiple_low"`
	ExitMultipleHigh float64 `json:"exit_multiple_high"`
	IndustryBeta     float64 `json:"industry_beta"`
}

// SegmentMultiple is one row of the SOTP comparable-multiples table.
type SegmentMultiple struct {
	EVToRevenue    float64 `json:"ev_to_revenue"`
	EVToEBITDA     float64 `json:"ev_to_ebitda"`
	QualityPremium float64 `json:"quality_premium"`
}

// Config is the full injected configuration set.
type Config struct {
	Market           MarketConfig               `yaml:"market"`
	GrowthCeilings   []GrowthCeiling            `yaml:"growth_ceilings"`
	Sectors          map[string]SectorProfile   `yaml:"-"`
	SegmentMultiples map[string]SegmentMultiple `yaml:"-"`

	// Moat-keyed terminal growth rates.
	TerminalGrowthByMoat map[string]float64 `yaml:"terminal_growth_by_moat"`

	Version string `yaml:"version"`
}

// Default returns the compiled-in configuration. Constants follow the
// 10-year Treasury (~4.5%), the historical equity risk premium (~6.5%)
// and the US corporate tax rate.
func Default() *Config {
	return &Config{
		Version: "2026.1",
		Market: MarketConfig{
			RiskFreeRate:            0.045,
			MarketRiskPremium:       0.065,
			TaxRate:                 0.21,
			DefaultTerminalGrowth:   0.035,
			TerminalGrowthCeiling:   0.08,
			MinWACC:                 0.05,
			MaxWACC:                 0.25,
			MaxGrowthRate:           0.50,
			HighGrowthThreshold:     0.25,
			GrowthDecayFactor:       0.92,
			ImpliedMarketCapCeiling: 5e12,
			TVDominanceLimit:        0.80,
			TVDominanceWarn:         0.75,
			TVHaircut:               0.20,
			TerminalFCFFloorPct:     0.05,
			ExitMultipleMin:         3,
			ExitMultipleMax:         30,
			Stage1Years:             5,
			Stage2Years:             5,
		},
		GrowthCeilings: []GrowthCeiling{
			{MarketCap: 3e12, MaxGrowth: 0.15},
			{MarketCap: 1e12, MaxGrowth: 0.20},
			{MarketCap: 5e11, MaxGrowth: 0.25},
			{MarketCap: 1e11, MaxGrowth: 0.35},
			{MarketCap: 1e10, MaxGrowth: 0.50},
			{MarketCap: 0, MaxGrowth: 1.00},
		},
		TerminalGrowthByMoat: map[string]float64{
			"wide":   0.045,
			"narrow": 0.038,
			"none":   0.030,
		},
		Sectors: map[string]SectorProfile{
			"Technology": {
				EBITDAMarginNorm: 0.32, CapexFloor: 0.04,
				ExitMultipleLow: 10, ExitMultipleHigh: 22, IndustryBeta: 1.15,
			},
			"Healthcare": {
				EBITDAMarginNorm: 0.24, CapexFloor: 0.04,
				ExitMultipleLow: 9, ExitMultipleHigh: 18, IndustryBeta: 0.90,
			},
			"Consumer Cyclical": {
				EBITDAMarginNorm: 0.16, CapexFloor: 0.05,
				ExitMultipleLow: 7, ExitMultipleHigh: 14, IndustryBeta: 1.10,
			},
			"Consumer Defensive": {
				EBITDAMarginNorm: 0.15, CapexFloor: 0.04,
				ExitMultipleLow: 8, ExitMultipleHigh: 15, IndustryBeta: 0.70,
			},
			"Financial Services": {
				EBITDAMarginNorm: 0.35, CapexFloor: 0.02,
				ExitMultipleLow: 6, ExitMultipleHigh: 12, IndustryBeta: 1.05,
			},
			"Energy": {
				EBITDAMarginNorm: 0.28, CapexFloor: 0.08,
				ExitMultipleLow: 4, ExitMultipleHigh: 8, IndustryBeta: 1.20,
			},
			"Industrials": {
				EBITDAMarginNorm: 0.18, CapexFloor: 0.05,
				ExitMultipleLow: 7, ExitMultipleHigh: 13, IndustryBeta: 1.05,
			},
			"Utilities": {
				EBITDAMarginNorm: 0.35, CapexFloor: 0.12,
				ExitMultipleLow: 8, ExitMultipleHigh: 12, IndustryBeta: 0.60,
			},
			"default": {
				EBITDAMarginNorm: 0.20, CapexFloor: 0.04,
				ExitMultipleLow: 6, ExitMultipleHigh: 14, IndustryBeta: 1.00,
			},
		},
		SegmentMultiples: map[string]SegmentMultiple{
			"hardware":    {EVToRevenue: 3.5, EVToEBITDA: 12.0, QualityPremium: 0.15},
			"services":    {EVToRevenue: 7.5, EVToEBITDA: 22.0, QualityPremium: 0.20},
			"cloud":       {EVToRevenue: 10.0, EVToEBITDA: 25.0, QualityPremium: 0.25},
			"advertising": {EVToRevenue: 5.0, EVToEBITDA: 15.0, QualityPremium: 0.10},
			"ecommerce":   {EVToRevenue: 2.0, EVToEBITDA: 18.0, QualityPremium: 0.10},
			"default":     {EVToRevenue: 4.0, EVToEBITDA: 14.0, QualityPremium: 0.10},
		},
	}
}

// Load reads the YAML market config at path over the defaults. An empty
// path returns defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.sortCeilings()
	return cfg, nil
}

// LoadSectorTable overlays the sector profiles and segment multiples from an
// HJSON resource file. HJSON is used here because analysts annotate these
// tables with comments.
func (c *Config) LoadSectorTable(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read sector table %s: %w", path, err)
	}
	var table struct {
		Sectors          map[string]SectorProfile   `json:"sectors"`
		SegmentMultiples map[string]SegmentMultiple `json:"segment_multiples"`
	}
	if err := hjson.Unmarshal(raw, &table); err != nil {
		return fmt.Errorf("parse sector table %s: %w", path, err)
	}
	for name, p := range table.Sectors {
		c.Sectors[name] = p
	}
	for name, m := range table.SegmentMultiples {
		c.SegmentMultiples[name] = m
	}
	return nil
}

// Sector returns the profile for a sector name, falling back to "default".
func (c *Config) Sector(name string) SectorProfile {
	if p, ok := c.Sectors[name]; ok {
		return p
	}
	return c.Sectors["default"]
}

// SegmentMultiplesFor returns the comparable multiples for a segment type.
func (c *Config) SegmentMultiplesFor(segmentType string) SegmentMultiple {
	if m, ok := c.SegmentMultiples[strings.ToLower(segmentType)]; ok {
		return m
	}
	return c.SegmentMultiples["default"]
}

// GrowthCeilingFor returns the maximum stage-1 growth for a market cap.
func (c *Config) GrowthCeilingFor(marketCap float64) float64 {
	for _, tier := range c.GrowthCeilings {
		if marketCap > tier.MarketCap {
			return tier.MaxGrowth
		}
	}
	return c.Market.MaxGrowthRate
}

// TerminalGrowthForMoat maps a moat rating to its perpetuity growth rate.
func (c *Config) TerminalGrowthForMoat(moat string) float64 {
	if g, ok := c.TerminalGrowthByMoat[strings.ToLower(moat)]; ok {
		return g
	}
	return c.Market.DefaultTerminalGrowth
}

func (c *Config) sortCeilings() {
	sort.Slice(c.GrowthCeilings, func(i, j int) bool {
		return c.GrowthCeilings[i].MarketCap > c.GrowthCeilings[j].MarketCap
	})
}
