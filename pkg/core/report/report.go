// Package report renders a valuation run as a markdown document, optionally
// enriched with model commentary, plus an HTML rendering for embedding.
package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"dcf_valuation/pkg/core/llm"
	"dcf_valuation/pkg/core/logging"
	"dcf_valuation/pkg/core/pipeline"
	"dcf_valuation/pkg/core/valuation"
)

// Builder renders unified valuation results.
type Builder struct {
	commentary llm.Provider
}

// NewBuilder returns a Builder. A nil provider disables commentary.
func NewBuilder(commentary llm.Provider) *Builder {
	if commentary == nil {
		commentary = &llm.NoopProvider{}
	}
	return &Builder{commentary: commentary}
}

const commentarySystemPrompt = `You are an equity analyst. Write two short paragraphs
interpreting the valuation summary you are given. Restate what the numbers imply;
do not introduce figures that are not in the input.`

// Markdown renders the unified run as a markdown report. Commentary failures
// are logged and skipped.
func (b *Builder) Markdown(ctx context.Context, u *pipeline.Unified) string {
	var sb strings.Builder

	s := u.Summary
	fmt.Fprintf(&sb, "# Valuation Report: %s\n\n", s.Ticker)
	fmt.Fprintf(&sb, "**Recommendation: %s**\n\n", s.Recommendation)
	fmt.Fprintf(&sb, "| | |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Current price | $%.2f |\n", s.CurrentPrice)
	fmt.Fprintf(&sb, "| Weighted fair value | $%.2f |\n", s.WeightedFairValue)
	fmt.Fprintf(&sb, "| Upside / downside | %.1f%% |\n\n", s.UpsideToWeighted)

	sb.WriteString("## Model Estimates\n\n")
	sb.WriteString("| Model | Fair Value | Upside |\n|---|---|---|\n")
	for _, e := range s.Estimates {
		fmt.Fprintf(&sb, "| %s | $%.2f | %.1f%% |\n", e.Model, e.FairValue, e.Upside)
	}
	sb.WriteString("\n")

	if u.DCF != nil {
		writeDCFSection(&sb, u.DCF)
	}
	if u.HModel != nil {
		fmt.Fprintf(&sb, "## H-Model\n\nEV $%.1fB = terminal $%.1fB + excess growth $%.1fB (H = %.0f years, g %.1f%% → %.1f%%).\n\n",
			u.HModel.EnterpriseValue/1e9, u.HModel.PVTerminal/1e9, u.HModel.PVExcessGrowth/1e9,
			u.HModel.HalfLife, u.HModel.GrowthHigh*100, u.HModel.GrowthLow*100)
	}
	if u.SOTP != nil {
		writeSOTPSection(&sb, u.SOTP)
	}

	if s.AnalystConsensus != nil {
		fmt.Fprintf(&sb, "## Street Comparison\n\n%d analysts average $%.2f, %.1f%% %s our weighted value.\n\n",
			s.AnalystConsensus.AnalystCount, s.AnalystConsensus.AverageTarget,
			absFloat(s.AnalystConsensus.GapPercent), gapDirection(s.AnalystConsensus.Gap))
	}

	writeWarnings(&sb, u)

	if text := b.generateCommentary(ctx, &sb); text != "" {
		sb.WriteString("## Commentary\n\n")
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String()
}

var htmlRenderer = goldmark.New(goldmark.WithExtensions(extension.Table))

// RenderHTML converts a markdown report to HTML.
func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := htmlRenderer.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render report html: %w", err)
	}
	return buf.String(), nil
}

func (b *Builder) generateCommentary(ctx context.Context, report *strings.Builder) string {
	text, err := b.commentary.GenerateResponse(ctx, report.String(), commentarySystemPrompt, nil)
	if err != nil {
		logging.L().Warnw("commentary generation failed", "error", err)
		return ""
	}
	return strings.TrimSpace(text)
}

func writeDCFSection(sb *strings.Builder, r *valuation.Result) {
	fmt.Fprintf(sb, "## Three-Stage DCF\n\n")
	fmt.Fprintf(sb, "WACC %.2f%% (cost of equity %.2f%%). Enterprise value $%.1fB, of which terminal value %.0f%%.\n\n",
		r.WACC.WACC*100, r.WACC.CostOfEquity*100, r.EnterpriseValue/1e9, r.TerminalValuePercent*100)

	sb.WriteString("| Year | Stage | Revenue | FCF | PV |\n|---|---|---|---|---|\n")
	for _, yr := range r.Projections {
		fmt.Fprintf(sb, "| %d | %s | $%.1fB | $%.1fB | $%.1fB |\n",
			yr.Year, yr.Stage, yr.Revenue/1e9, yr.FreeCashFlow/1e9, yr.PresentValue/1e9)
	}
	sb.WriteString("\n")
}

func writeSOTPSection(sb *strings.Builder, r *valuation.SOTPResult) {
	fmt.Fprintf(sb, "## Sum of the Parts\n\n")
	sb.WriteString("| Segment | Type | Revenue | Adjusted EV | Share |\n|---|---|---|---|---|\n")
	for _, seg := range r.Segments {
		fmt.Fprintf(sb, "| %s | %s | $%.1fB | $%.1fB | %.0f%% |\n",
			seg.Name, seg.Type, seg.Revenue/1e9, seg.AdjustedEV/1e9, seg.PercentOfTotal*100)
	}
	fmt.Fprintf(sb, "\nCorporate adjustments net $%.1fB.\n\n", r.Adjustments.Total/1e9)
}

func writeWarnings(sb *strings.Builder, u *pipeline.Unified) {
	var all []string
	if u.DCF != nil {
		all = append(all, u.DCF.Warnings...)
	}
	if u.HModel != nil {
		all = append(all, u.HModel.Warnings...)
	}
	if u.SOTP != nil {
		all = append(all, u.SOTP.Warnings...)
	}
	if len(all) == 0 {
		return
	}
	sb.WriteString("## Model Warnings\n\n")
	for _, w := range all {
		fmt.Fprintf(sb, "- %s\n", w)
	}
	sb.WriteString("\n")
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func gapDirection(gap float64) string {
	if gap >= 0 {
		return "above"
	}
	return "below"
}
