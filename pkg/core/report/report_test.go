package report

import (
	"context"
	"strings"
	"testing"

	"dcf_valuation/pkg/core/pipeline"
	"dcf_valuation/pkg/core/provider"
)

type staticCommentary struct{ text string }

func (s *staticCommentary) GenerateResponse(_ context.Context, _ string, _ string, _ map[string]interface{}) (string, error) {
	return s.text, nil
}

func unifiedAAPL(t *testing.T) *pipeline.Unified {
	t.Helper()
	snap, err := provider.NewMockProvider().Fetch(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("mock fetch: %v", err)
	}
	u, err := pipeline.NewEngine(nil).RunUnified(snap, nil)
	if err != nil {
		t.Fatalf("RunUnified: %v", err)
	}
	return u
}

func TestMarkdownContainsCoreSections(t *testing.T) {
	b := NewBuilder(nil)
	md := b.Markdown(context.Background(), unifiedAAPL(t))

	for _, want := range []string{
		"# Valuation Report: AAPL",
		"## Model Estimates",
		"## Three-Stage DCF",
		"## H-Model",
		"## Sum of the Parts",
		"Recommendation:",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q", want)
		}
	}
	// No commentary section without a provider.
	if strings.Contains(md, "## Commentary") {
		t.Error("commentary section should be absent with the no-op provider")
	}
}

func TestMarkdownIncludesCommentary(t *testing.T) {
	b := NewBuilder(&staticCommentary{text: "The models agree on modest upside."})
	md := b.Markdown(context.Background(), unifiedAAPL(t))
	if !strings.Contains(md, "## Commentary") {
		t.Fatal("commentary section missing")
	}
	if !strings.Contains(md, "modest upside") {
		t.Error("commentary text missing")
	}
}

func TestRenderHTML(t *testing.T) {
	b := NewBuilder(nil)
	md := b.Markdown(context.Background(), unifiedAAPL(t))
	html, err := RenderHTML(md)
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	if !strings.Contains(html, "<h1") || !strings.Contains(html, "<table") {
		t.Error("expected rendered headings and tables")
	}
}
