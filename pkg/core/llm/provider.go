// Package llm generates analyst-style commentary for valuation reports.
// Commentary is strictly additive: a report renders fine without it, and
// any provider failure degrades to the numbers-only report.
package llm

import (
	"context"
)

// Provider is the interface for all commentary backends.
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
}

// NoopProvider returns empty commentary. Used when no API key is configured.
type NoopProvider struct{}

func (p *NoopProvider) GenerateResponse(_ context.Context, _ string, _ string, _ map[string]interface{}) (string, error) {
	return "", nil
}
