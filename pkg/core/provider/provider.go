// Package provider supplies fundamentals snapshots to the valuation engine.
// Implementations: a deterministic mock for tests and offline work, and a
// web provider that scrapes summary pages with a cache in front.
package provider

import (
	"context"

	"dcf_valuation/pkg/models"
)

// SnapshotProvider fetches the current fundamentals for a ticker.
// Implementations return *models.DataUnavailableError when the source cannot
// serve the ticker, so callers can distinguish refusal from bad input.
type SnapshotProvider interface {
	Fetch(ctx context.Context, ticker string) (*models.FundamentalsSnapshot, error)
	Name() string
}
