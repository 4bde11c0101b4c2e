// Package fundamentals exposes snapshot retrieval and the moat scorer.
package fundamentals

import (
	"net/http"
	"strings"

	"dcf_valuation/pkg/api/respond"
	"dcf_valuation/pkg/core/moat"
	"dcf_valuation/pkg/core/provider"
)

var snapshots provider.SnapshotProvider

// InitHandler wires the snapshot provider.
func InitHandler(p provider.SnapshotProvider) {
	snapshots = p
}

// HandleGet serves the current snapshot for a ticker, scoring the moat when
// the source did not provide one. GET /api/fundamentals?ticker=AAPL
func HandleGet(w http.ResponseWriter, r *http.Request) {
	if respond.CORS(w, r, "GET") {
		return
	}
	ticker := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("ticker")))
	if ticker == "" {
		respond.BadRequest(w, "ticker query parameter is required")
		return
	}

	snap, err := snapshots.Fetch(r.Context(), ticker)
	if err != nil {
		respond.Fail(w, err)
		return
	}
	if snap.EconomicMoat == "" {
		rating, score, factors := moat.Score(snap.ROIC, snap.GrossMargin, snap.RevenueCAGR3Y, snap.FCFMargin)
		snap.EconomicMoat = rating
		snap.MoatScore = score
		snap.MoatFactors = factors
	}
	respond.OK(w, snap)
}
