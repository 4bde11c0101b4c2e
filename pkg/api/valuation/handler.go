// Package valuation exposes the valuation engine over HTTP.
package valuation

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"dcf_valuation/pkg/api/respond"
	"dcf_valuation/pkg/core/assumption"
	"dcf_valuation/pkg/core/llm"
	"dcf_valuation/pkg/core/logging"
	"dcf_valuation/pkg/core/pipeline"
	"dcf_valuation/pkg/core/provider"
	"dcf_valuation/pkg/core/report"
	"dcf_valuation/pkg/core/scenario"
	"dcf_valuation/pkg/core/store"
	"dcf_valuation/pkg/models"
)

var (
	engine    *pipeline.Engine
	snapshots provider.SnapshotProvider
	repo      *store.ValuationRepo
	reporter  *report.Builder
)

// InitHandler wires the handler dependencies. A nil repo disables
// persistence.
func InitHandler(e *pipeline.Engine, p provider.SnapshotProvider, r *store.ValuationRepo, commentary llm.Provider) {
	engine = e
	snapshots = p
	repo = r
	reporter = report.NewBuilder(commentary)
}

// Request is the body shared by all valuation endpoints.
type Request struct {
	Ticker    string                `json:"ticker"`
	Overrides *assumption.Overrides `json:"custom_assumptions,omitempty"`
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (*Request, *models.FundamentalsSnapshot, bool) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body: "+err.Error())
		return nil, nil, false
	}
	req.Ticker = strings.ToUpper(strings.TrimSpace(req.Ticker))
	if req.Ticker == "" {
		respond.BadRequest(w, "ticker is required")
		return nil, nil, false
	}
	snap, err := snapshots.Fetch(r.Context(), req.Ticker)
	if err != nil {
		respond.Fail(w, err)
		return nil, nil, false
	}
	return &req, snap, true
}

func persist(ctx context.Context, ticker, model, runID string, result interface{}) {
	if repo == nil {
		return
	}
	if err := repo.Save(ctx, ticker, model, runID, result); err != nil {
		logging.L().Warnw("persist valuation failed", "ticker", ticker, "model", model, "error", err)
	}
}

// HandleDCF runs the three-stage DCF. POST /api/valuation/dcf
func HandleDCF(w http.ResponseWriter, r *http.Request) {
	if respond.CORS(w, r, "POST") {
		return
	}
	req, snap, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	res, err := engine.RunDCF(snap, req.Overrides)
	if err != nil {
		respond.Fail(w, err)
		return
	}
	persist(r.Context(), req.Ticker, res.Model, res.RunID, res)
	respond.OK(w, res)
}

// HandleHModel runs the H-Model. POST /api/valuation/hmodel
func HandleHModel(w http.ResponseWriter, r *http.Request) {
	if respond.CORS(w, r, "POST") {
		return
	}
	req, snap, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	res, err := engine.RunHModel(snap, req.Overrides)
	if err != nil {
		respond.Fail(w, err)
		return
	}
	persist(r.Context(), req.Ticker, res.Model, res.RunID, res)
	respond.OK(w, res)
}

// HandleSOTP runs the sum-of-the-parts valuation. POST /api/valuation/sotp
func HandleSOTP(w http.ResponseWriter, r *http.Request) {
	if respond.CORS(w, r, "POST") {
		return
	}
	req, snap, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	res, err := engine.RunSOTP(snap)
	if err != nil {
		respond.Fail(w, err)
		return
	}
	persist(r.Context(), req.Ticker, res.Model, res.RunID, res)
	respond.OK(w, res)
}

// HandleUnified runs every model plus the consensus summary.
// POST /api/valuation/unified
func HandleUnified(w http.ResponseWriter, r *http.Request) {
	if respond.CORS(w, r, "POST") {
		return
	}
	req, snap, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	res, err := engine.RunUnified(snap, req.Overrides)
	if err != nil {
		respond.Fail(w, err)
		return
	}
	persist(r.Context(), req.Ticker, "unified", "", res)
	respond.OK(w, res)
}

// HandleScenarios runs the bull/base/bear bundle.
// POST /api/valuation/scenarios
func HandleScenarios(w http.ResponseWriter, r *http.Request) {
	if respond.CORS(w, r, "POST") {
		return
	}
	req, snap, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	bundle, err := scenario.Run(engine, snap, req.Overrides)
	if err != nil {
		respond.Fail(w, err)
		return
	}
	persist(r.Context(), req.Ticker, "scenarios", "", bundle)
	respond.OK(w, bundle)
}

// HandleSensitivity runs the one- and two-way grids.
// POST /api/valuation/sensitivity
func HandleSensitivity(w http.ResponseWriter, r *http.Request) {
	if respond.CORS(w, r, "POST") {
		return
	}
	req, snap, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	sens, err := scenario.Analyze(engine, snap, req.Overrides)
	if err != nil {
		respond.Fail(w, err)
		return
	}
	persist(r.Context(), req.Ticker, "sensitivity", "", sens)
	respond.OK(w, sens)
}

// HandleReport renders the unified run as markdown (default) or HTML with
// ?format=html. POST /api/valuation/report
func HandleReport(w http.ResponseWriter, r *http.Request) {
	if respond.CORS(w, r, "POST") {
		return
	}
	req, snap, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	unified, err := engine.RunUnified(snap, req.Overrides)
	if err != nil {
		respond.Fail(w, err)
		return
	}
	md := reporter.Markdown(r.Context(), unified)
	if r.URL.Query().Get("format") == "html" {
		html, err := report.RenderHTML(md)
		if err != nil {
			respond.Fail(w, err)
			return
		}
		respond.OK(w, map[string]string{"ticker": req.Ticker, "html": html})
		return
	}
	respond.OK(w, map[string]string{"ticker": req.Ticker, "markdown": md})
}

// HandleHistory lists the stored runs per model for a ticker.
// GET /api/valuation/history?ticker=AAPL
func HandleHistory(w http.ResponseWriter, r *http.Request) {
	if respond.CORS(w, r, "GET") {
		return
	}
	if repo == nil {
		respond.BadRequest(w, "valuation persistence is not enabled")
		return
	}
	ticker := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("ticker")))
	if ticker == "" {
		respond.BadRequest(w, "ticker query parameter is required")
		return
	}
	history, err := repo.History(r.Context(), ticker)
	if err != nil {
		respond.Fail(w, err)
		return
	}
	respond.OK(w, map[string]interface{}{"ticker": ticker, "runs": history})
}

// HandleLast serves the most recently stored run for a ticker/model pair
// without recomputing. GET /api/valuation/last?ticker=AAPL&model=3stage
func HandleLast(w http.ResponseWriter, r *http.Request) {
	if respond.CORS(w, r, "GET") {
		return
	}
	if repo == nil {
		respond.BadRequest(w, "valuation persistence is not enabled")
		return
	}
	ticker := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("ticker")))
	model := strings.TrimSpace(r.URL.Query().Get("model"))
	if ticker == "" || model == "" {
		respond.BadRequest(w, "ticker and model query parameters are required")
		return
	}
	var stored json.RawMessage
	found, err := repo.Load(r.Context(), ticker, model, &stored)
	if err != nil {
		respond.Fail(w, err)
		return
	}
	if !found {
		respond.BadRequest(w, "no stored run for "+ticker+"/"+model)
		return
	}
	respond.OK(w, stored)
}
