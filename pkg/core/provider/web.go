package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"dcf_valuation/pkg/core/logging"
	"dcf_valuation/pkg/models"
)

// WebProvider fetches fundamentals over HTTP. The primary endpoint serves
// JSON snapshots; when it answers with HTML (quote summary pages) the
// provider scrapes the statistics table instead.
type WebProvider struct {
	baseURL string
	client  *http.Client
}

// NewWebProvider targets baseURL; requests hit GET {baseURL}/{ticker}.
func NewWebProvider(baseURL string) *WebProvider {
	return &WebProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *WebProvider) Name() string { return "web" }

func (p *WebProvider) Fetch(ctx context.Context, ticker string) (*models.FundamentalsSnapshot, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, models.NewInvalidInput("ticker is required")
	}

	url := fmt.Sprintf("%s/%s", p.baseURL, ticker)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/html")
	req.Header.Set("User-Agent", "dcf-valuation/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &models.DataUnavailableError{Ticker: ticker, Source: p.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &models.DataUnavailableError{
			Ticker: ticker, Source: p.Name(),
			Err: fmt.Errorf("upstream returned %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &models.DataUnavailableError{Ticker: ticker, Source: p.Name(), Err: err}
	}

	var snap *models.FundamentalsSnapshot
	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		snap, err = parseSummaryHTML(body)
	} else {
		snap, err = DecodeSnapshotPayload(body)
	}
	if err != nil {
		return nil, &models.DataUnavailableError{Ticker: ticker, Source: p.Name(), Err: err}
	}

	snap.Ticker = ticker
	snap.DataSource = p.Name()
	snap.FetchedAt = time.Now().UTC()
	if err := snap.Validate(); err != nil {
		return nil, &models.DataUnavailableError{Ticker: ticker, Source: p.Name(), Err: err}
	}
	logging.L().Infow("snapshot fetched", "ticker", ticker, "source", p.Name())
	return snap, nil
}

// parseSummaryHTML scrapes a statistics table of "label | value" rows.
func parseSummaryHTML(body []byte) (*models.FundamentalsSnapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse summary html: %w", err)
	}

	snap := &models.FundamentalsSnapshot{}
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		label := strings.ToLower(strings.TrimSpace(cells.Eq(0).Text()))
		value, ok := parseFinancialValue(cells.Eq(1).Text())
		if !ok {
			return
		}
		switch {
		case strings.Contains(label, "market cap"):
			snap.MarketCap = value
		case strings.Contains(label, "shares outstanding"):
			snap.SharesOutstanding = value
		case strings.Contains(label, "revenue"):
			snap.Revenue = value
		case strings.Contains(label, "ebitda"):
			snap.EBITDA = value
		case strings.Contains(label, "free cash flow"):
			snap.FreeCashFlow = value
		case strings.Contains(label, "total debt"):
			snap.TotalDebt = value
		case strings.Contains(label, "cash"):
			snap.Cash = value
		case strings.Contains(label, "beta"):
			snap.Beta = value
		case strings.Contains(label, "price"):
			snap.CurrentPrice = value
		}
	})

	if snap.Revenue == 0 && snap.MarketCap == 0 {
		return nil, fmt.Errorf("no recognizable statistics table in page")
	}
	return snap, nil
}

// parseFinancialValue reads "1.23T", "456.7B", "12.3M", "1,234.5" or plain
// numbers, with an optional leading $.
func parseFinancialValue(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "-" || strings.EqualFold(s, "n/a") {
		return 0, false
	}

	mult := 1.0
	switch {
	case strings.HasSuffix(s, "T"):
		mult, s = 1e12, strings.TrimSuffix(s, "T")
	case strings.HasSuffix(s, "B"):
		mult, s = 1e9, strings.TrimSuffix(s, "B")
	case strings.HasSuffix(s, "M"):
		mult, s = 1e6, strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "K"):
		mult, s = 1e3, strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "%"):
		mult, s = 0.01, strings.TrimSuffix(s, "%")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v * mult, true
}
