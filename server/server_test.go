package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/etnz/captrack"
	"github.com/shopspring/decimal"
)

type quotes map[string]string

func (q quotes) Quotes(ctx context.Context, assets []captrack.Asset) []captrack.Quote {
	var res []captrack.Quote
	for _, a := range assets {
		symbol := captrack.QuoteSymbol(a)
		if p, ok := q[symbol]; ok {
			res = append(res, captrack.Quote{Symbol: symbol, Price: decimal.RequireFromString(p), Currency: "USD"})
		}
	}
	return res
}

type failingSource struct{}

func (failingSource) LoadTrades(ctx context.Context, platform string) ([]captrack.Trade, error) {
	return nil, errors.New("database is down")
}

func testLedger() *captrack.Ledger {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mk := func(h int, side captrack.Side, symbol string, typ captrack.AssetType, qty, price int64, platform string) captrack.Trade {
		return captrack.Trade{
			ID:         symbol + "-" + string(side),
			OccurredAt: at.Add(time.Duration(h) * time.Hour),
			Asset:      captrack.Asset{Symbol: symbol, Type: typ},
			Side:       side,
			Quantity:   decimal.NewFromInt(qty),
			Price:      decimal.NewFromInt(price),
			Currency:   "USD",
			Platform:   platform,
		}
	}
	l := captrack.NewLedger()
	l.Append(
		mk(0, captrack.Buy, "AAPL", captrack.Stock, 10, 150, "IBKR"),
		mk(1, captrack.Buy, "BTC", captrack.Crypto, 1, 50000, "Kraken"),
		mk(2, captrack.Sell, "AAPL", captrack.Stock, 4, 170, "IBKR"),
		mk(3, captrack.Buy, "", captrack.Stock, 1, 1, "IBKR"),
	)
	return l
}

func newTestServer(t *testing.T, p Portfolio) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(DefaultConfig(), p).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, string) {
	t.Helper()
	resp, err := srv.Client().Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s error = %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("GET %s body error = %v", path, err)
	}
	return resp, string(body)
}

func decode(t *testing.T, body string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(body), v); err != nil {
		t.Fatalf("invalid JSON %q: %v", body, err)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, Portfolio{Trades: testLedger()})

	resp, body := get(t, srv, "/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
	var got map[string]any
	decode(t, body, &got)
	if got["status"] != "ok" {
		t.Errorf("status = %v, want ok", got["status"])
	}
}

func TestPositions(t *testing.T) {
	srv := newTestServer(t, Portfolio{Trades: testLedger()})

	resp, body := get(t, srv, "/positions")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.StatusCode, body)
	}
	var got struct {
		Positions []struct {
			Asset    captrack.Asset `json:"asset"`
			Quantity json.Number    `json:"quantity"`
		} `json:"positions"`
		Skipped []any `json:"skipped"`
	}
	decode(t, body, &got)
	if len(got.Positions) != 2 {
		t.Fatalf("positions = %v, want 2", got.Positions)
	}
	// crypto sorts before stock.
	if got.Positions[0].Asset.Symbol != "BTC" || got.Positions[1].Asset.Symbol != "AAPL" {
		t.Errorf("positions order = %v", got.Positions)
	}
	if got.Positions[1].Quantity != "6" {
		t.Errorf("AAPL quantity = %s, want 6", got.Positions[1].Quantity)
	}
	if len(got.Skipped) != 0 {
		t.Errorf("skipped = %v, want none without audit", got.Skipped)
	}
}

func TestPositions_PlatformAndAudit(t *testing.T) {
	srv := newTestServer(t, Portfolio{Trades: testLedger()})

	_, body := get(t, srv, "/positions?platform=ibkr&audit=true")
	var got struct {
		Platform  string `json:"platform"`
		Positions []any  `json:"positions"`
		Skipped   []struct {
			Reason string `json:"reason"`
		} `json:"skipped"`
	}
	decode(t, body, &got)
	if got.Platform != "ibkr" || len(got.Positions) != 1 {
		t.Errorf("platform, positions = %q, %v, want ibkr and one position", got.Platform, got.Positions)
	}
	if len(got.Skipped) != 1 || got.Skipped[0].Reason != string(captrack.SkipEmptySymbol) {
		t.Errorf("skipped = %v, want one empty symbol", got.Skipped)
	}
}

func TestPositions_Markdown(t *testing.T) {
	srv := newTestServer(t, Portfolio{Trades: testLedger()})

	resp, body := get(t, srv, "/positions?format=md")
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("Content-Type = %q, want text/markdown", ct)
	}
	if !strings.HasPrefix(body, "# Positions") || !strings.Contains(body, "| AAPL |") {
		t.Errorf("body =\n%s", body)
	}
}

func TestPositions_SourceError(t *testing.T) {
	srv := newTestServer(t, Portfolio{Trades: failingSource{}})

	resp, body := get(t, srv, "/positions")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
	var got ErrorResponse
	decode(t, body, &got)
	if got.Code != "trades_unavailable" || got.RequestID == "" {
		t.Errorf("error = %+v", got)
	}
}

func TestHolding(t *testing.T) {
	srv := newTestServer(t, Portfolio{
		Trades:       testLedger(),
		Quotes:       quotes{"AAPL": "160"},
		BaseCurrency: "USD",
	})

	resp, body := get(t, srv, "/holding")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.StatusCode, body)
	}
	var got struct {
		BaseCurrency  string   `json:"baseCurrency"`
		FXReady       bool     `json:"fxReady"`
		MissingQuotes []string `json:"missingQuotes"`
		Holdings      []struct {
			Symbol      string `json:"symbol"`
			Priced      bool   `json:"priced"`
			MarketValue struct {
				Amount json.Number `json:"amount"`
			} `json:"marketValue"`
		} `json:"holdings"`
	}
	decode(t, body, &got)
	if got.BaseCurrency != "USD" || !got.FXReady {
		t.Errorf("base, fxReady = %q, %v, want USD, true", got.BaseCurrency, got.FXReady)
	}
	if len(got.MissingQuotes) != 1 || got.MissingQuotes[0] != "BTC-USD" {
		t.Errorf("missingQuotes = %v, want [BTC-USD]", got.MissingQuotes)
	}
	for _, h := range got.Holdings {
		if h.Symbol == "AAPL" && (!h.Priced || h.MarketValue.Amount != "960") {
			t.Errorf("AAPL holding = %+v, want a market value of 960", h)
		}
	}
}

func TestHolding_NoQuotes(t *testing.T) {
	srv := newTestServer(t, Portfolio{Trades: testLedger()})

	if resp, _ := get(t, srv, "/holding"); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestTrades_Pagination(t *testing.T) {
	srv := newTestServer(t, Portfolio{Trades: testLedger()})

	tests := []struct {
		query   string
		ids     []string
		hasNext bool
		hasPrev bool
	}{
		{"", []string{"-BUY", "AAPL-SELL", "BTC-BUY", "AAPL-BUY"}, false, false},
		{"?size=3", []string{"-BUY", "AAPL-SELL", "BTC-BUY"}, true, false},
		{"?size=3&page=2", []string{"AAPL-BUY"}, false, true},
		{"?size=3&page=9", []string{}, false, true},
		{"?page=9223372036854775807", []string{}, false, true},
		{"?size=500&page=4611686018427387904", []string{}, false, true},
		{"?platform=kraken", []string{"BTC-BUY"}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			_, body := get(t, srv, "/trades"+tt.query)
			var got TradesResponse
			decode(t, body, &got)

			ids := []string{}
			for _, tr := range got.Trades {
				ids = append(ids, tr.ID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.ids, ",") {
				t.Errorf("ids = %v, want %v", ids, tt.ids)
			}
			if got.Pagination.HasNext != tt.hasNext || got.Pagination.HasPrev != tt.hasPrev {
				t.Errorf("pagination = %+v, want hasNext=%v hasPrev=%v", got.Pagination, tt.hasNext, tt.hasPrev)
			}
		})
	}
}

func TestNotFound(t *testing.T) {
	srv := newTestServer(t, Portfolio{Trades: testLedger()})

	resp, body := get(t, srv, "/nope")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if !strings.Contains(body, "endpoint_not_found") {
		t.Errorf("body = %s", body)
	}
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(t, Portfolio{Trades: testLedger()})

	get(t, srv, "/positions?audit=true")
	_, body := get(t, srv, "/metrics")
	for _, want := range []string{
		`captrack_derivations_total{endpoint="positions"} 1`,
		`captrack_skipped_trades_total{reason="empty symbol"} 1`,
		`captrack_open_positions 2`,
		`captrack_http_request_duration_seconds_count{method="GET",route="/positions",status="200"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics do not contain %q", want)
		}
	}
}
