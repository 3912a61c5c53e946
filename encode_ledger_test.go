package captrack

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDecodeLedger(t *testing.T) {
	// Deliberately unsorted; the two trades of 2025-08-02 must keep their order.
	jsonlStream := `
{"id":"3","occurredAt":"2025-08-03T09:00:00Z","side":"sell","symbol":"aapl","type":"stock","quantity":4,"price":201,"fees":0.5,"currency":"USD"}
{"id":"1","occurredAt":"2025-08-02T09:00:00Z","side":"BUY","symbol":"AAPL","type":"stock","quantity":10,"price":195.5,"currency":"USD","platform":"Zerodha"}

{"id":"2","occurredAt":"2025-08-02T09:00:00Z","side":"BUY","symbol":"BTC","type":"crypto","quantity":0.25,"price":60000,"currency":"USD","source":"import"}
`
	ledger, err := DecodeLedger(strings.NewReader(jsonlStream))
	if err != nil {
		t.Fatalf("DecodeLedger() returned an unexpected error: %v", err)
	}

	var ids []string
	for _, tr := range ledger.Trades() {
		ids = append(ids, tr.ID)
	}
	if got, want := strings.Join(ids, ","), "1,2,3"; got != want {
		t.Errorf("DecodeLedger() order = %s, want %s", got, want)
	}

	sale, _ := ledger.Get("3")
	if got, want := sale.Side, Sell; got != want {
		t.Errorf("Side = %q, want %q", got, want)
	}
	if !sale.Fees.Valid || !sale.Fees.Decimal.Equal(d(0.5)) {
		t.Errorf("Fees = %v, want 0.5", sale.Fees)
	}
	purchase, _ := ledger.Get("1")
	if purchase.Fees.Valid {
		t.Errorf("Fees = %v, want absent", purchase.Fees)
	}
	if got, want := purchase.OccurredAt, time.Date(2025, 8, 2, 9, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("OccurredAt = %v, want %v", got, want)
	}
}

func TestDecodeLedger_Error(t *testing.T) {
	_, err := DecodeLedger(strings.NewReader("{\"id\":\"1\"}\n{not json}\n"))
	if err == nil {
		t.Fatal("DecodeLedger() expected an error")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("DecodeLedger() error = %v, want it to name line 2", err)
	}
}

func TestEncodeTrade(t *testing.T) {
	tr := withFees(buy(0, "AAPL", 10, 195.5), 1)
	tr.ID = "t1"
	tr.Platform = "Zerodha"
	tr.Source = Manual

	var buf bytes.Buffer
	if err := EncodeTrade(&buf, tr); err != nil {
		t.Fatalf("EncodeTrade() error = %v", err)
	}
	want := `{"id":"t1","occurredAt":"2025-01-01T10:00:00Z","side":"BUY","symbol":"AAPL","type":"stock","quantity":10,"price":195.5,"fees":1,"currency":"USD","platform":"Zerodha","source":"manual"}` + "\n"
	if got := buf.String(); got != want {
		t.Errorf("EncodeTrade() =\n%s\nwant\n%s", got, want)
	}
}

func TestEncodeLedger_RoundTrip(t *testing.T) {
	ledger := NewLedger()
	ledger.Append(
		buy(3, "AAPL", 10, 100),
		withFees(sell(1, "GOOG", 2, 1000.25), 3),
		withType(buy(1, "ETH", 0.5, 2500), Crypto), // same time as the GOOG sale
	)

	var first bytes.Buffer
	if err := EncodeLedger(&first, ledger); err != nil {
		t.Fatalf("EncodeLedger() error = %v", err)
	}
	decoded, err := DecodeLedger(bytes.NewReader(first.Bytes()))
	if err != nil {
		t.Fatalf("DecodeLedger() error = %v", err)
	}
	var second bytes.Buffer
	if err := EncodeLedger(&second, decoded); err != nil {
		t.Fatalf("EncodeLedger() error = %v", err)
	}
	if got, want := second.String(), first.String(); got != want {
		t.Errorf("round trip =\n%s\nwant\n%s", got, want)
	}

	symbols := make([]string, 0, 3)
	for _, tr := range decoded.Trades() {
		symbols = append(symbols, tr.Asset.Symbol)
	}
	if got, want := strings.Join(symbols, ","), "GOOG,ETH,AAPL"; got != want {
		t.Errorf("decoded order = %s, want %s", got, want)
	}
}

func TestLedgerFile(t *testing.T) {
	f := LedgerFile(filepath.Join(t.TempDir(), "trades.jsonl"))

	ledger, err := f.Load()
	if err != nil {
		t.Fatalf("Load() of a missing file error = %v", err)
	}
	if ledger.Len() != 0 {
		t.Errorf("Load() of a missing file has %d trades, want 0", ledger.Len())
	}

	onZerodha := buy(1, "INFY", 3, 1500)
	onZerodha.Platform = "Zerodha"
	ledger.Append(buy(0, "AAPL", 1, 100), onZerodha)
	if err := f.Save(ledger); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	trades, err := f.LoadTrades(context.Background(), "zerodha")
	if err != nil {
		t.Fatalf("LoadTrades() error = %v", err)
	}
	if len(trades) != 1 || trades[0].Asset.Symbol != "INFY" {
		t.Errorf("LoadTrades(zerodha) = %v, want the INFY trade", trades)
	}
	trades, err = f.LoadTrades(context.Background(), "")
	if err != nil {
		t.Fatalf("LoadTrades() error = %v", err)
	}
	if got, want := len(trades), 2; got != want {
		t.Errorf("len(LoadTrades()) = %d, want %d", got, want)
	}
}
