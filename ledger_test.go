package captrack

import (
	"context"
	"slices"
	"testing"
)

func TestLedger_Append(t *testing.T) {
	ledger := NewLedger()
	first := buy(2, "AAPL", 1, 1)
	first.ID = "keep-me"
	ledger.Append(first, buy(1, "GOOG", 1, 1), buy(1, "MSFT", 1, 1))

	var got []string
	for _, tr := range ledger.Trades(AcceptAll) {
		if tr.ID == "" {
			t.Errorf("trade %v has no ID", tr)
		}
		got = append(got, tr.Asset.Symbol)
	}
	if want := []string{"GOOG", "MSFT", "AAPL"}; !slices.Equal(got, want) {
		t.Errorf("Trades() = %v, want %v", got, want)
	}
	if _, ok := ledger.Get("keep-me"); !ok {
		t.Error("Append() replaced an existing ID")
	}
}

func TestLedger_ReplaceAndDelete(t *testing.T) {
	ledger := NewLedger()
	tr := buy(0, "AAPL", 1, 100)
	tr.ID = "a"
	ledger.Append(tr, buy(1, "GOOG", 1, 100))

	if err := ledger.Replace("a", buy(5, "AAPL", 2, 100)); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	last := ledger.List()[ledger.Len()-1]
	if last.ID != "a" || !last.Quantity.Equal(d(2)) {
		t.Errorf("after Replace() last trade = %+v, want the replaced one, moved to the end", last)
	}

	if err := ledger.Delete("a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got, want := ledger.Len(), 1; got != want {
		t.Errorf("Len() = %d, want %d", got, want)
	}
	if err := ledger.Delete("a"); err == nil {
		t.Error("Delete() of an unknown id expected an error")
	}
	if err := ledger.Replace("a", tr); err == nil {
		t.Error("Replace() of an unknown id expected an error")
	}
}

func TestLedger_Filters(t *testing.T) {
	zerodha := withType(buy(1, "INFY", 1, 1), Stock)
	zerodha.Platform = "Zerodha"
	coinbase := withType(buy(2, "BTC", 1, 1), Crypto)
	coinbase.Platform = "Coinbase"
	coinbase.Currency = "EUR"
	ledger := NewLedger()
	ledger.Append(buy(0, "AAPL", 1, 1), zerodha, coinbase)

	tests := []struct {
		name   string
		filter func(Trade) bool
		want   []string
	}{
		{"all", AcceptAll, []string{"AAPL", "INFY", "BTC"}},
		{"platform", OnPlatform("zerodha"), []string{"INFY"}},
		{"empty platform is Manual", OnPlatform(" Manual"), []string{"AAPL"}},
		{"asset", OnAsset(Asset{Symbol: "btc", Type: Crypto}), []string{"BTC"}},
		{"asset of another type", OnAsset(Asset{Symbol: "btc", Type: Stock}), nil},
		{"symbol", OnSymbol(" infy"), []string{"INFY"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, tr := range ledger.Trades(tt.filter) {
				got = append(got, tr.Asset.Symbol)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Trades() = %v, want %v", got, tt.want)
			}
		})
	}

	if got, want := ledger.Platforms(), []string{"Coinbase", "Manual", "Zerodha"}; !slices.Equal(got, want) {
		t.Errorf("Platforms() = %v, want %v", got, want)
	}
	if got, want := ledger.Currencies(), []string{"EUR", "USD"}; !slices.Equal(got, want) {
		t.Errorf("Currencies() = %v, want %v", got, want)
	}

	trades, err := ledger.LoadTrades(context.Background(), "Coinbase")
	if err != nil {
		t.Fatalf("LoadTrades() error = %v", err)
	}
	if len(trades) != 1 || trades[0].Asset.Symbol != "BTC" {
		t.Errorf("LoadTrades(Coinbase) = %v, want the BTC trade", trades)
	}
}

func TestLedger_Validate(t *testing.T) {
	ledger := NewLedger()
	ledger.Append(buy(0, "AAPL", 10, 100), sell(1, "AAPL", 4, 120), buy(5, "AAPL", 100, 120))

	t.Run("sell all", func(t *testing.T) {
		got, err := ledger.Validate(sell(2, "aapl", 0, 130), Options{})
		if err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if !got.Quantity.Equal(d(6)) {
			t.Errorf("Validate() quantity = %v, want 6", got.Quantity)
		}
		if got.Asset.Symbol != "AAPL" {
			t.Errorf("Validate() symbol = %q, want AAPL", got.Asset.Symbol)
		}
	})
	t.Run("sell all without position", func(t *testing.T) {
		if _, err := ledger.Validate(sell(2, "GOOG", 0, 130), Options{}); err == nil {
			t.Error("Validate() expected an error")
		}
	})
	t.Run("duplicate id", func(t *testing.T) {
		tr := buy(2, "GOOG", 1, 130)
		tr.ID = ledger.List()[0].ID
		if _, err := ledger.Validate(tr, Options{}); err == nil {
			t.Error("Validate() expected an error")
		}
	})
}
