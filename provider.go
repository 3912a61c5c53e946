package captrack

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the latest known market price of an asset.
type Quote struct {
	Symbol           string // provider symbol, see QuoteSymbol
	Name             string
	Price            decimal.Decimal
	Currency         string
	PreviousClose    decimal.NullDecimal
	DayChangePercent decimal.NullDecimal // 1.5 reads 1.5%
	Time             time.Time
}

// QuoteSource provides best-effort quotes: a failure for one asset does not
// prevent the others from being returned.
type QuoteSource interface {
	Quotes(ctx context.Context, assets []Asset) []Quote
}

// RateSource provides currency conversion factors. It reports false when
// the rate is not available.
type RateSource interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, bool)
}

// TradeSource provides the trades of a portfolio, all of them or only those
// made on a platform. No order is guaranteed.
type TradeSource interface {
	LoadTrades(ctx context.Context, platform string) ([]Trade, error)
}

// QuoteSymbol returns the market data symbol of an asset: the normalized
// symbol, and for crypto assets the pair against USD unless the symbol is
// already a pair.
func QuoteSymbol(a Asset) string {
	symbol := NormalizeSymbol(a.Symbol)
	if a.Type == Crypto && symbol != "" && !strings.Contains(symbol, "-") {
		return symbol + "-USD"
	}
	return symbol
}
