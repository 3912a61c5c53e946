package captrack

import (
	"context"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// HoldingReport is the valuation of positions against live quotes, with
// totals in a base currency.
//
// Missing quotes or FX rates never make the report fail: the affected
// values are left unset and the report tells what is missing.
type HoldingReport struct {
	BaseCurrency string        `json:"baseCurrency"`
	Holdings     []Holding     `json:"holdings"`
	Totals       HoldingTotals `json:"totals"`

	// MixedCurrencies is true when holdings are valued in more than one
	// currency.
	MixedCurrencies bool `json:"mixedCurrencies"`
	// FXReady is false when a holding could not be converted into the base
	// currency: totals are then incomplete.
	FXReady       bool     `json:"fxReady"`
	MissingQuotes []string `json:"missingQuotes,omitempty"` // quote symbols without a quote
	MissingRates  []string `json:"missingRates,omitempty"`  // currencies without a rate to the base currency
}

// Holding is a position valued at its live price.
type Holding struct {
	Position
	Symbol       string `json:"symbol"`       // quote symbol
	Name         string `json:"name"`         // from the quote
	LiveCurrency string `json:"liveCurrency"` // quote currency, else the position currency

	Priced      bool  `json:"priced"` // a quote is available
	Price       Money `json:"price"`
	MarketValue Money `json:"marketValue"`
	Unrealized  Money `json:"unrealized"`
	// UnrealizedPercent is Unrealized/CostBasis, nil without a price or a cost
	// basis.
	UnrealizedPercent *Percent `json:"unrealizedPercent"`

	HasPreviousClose   bool     `json:"hasPreviousClose"`
	PreviousClose      Money    `json:"previousClose"`
	PreviousCloseValue Money    `json:"previousCloseValue"`
	DayPnL             Money    `json:"dayPnL"`    // (Price - PreviousClose) * Quantity
	DayChange          *Percent `json:"dayChange"` // nil when unknown

	// Converted is true when a conversion factor to the base currency is
	// known, the *Base values are then set.
	Converted              bool            `json:"converted"`
	Factor                 decimal.Decimal `json:"factor"`
	CostBasisBase          Money           `json:"costBasisBase"`
	MarketValueBase        Money           `json:"marketValueBase"`
	UnrealizedBase         Money           `json:"unrealizedBase"`
	DayPnLBase             Money           `json:"dayPnLBase"`
	PreviousCloseValueBase Money           `json:"previousCloseValueBase"`
}

// HoldingTotals sums the holdings converted into the base currency.
type HoldingTotals struct {
	MarketValue        Money   `json:"marketValue"`
	CostBasis          Money   `json:"costBasis"`
	Unrealized         Money   `json:"unrealized"`
	Return             Percent `json:"return"` // Unrealized / CostBasis
	DayPnL             Money   `json:"dayPnL"`
	PreviousCloseValue Money   `json:"previousCloseValue"`
	DayChange          Percent `json:"dayChange"` // DayPnL / PreviousCloseValue
}

// NewHoldingReport values positions with quotes, matched on QuoteSymbol, and
// converts them into base using rates. rates can be nil when no conversion
// is possible.
func NewHoldingReport(ctx context.Context, positions []Position, quotes []Quote, rates RateSource, base string) *HoldingReport {
	base = strings.ToUpper(base)
	r := &HoldingReport{
		BaseCurrency: base,
		Holdings:     make([]Holding, 0, len(positions)),
	}

	bySymbol := make(map[string]Quote, len(quotes))
	for _, q := range quotes {
		bySymbol[strings.ToUpper(q.Symbol)] = q
	}

	factors := make(map[string]decimal.Decimal)
	factor := func(cur string) (decimal.Decimal, bool) {
		if cur == "" || cur == base {
			return decimal.NewFromInt(1), true
		}
		if f, ok := factors[cur]; ok {
			return f, true
		}
		if slices.Contains(r.MissingRates, cur) || rates == nil {
			r.addMissingRate(cur)
			return decimal.Zero, false
		}
		f, ok := rates.Rate(ctx, cur, base)
		if !ok || !f.IsPositive() {
			r.addMissingRate(cur)
			return decimal.Zero, false
		}
		factors[cur] = f
		return f, true
	}

	var (
		marketValue, costBasis, unrealized decimal.Decimal
		dayPnL, prevCloseValue             decimal.Decimal
		currencies                         []string
	)
	for _, p := range positions {
		h := Holding{Position: p, Symbol: QuoteSymbol(p.Asset)}
		q, priced := bySymbol[h.Symbol]
		if !priced {
			r.MissingQuotes = append(r.MissingQuotes, h.Symbol)
		}
		h.LiveCurrency = strings.ToUpper(p.Currency)
		if priced && q.Currency != "" {
			h.LiveCurrency = strings.ToUpper(q.Currency)
		}
		if h.LiveCurrency != "" && !slices.Contains(currencies, h.LiveCurrency) {
			currencies = append(currencies, h.LiveCurrency)
		}

		qty := p.Quantity.Decimal()
		cb := p.CostBasis.Decimal()
		var mv, unr, pnl, pcv decimal.Decimal
		if priced {
			mv = qty.Mul(q.Price)
			unr = mv.Sub(cb)
			h.Priced = true
			h.Name = q.Name
			h.Price = M(q.Price, h.LiveCurrency)
			h.MarketValue = M(mv, h.LiveCurrency)
			h.Unrealized = M(unr, h.LiveCurrency)
			if pct, ok := ratio(unr, cb); ok {
				h.UnrealizedPercent = &pct
			}
			if q.PreviousClose.Valid {
				prev := q.PreviousClose.Decimal
				pnl = q.Price.Sub(prev).Mul(qty)
				pcv = prev.Mul(qty)
				h.HasPreviousClose = true
				h.PreviousClose = M(prev, h.LiveCurrency)
				h.PreviousCloseValue = M(pcv, h.LiveCurrency)
				h.DayPnL = M(pnl, h.LiveCurrency)
			}
			switch {
			case q.DayChangePercent.Valid:
				f, _ := q.DayChangePercent.Decimal.Float64()
				pct := Percent(f)
				h.DayChange = &pct
			case q.PreviousClose.Valid:
				if pct, ok := ratio(q.Price.Sub(q.PreviousClose.Decimal), q.PreviousClose.Decimal); ok {
					h.DayChange = &pct
				}
			}
		}

		if f, ok := factor(h.LiveCurrency); ok {
			h.Converted = true
			h.Factor = f
			h.CostBasisBase = M(cb.Mul(f), base)
			costBasis = costBasis.Add(cb.Mul(f))
			if priced {
				h.MarketValueBase = M(mv.Mul(f), base)
				h.UnrealizedBase = M(unr.Mul(f), base)
				marketValue = marketValue.Add(mv.Mul(f))
				unrealized = unrealized.Add(unr.Mul(f))
			}
			if h.HasPreviousClose {
				h.DayPnLBase = M(pnl.Mul(f), base)
				h.PreviousCloseValueBase = M(pcv.Mul(f), base)
				dayPnL = dayPnL.Add(pnl.Mul(f))
				prevCloseValue = prevCloseValue.Add(pcv.Mul(f))
			}
		}
		r.Holdings = append(r.Holdings, h)
	}

	r.Totals = HoldingTotals{
		MarketValue:        M(marketValue, base),
		CostBasis:          M(costBasis, base),
		Unrealized:         M(unrealized, base),
		DayPnL:             M(dayPnL, base),
		PreviousCloseValue: M(prevCloseValue, base),
	}
	r.Totals.Return, _ = ratio(unrealized, costBasis)
	r.Totals.DayChange, _ = ratio(dayPnL, prevCloseValue)
	r.MixedCurrencies = len(currencies) > 1
	r.FXReady = len(r.MissingRates) == 0
	return r
}

func (r *HoldingReport) addMissingRate(cur string) {
	if !slices.Contains(r.MissingRates, cur) {
		r.MissingRates = append(r.MissingRates, cur)
	}
}
