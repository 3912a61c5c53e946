package captrack

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"
)

// Options configures the position engine. The zero value is the default
// configuration: over-sells are clamped and absent fees count as zero.
type Options struct {
	SellBehavior SellBehavior
	DefaultFees  decimal.Decimal // used when a trade has no fees
}

// Position is the current holding of one asset, derived from its trades
// using the average-cost method.
type Position struct {
	Asset     Asset    `json:"asset"`     // symbol is normalized
	Currency  string   `json:"currency"`  // first currency seen for the asset, "" if none
	Quantity  Quantity `json:"quantity"`  // units currently held
	AvgCost   Money    `json:"avgCost"`   // CostBasis / Quantity, zero when nothing is held
	CostBasis Money    `json:"costBasis"` // cost attributed to the units currently held
	TotalFees Money    `json:"totalFees"` // fees paid on all trades, buys and sells
}

// SkipReason tells why a trade did not contribute to any position.
type SkipReason string

const (
	SkipEmptySymbol         SkipReason = "empty symbol"
	SkipNonPositiveQuantity SkipReason = "non-positive quantity"
	SkipNegativePrice       SkipReason = "negative price"
	SkipUnknownSide         SkipReason = "unknown side"
)

// SkippedTrade is a trade ignored by the engine, with the reason why.
type SkippedTrade struct {
	Trade  Trade      `json:"trade"`
	Reason SkipReason `json:"reason"`
}

// accumulator is the mutable state of a position during the fold.
type accumulator struct {
	asset     Asset
	currency  string
	quantity  decimal.Decimal
	costBasis decimal.Decimal
	fees      decimal.Decimal
}

func (a *accumulator) avgCost() decimal.Decimal {
	if !a.quantity.IsPositive() {
		return decimal.Zero
	}
	return a.costBasis.Div(a.quantity)
}

func (a *accumulator) flat() bool {
	return a.quantity.IsZero() && a.costBasis.IsZero() && a.fees.IsZero()
}

func (a *accumulator) position() Position {
	return Position{
		Asset:     a.asset,
		Currency:  a.currency,
		Quantity:  Q(a.quantity),
		AvgCost:   M(a.avgCost(), a.currency),
		CostBasis: M(a.costBasis, a.currency),
		TotalFees: M(a.fees, a.currency),
	}
}

// buy adds qty units at price plus fees to the held lot.
func (a *accumulator) buy(qty, price, fees decimal.Decimal) {
	a.quantity = a.quantity.Add(qty)
	a.costBasis = a.costBasis.Add(qty.Mul(price)).Add(fees)
	a.fees = a.fees.Add(fees)
}

// sell removes units at the average cost before the sale. Fees are only
// accumulated, they do not change the cost basis.
func (a *accumulator) sell(qty, fees decimal.Decimal, behavior SellBehavior) {
	sellQty := qty
	if behavior != AllowNegative {
		sellQty = decimal.Min(qty, decimal.Max(decimal.Zero, a.quantity))
	}
	if a.quantity.IsPositive() {
		// sellQty * avgCost, with the division last.
		a.costBasis = a.costBasis.Sub(a.costBasis.Mul(sellQty).Div(a.quantity))
	}
	a.quantity = a.quantity.Sub(sellQty)
	if a.costBasis.IsNegative() {
		a.costBasis = decimal.Zero
	}
	a.fees = a.fees.Add(fees)
	if a.quantity.IsNegative() {
		a.costBasis = decimal.Zero
	}
}

// check returns why the engine must skip t, or "" when t is usable.
func check(t Trade) SkipReason {
	switch {
	case NormalizeSymbol(t.Asset.Symbol) == "":
		return SkipEmptySymbol
	case !t.Quantity.IsPositive():
		return SkipNonPositiveQuantity
	case t.Price.IsNegative():
		return SkipNegativePrice
	case t.Side != Buy && t.Side != Sell:
		return SkipUnknownSide
	}
	return ""
}

// DerivePositions folds trades into the current positions using the
// average-cost method.
//
// Trades are processed in chronological order whatever their order in the
// input slice; trades with the same OccurredAt keep their relative input
// order. Trades with an empty symbol, a non-positive quantity, a negative
// price or an unknown side are silently skipped, use AuditPositions to list
// them.
//
// Positions that are fully flat (no quantity, no cost basis, no fees) are
// omitted. The result is sorted by asset type then symbol.
//
// DerivePositions has no side effects: the same input always yields the same
// output.
func DerivePositions(trades []Trade, opts Options) []Position {
	positions, _ := derive(trades, opts, false)
	return positions
}

// AuditPositions is DerivePositions that also returns the skipped trades, in
// processing order.
func AuditPositions(trades []Trade, opts Options) ([]Position, []SkippedTrade) {
	return derive(trades, opts, true)
}

func derive(trades []Trade, opts Options, audit bool) ([]Position, []SkippedTrade) {
	sorted := slices.Clone(trades)
	slices.SortStableFunc(sorted, func(a, b Trade) int {
		return a.OccurredAt.Compare(b.OccurredAt)
	})

	var skipped []SkippedTrade
	accumulators := make(map[string]*accumulator)
	for _, t := range sorted {
		if reason := check(t); reason != "" {
			if audit {
				skipped = append(skipped, SkippedTrade{Trade: t, Reason: reason})
			}
			continue
		}

		asset := Asset{Symbol: NormalizeSymbol(t.Asset.Symbol), Type: t.Asset.Type}
		acc, ok := accumulators[asset.Key()]
		if !ok {
			acc = &accumulator{asset: asset}
			accumulators[asset.Key()] = acc
		}
		if acc.currency == "" && t.Currency != "" {
			acc.currency = t.Currency
		}

		fees := opts.DefaultFees
		if t.Fees.Valid {
			fees = t.Fees.Decimal
		}

		switch t.Side {
		case Buy:
			acc.buy(t.Quantity, t.Price, fees)
		case Sell:
			acc.sell(t.Quantity, fees, opts.SellBehavior)
		}
	}

	positions := make([]Position, 0, len(accumulators))
	for _, acc := range accumulators {
		if acc.flat() {
			continue
		}
		positions = append(positions, acc.position())
	}
	slices.SortFunc(positions, func(a, b Position) int {
		return cmp.Or(
			cmp.Compare(a.Asset.Type, b.Asset.Type),
			cmp.Compare(a.Asset.Symbol, b.Asset.Symbol),
		)
	})
	return positions, skipped
}

// FindPosition returns the position of asset, matching on its normalized key.
func FindPosition(positions []Position, asset Asset) (Position, bool) {
	key := asset.Key()
	for _, p := range positions {
		if p.Asset.Key() == key {
			return p, true
		}
	}
	return Position{}, false
}
