package captrack

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Ledger represents a list of trades.
//
// In a Ledger trades are always in chronological order. Trades at the same
// instant keep the order in which they were appended.
type Ledger struct {
	trades []Trade
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		trades: make([]Trade, 0),
	}
}

// Len returns the number of trades in the ledger.
func (l *Ledger) Len() int { return len(l.trades) }

// Append appends trades to this ledger and maintains the chronological order
// of trades. Trades without an ID get a new one.
func (l *Ledger) Append(trades ...Trade) {
	for _, t := range trades {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		l.trades = append(l.trades, t)
	}
	l.stableSort()
}

// Validate checks t against the trade rules and the ledger content, and
// applies quick fixes where applicable. A sell with a zero quantity is a
// "sell all": its quantity becomes the position held at the trade date.
func (l *Ledger) Validate(t Trade, opts Options) (Trade, error) {
	if t.Side == Sell && t.Quantity.IsZero() {
		before := l.List(func(o Trade) bool { return !o.OccurredAt.After(t.OccurredAt) })
		if pos, ok := FindPosition(DerivePositions(before, opts), t.Asset); ok && pos.Quantity.IsPositive() {
			t.Quantity = pos.Quantity.Decimal()
		}
	}
	if t.ID != "" {
		if _, ok := l.index(t.ID); ok {
			return t, fmt.Errorf("trade %q already exists", t.ID)
		}
	}
	return t.Validate()
}

func (l *Ledger) index(id string) (int, bool) {
	i := slices.IndexFunc(l.trades, func(t Trade) bool { return t.ID == id })
	return i, i >= 0
}

// Get returns the trade with this id.
func (l *Ledger) Get(id string) (Trade, bool) {
	i, ok := l.index(id)
	if !ok {
		return Trade{}, false
	}
	return l.trades[i], true
}

// Replace replaces the trade with this id by t. The new trade keeps the id.
func (l *Ledger) Replace(id string, t Trade) error {
	i, ok := l.index(id)
	if !ok {
		return fmt.Errorf("no trade with id %q", id)
	}
	t.ID = id
	l.trades[i] = t
	l.stableSort()
	return nil
}

// Delete removes the trade with this id.
func (l *Ledger) Delete(id string) error {
	i, ok := l.index(id)
	if !ok {
		return fmt.Errorf("no trade with id %q", id)
	}
	l.trades = slices.Delete(l.trades, i, i+1)
	return nil
}

// Trades returns an iterator over the trades accepted by all filters, in
// chronological order.
func (l *Ledger) Trades(filters ...func(Trade) bool) iter.Seq2[int, Trade] {
	return func(yield func(int, Trade) bool) {
	next:
		for i, t := range l.trades {
			for _, filter := range filters {
				if !filter(t) {
					continue next
				}
			}
			if !yield(i, t) {
				return
			}
		}
	}
}

// List returns a copy of the trades accepted by all filters.
func (l *Ledger) List(filters ...func(Trade) bool) []Trade {
	res := make([]Trade, 0, len(l.trades))
	for _, t := range l.Trades(filters...) {
		res = append(res, t)
	}
	return res
}

// LoadTrades returns the trades on platform, or all of them when platform
// is empty.
func (l *Ledger) LoadTrades(ctx context.Context, platform string) ([]Trade, error) {
	if platform == "" {
		return l.List(), nil
	}
	return l.List(OnPlatform(platform)), nil
}

// Platforms returns the sorted list of platforms used in the ledger.
func (l *Ledger) Platforms() []string {
	return l.distinct(Trade.PlatformName)
}

// Currencies returns the sorted list of currencies used in the ledger.
func (l *Ledger) Currencies() []string {
	return l.distinct(func(t Trade) string { return t.Currency })
}

func (l *Ledger) distinct(field func(Trade) string) []string {
	seen := make(map[string]struct{})
	res := make([]string, 0)
	for _, t := range l.trades {
		v := field(t)
		if _, exists := seen[v]; v == "" || exists {
			continue
		}
		seen[v] = struct{}{}
		res = append(res, v)
	}
	slices.Sort(res)
	return res
}

// stableSort sorts the ledger by trade time. The sort is stable, meaning
// trades at the same instant maintain their original relative order.
func (l *Ledger) stableSort() {
	sort.SliceStable(l.trades, func(i, j int) bool {
		return l.trades[i].OccurredAt.Before(l.trades[j].OccurredAt)
	})
}

// AcceptAll is a filter that accepts every trade.
func AcceptAll(Trade) bool { return true }

// OnPlatform is a filter that accepts trades made on platform, compared case
// insensitively. Trades without a platform are on DefaultPlatform.
func OnPlatform(platform string) func(Trade) bool {
	platform = strings.TrimSpace(platform)
	return func(t Trade) bool { return strings.EqualFold(t.PlatformName(), platform) }
}

// OnAsset is a filter that accepts trades of asset.
func OnAsset(asset Asset) func(Trade) bool {
	key := asset.Key()
	return func(t Trade) bool { return t.Asset.Key() == key }
}

// OnSymbol is a filter that accepts trades of symbol, whatever the asset type.
func OnSymbol(symbol string) func(Trade) bool {
	symbol = NormalizeSymbol(symbol)
	return func(t Trade) bool { return NormalizeSymbol(t.Asset.Symbol) == symbol }
}
