package captrack

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AssetType classifies an asset. The set of values is open: the position
// engine keys on it verbatim, validation only accepts the known ones.
type AssetType string

const (
	Stock      AssetType = "stock"
	ETF        AssetType = "etf"
	MutualFund AssetType = "mutual_fund"
	Crypto     AssetType = "crypto"
	Cash       AssetType = "cash"
)

// AssetTypes lists the known asset types, in display order.
var AssetTypes = []AssetType{Stock, ETF, MutualFund, Crypto, Cash}

// Asset identifies what is traded. Two assets are the same when they have the
// same type and the same symbol once trimmed and upper cased.
type Asset struct {
	Symbol string    `json:"symbol"`
	Type   AssetType `json:"type"`
}

// NormalizeSymbol trims and upper cases a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Key returns the identity key of the asset: "type::SYMBOL".
func (a Asset) Key() string {
	return string(a.Type) + "::" + NormalizeSymbol(a.Symbol)
}

func (a Asset) String() string {
	return NormalizeSymbol(a.Symbol) + " (" + string(a.Type) + ")"
}

// Side is the direction of a trade.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// ParseSide parses a trade side, case insensitively.
func ParseSide(s string) (Side, error) {
	switch side := Side(strings.ToUpper(strings.TrimSpace(s))); side {
	case Buy, Sell:
		return side, nil
	default:
		return "", fmt.Errorf("unknown trade side: %q", s)
	}
}

// Source tells where a trade record comes from.
type Source string

const (
	Manual     Source = "manual"
	Import     Source = "import"
	Adjustment Source = "adjustment"
)

// DefaultPlatform is the platform of trades recorded without one.
const DefaultPlatform = "Manual"

// Trade is a single buy or sell of an asset. It is an immutable fact: the
// positions are entirely derived from the list of trades.
type Trade struct {
	ID         string
	OccurredAt time.Time
	Asset      Asset
	Name       string // display name of the asset, optional
	Side       Side
	Quantity   decimal.Decimal
	Price      decimal.Decimal // per unit
	Fees       decimal.NullDecimal
	Currency   string
	Platform   string
	Source     Source
	Notes      string
}

// PlatformName returns the trade's platform, DefaultPlatform when empty.
func (t Trade) PlatformName() string {
	if p := strings.TrimSpace(t.Platform); p != "" {
		return p
	}
	return DefaultPlatform
}

// Amount returns quantity times price in the trade currency, fees excluded.
func (t Trade) Amount() Money {
	return M(t.Quantity.Mul(t.Price), t.Currency)
}

func (t Trade) String() string {
	return fmt.Sprintf("%s %s %s %s @ %s", t.OccurredAt.Format(time.DateOnly), t.Side, t.Quantity, t.Asset, M(t.Price, t.Currency))
}

// MarshalJSON writes the trade with a stable field order.
func (t Trade) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Optional("id", t.ID)
	w.Append("occurredAt", t.OccurredAt.Format(time.RFC3339))
	w.Append("side", t.Side)
	w.Append("symbol", t.Asset.Symbol)
	w.Append("type", t.Asset.Type)
	w.Optional("name", t.Name)
	w.Append("quantity", t.Quantity)
	w.Append("price", t.Price)
	w.Optional("fees", t.Fees)
	w.Optional("currency", t.Currency)
	w.Optional("platform", t.Platform)
	w.Optional("source", t.Source)
	w.Optional("notes", t.Notes)
	return w.MarshalJSON()
}

func (t *Trade) UnmarshalJSON(data []byte) error {
	var temp struct {
		ID         string              `json:"id"`
		OccurredAt time.Time           `json:"occurredAt"`
		Side       string              `json:"side"`
		Symbol     string              `json:"symbol"`
		Type       AssetType           `json:"type"`
		Name       string              `json:"name"`
		Quantity   decimal.Decimal     `json:"quantity"`
		Price      decimal.Decimal     `json:"price"`
		Fees       decimal.NullDecimal `json:"fees"`
		Currency   string              `json:"currency"`
		Platform   string              `json:"platform"`
		Source     Source              `json:"source"`
		Notes      string              `json:"notes"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	// an unknown side is kept as written, the engine skips it.
	*t = Trade{
		ID:         temp.ID,
		OccurredAt: temp.OccurredAt,
		Asset:      Asset{Symbol: temp.Symbol, Type: temp.Type},
		Name:       temp.Name,
		Side:       Side(strings.ToUpper(strings.TrimSpace(temp.Side))),
		Quantity:   temp.Quantity,
		Price:      temp.Price,
		Fees:       temp.Fees,
		Currency:   temp.Currency,
		Platform:   temp.Platform,
		Source:     temp.Source,
		Notes:      temp.Notes,
	}
	return nil
}
