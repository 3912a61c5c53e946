package captrack

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// MaxPlatformLength is the longest platform name accepted on a trade.
const MaxPlatformLength = 64

// Validate checks a trade before it is recorded and applies quick fixes
// where applicable (normalized symbol and currency, default platform and
// source). It returns the fixed trade, or an error joining all the
// validation failures.
//
// The position engine does not require validated trades: it skips what it
// cannot use.
func (t Trade) Validate() (Trade, error) {
	var errs []error

	t.Asset.Symbol = NormalizeSymbol(t.Asset.Symbol)
	if t.Asset.Symbol == "" {
		errs = append(errs, errors.New("symbol is required"))
	}
	if !slices.Contains(AssetTypes, t.Asset.Type) {
		errs = append(errs, fmt.Errorf("unknown asset type %q", t.Asset.Type))
	}
	if t.OccurredAt.IsZero() {
		errs = append(errs, errors.New("trade date is required"))
	}
	if t.Side != Buy && t.Side != Sell {
		errs = append(errs, fmt.Errorf("side must be %s or %s, got %q", Buy, Sell, t.Side))
	}
	if !t.Quantity.IsPositive() {
		errs = append(errs, fmt.Errorf("quantity must be positive, got %s", t.Quantity))
	}
	if t.Price.IsNegative() {
		errs = append(errs, fmt.Errorf("price must not be negative, got %s", t.Price))
	}
	if t.Fees.Valid && t.Fees.Decimal.IsNegative() {
		errs = append(errs, fmt.Errorf("fees must not be negative, got %s", t.Fees.Decimal))
	}

	t.Currency = strings.ToUpper(strings.TrimSpace(t.Currency))
	if err := ValidateCurrency(t.Currency); err != nil {
		errs = append(errs, err)
	}

	t.Platform = t.PlatformName()
	if n := utf8.RuneCountInString(t.Platform); n > MaxPlatformLength {
		errs = append(errs, fmt.Errorf("platform name is %d characters long, max is %d", n, MaxPlatformLength))
	}

	if t.Source == "" {
		t.Source = Manual
	}
	switch t.Source {
	case Manual, Import, Adjustment:
	default:
		errs = append(errs, fmt.Errorf("unknown trade source %q", t.Source))
	}

	t.Name = strings.TrimSpace(t.Name)
	t.Notes = strings.TrimSpace(t.Notes)

	if err := errors.Join(errs...); err != nil {
		return t, fmt.Errorf("invalid %s trade of %s: %w", strings.ToLower(string(t.Side)), t.Asset.Symbol, err)
	}
	return t, nil
}
