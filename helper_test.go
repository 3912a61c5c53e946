package captrack

import (
	"time"

	"github.com/shopspring/decimal"
)

// EUR is a helper for test to create euro money from const
func EUR(v float64) Money { return M(v, "EUR") }

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// NO is a helper for test to create money from const wit no currency set
func NO(v float64) Money { return M(v, "") }

// d is a helper for test to create decimal from const
func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// day returns a test timestamp n days after the first of January 2025.
func day(n int) time.Time { return time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC).AddDate(0, 0, n) }

// buy returns a fee-less stock purchase in USD.
func buy(n int, symbol string, qty, price float64) Trade {
	return Trade{
		OccurredAt: day(n),
		Asset:      Asset{Symbol: symbol, Type: Stock},
		Side:       Buy,
		Quantity:   d(qty),
		Price:      d(price),
		Currency:   "USD",
	}
}

// sell returns a fee-less stock sale in USD.
func sell(n int, symbol string, qty, price float64) Trade {
	t := buy(n, symbol, qty, price)
	t.Side = Sell
	return t
}

func withFees(t Trade, fees float64) Trade {
	t.Fees = decimal.NewNullDecimal(d(fees))
	return t
}

func withType(t Trade, typ AssetType) Trade {
	t.Asset.Type = typ
	return t
}

func withCurrency(t Trade, currency string) Trade {
	t.Currency = currency
	return t
}
