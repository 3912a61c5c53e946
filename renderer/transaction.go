package renderer

import (
	"fmt"

	"github.com/etnz/captrack"
)

// Transaction renders a trade to a sentence.
func Transaction(t captrack.Trade) string {
	price := captrack.M(t.Price, t.Currency)
	switch t.Side {
	case captrack.Buy:
		return fmt.Sprintf("Bought %s of %s at %s on %s", t.Quantity, t.Asset, price, t.PlatformName())
	case captrack.Sell:
		return fmt.Sprintf("Sold %s of %s at %s on %s", t.Quantity, t.Asset, price, t.PlatformName())
	default:
		return t.String()
	}
}
