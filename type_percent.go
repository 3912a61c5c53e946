package captrack

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Percent is a percentage: 12.5 reads 12.5%.
type Percent float64

// ratio returns num/den as a Percent. It reports false when den is zero.
func ratio(num, den decimal.Decimal) (Percent, bool) {
	if den.IsZero() {
		return 0, false
	}
	f, _ := num.Div(den).Shift(2).Float64()
	return Percent(f), true
}

func (p Percent) Equal(q Percent) bool {
	// it has to be compared with some precision
	const precision = 0.0001
	diff := p - q
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", p)
}

func (p Percent) SignedString() string {
	res := fmt.Sprintf("%+.2f%%", p)
	if res == "+0.00%" {
		return "-"
	}
	return res
}
