package agent

import (
	"fmt"
	"slices"
	"strings"

	"github.com/etnz/captrack"
)

// Portfolio is what the assistant knows about the user's portfolio before
// calling any function.
type Portfolio struct {
	BaseCurrency string
	SellBehavior captrack.SellBehavior
	Platforms    []string // traded on, in order of first trade
	Symbols      []string // traded, sorted
	Trades       int
}

// NewPortfolio summarizes the settings and the recorded trades.
func NewPortfolio(s *captrack.Settings, opts captrack.Options, trades []captrack.Trade) Portfolio {
	p := Portfolio{
		BaseCurrency: s.BaseCurrency,
		SellBehavior: opts.SellBehavior,
		Trades:       len(trades),
	}
	if len(trades) == 0 {
		return p
	}
	for _, t := range trades {
		p.Platforms = append(p.Platforms, t.PlatformName())
		if symbol := captrack.NormalizeSymbol(t.Asset.Symbol); symbol != "" {
			p.Symbols = append(p.Symbols, symbol)
		}
	}
	p.Platforms = captrack.NormalizePlatforms(p.Platforms)
	slices.Sort(p.Symbols)
	p.Symbols = slices.Compact(p.Symbols)
	return p
}

// Welcome is the greeting of an assist session.
func (p Portfolio) Welcome() string {
	welcome := "Welcome to ct assist. Type 'bye' to exit.\n"
	if p.Trades == 0 {
		return welcome + "No trades recorded yet, ask how to record your first one.\n"
	}
	return welcome + fmt.Sprintf("%s of %s on %s, reported in %s.\n",
		plural(p.Trades, "trade"), plural(len(p.Symbols), "asset"), strings.Join(p.Platforms, ", "), p.BaseCurrency)
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// instructions describe the portfolio to the facilitator.
func (p Portfolio) instructions() string {
	var b strings.Builder
	b.WriteString(`
As a facilitator you are in charge of the conversation and solving the user's request.

Learn about the expert's skill that you can get from the Tools to ask them questions.
They are at your service and keep context of your previous questions.

The user is here to understand the positions of their portfolio: what they hold,
at what average cost, and how it performs.

Devise a plan of questions to ask to each expert and come up with the best response to the user's request.
`)
	fmt.Fprintf(&b, "\nThe portfolio reports values in %s.\n", p.BaseCurrency)
	if p.Trades == 0 {
		b.WriteString("No trades are recorded yet. Explain how to record trades with 'ct buy' and 'ct sell' when asked about positions.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "It has %d trades of %s.\n", p.Trades, strings.Join(p.Symbols, ", "))
	fmt.Fprintf(&b, "Trades are made on these platforms: %s.\n", strings.Join(p.Platforms, ", "))
	switch p.SellBehavior {
	case captrack.AllowNegative:
		b.WriteString("Sells larger than the holding are applied in full, positions can be negative.\n")
	default:
		b.WriteString("Sells larger than the holding are limited to the quantity held, positions are never negative.\n")
	}
	b.WriteString("The user will assume that you know about their symbols, check the positions first.\n")
	return b.String()
}
