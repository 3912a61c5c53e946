package cmd

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/etnz/captrack"
	"github.com/etnz/captrack/fx"
	"github.com/etnz/captrack/renderer"
	"github.com/etnz/captrack/yahoo"
	"github.com/google/subcommands"
)

// holdingCmd holds the flags for the 'holding' subcommand.
type holdingCmd struct {
	currency string
	platform string
}

func (*holdingCmd) Name() string     { return "holding" }
func (*holdingCmd) Synopsis() string { return "display the positions valued at the latest market prices" }
func (*holdingCmd) Usage() string {
	return `ct holding [-c <currency>] [-platform <name>]

  Values every open position with the latest quote and converts it to the base currency.
  Positions without a quote, or without an FX rate, are listed but left out of the totals.
`
}

func (c *holdingCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "c", "", "Base currency of the report, defaults to the settings base currency")
	f.StringVar(&c.platform, "platform", "", "Only consider trades made on this platform")
}

// newMarket returns the quote and rate sources configured by s.
func newMarket(s *captrack.Settings) (*yahoo.Client, *fx.Cache) {
	opts := []yahoo.Option{
		yahoo.WithRateLimit(s.Quotes.Rate, s.Quotes.Burst),
		yahoo.WithHTTPClient(&http.Client{Timeout: s.Quotes.Timeout}),
	}
	if s.Quotes.BaseURL != "" {
		opts = append(opts, yahoo.WithBaseURL(s.Quotes.BaseURL))
	}
	client := yahoo.New(opts...)
	return client, fx.NewCache(client, fx.WithTTL(s.FXTTL))
}

func (c *holdingCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, opts, err := loadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading settings: %v\n", err)
		return subcommands.ExitFailure
	}
	base := s.BaseCurrency
	if c.currency != "" {
		base = c.currency
	}
	if err := captrack.ValidateCurrency(base); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	store, err := openStore(ctx, s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening the trade store: %v\n", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	trades, err := store.LoadTrades(ctx, c.platform)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading trades: %v\n", err)
		return subcommands.ExitFailure
	}
	positions := captrack.DerivePositions(trades, opts)

	assets := make([]captrack.Asset, 0, len(positions))
	for _, p := range positions {
		assets = append(assets, p.Asset)
	}
	quotes, rates := newMarket(s)
	report := captrack.NewHoldingReport(ctx, positions, quotes.Quotes(ctx, assets), rates, base)

	printMarkdown(renderer.RenderHolding(report))
	return subcommands.ExitSuccess
}
