package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etnz/captrack"
	"github.com/etnz/captrack/renderer"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// tradeFlags are the flags shared by buy and sell.
type tradeFlags struct {
	date      string
	symbol    string
	assetType string
	quantity  float64
	price     float64
	fees      float64
	currency  string
	platform  string
	name      string
	notes     string
}

func (c *tradeFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", time.Now().Format(time.DateOnly), "Trade date (YYYY-MM-DD) or timestamp (RFC 3339)")
	f.StringVar(&c.symbol, "s", "", "Ticker symbol of the asset")
	f.StringVar(&c.assetType, "t", string(captrack.Stock), "Asset type: stock, etf, mutual_fund, crypto or cash")
	f.Float64Var(&c.quantity, "q", 0, "Quantity of units")
	f.Float64Var(&c.price, "p", 0, "Price per unit")
	f.Float64Var(&c.fees, "f", -1, "Fees paid for the trade, in the trade currency. Omit when unknown")
	f.StringVar(&c.currency, "c", "", "Currency of the price and fees, defaults to the base currency")
	f.StringVar(&c.platform, "platform", "", "Platform or broker the trade was made on")
	f.StringVar(&c.name, "n", "", "Display name of the asset")
	f.StringVar(&c.notes, "m", "", "Free text notes")
}

// trade builds the trade from the flags.
func (c *tradeFlags) trade(side captrack.Side, s *captrack.Settings) (captrack.Trade, error) {
	on, err := parseTime(c.date)
	if err != nil {
		return captrack.Trade{}, err
	}
	t := captrack.Trade{
		OccurredAt: on,
		Asset:      captrack.Asset{Symbol: c.symbol, Type: captrack.AssetType(c.assetType)},
		Name:       c.name,
		Side:       side,
		Quantity:   decimal.NewFromFloat(c.quantity),
		Price:      decimal.NewFromFloat(c.price),
		Currency:   c.currency,
		Platform:   c.platform,
		Source:     captrack.Manual,
		Notes:      c.notes,
	}
	if c.fees >= 0 {
		t.Fees = decimal.NewNullDecimal(decimal.NewFromFloat(c.fees))
	}
	if t.Currency == "" {
		t.Currency = s.BaseCurrency
	}
	return t, nil
}

// record validates and records the trade described by the flags.
func (c *tradeFlags) record(ctx context.Context, side captrack.Side) subcommands.ExitStatus {
	if c.symbol == "" {
		fmt.Fprintln(os.Stderr, "Error: -s is required")
		return subcommands.ExitUsageError
	}
	s, opts, err := loadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading settings: %v\n", err)
		return subcommands.ExitFailure
	}
	t, err := c.trade(side, s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	store, err := openStore(ctx, s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening the trade store: %v\n", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	t, err = store.Record(ctx, t, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error recording trade: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "%s (id %s)\n", renderer.Transaction(t), t.ID)
	return subcommands.ExitSuccess
}

type buyCmd struct{ tradeFlags }

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "record the purchase of an asset" }
func (*buyCmd) Usage() string {
	return `ct buy -s <symbol> -q <quantity> -p <price> [-t <type>] [-d <date>] [-f <fees>] [-c <currency>] [-platform <name>]

  Records a buy trade. The position of the asset is updated using the average cost method.
`
}

func (c *buyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.record(ctx, captrack.Buy)
}

type sellCmd struct{ tradeFlags }

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "record the sale of an asset" }
func (*sellCmd) Usage() string {
	return `ct sell -s <symbol> [-q <quantity>] -p <price> [-t <type>] [-d <date>] [-f <fees>] [-c <currency>] [-platform <name>]

  Records a sell trade. Without -q the whole position held at the trade date is sold.
  The average cost of the remaining units does not change.
`
}

func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.record(ctx, captrack.Sell)
}
