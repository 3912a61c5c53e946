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

type editCmd struct {
	tradeFlags
	side string
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "change a recorded trade" }
func (*editCmd) Usage() string {
	return `ct edit [-side BUY|SELL] [-d <date>] [-s <symbol>] [-t <type>] [-q <quantity>] [-p <price>] [-f <fees>] [-c <currency>] [-platform <name>] [-n <name>] [-m <notes>] <id>

  Changes the fields given as flags of the trade with this id, any unambiguous
  prefix of the id is accepted. The other fields are kept. -f -1 removes the fees.
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) {
	c.tradeFlags.SetFlags(f)
	f.StringVar(&c.side, "side", "", "Side of the trade: BUY or SELL")
}

// overlay sets on t the fields of the flags explicitly set in f.
func (c *editCmd) overlay(t captrack.Trade, f *flag.FlagSet) (captrack.Trade, error) {
	var err error
	f.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "side":
			var side captrack.Side
			if side, err = captrack.ParseSide(c.side); err == nil {
				t.Side = side
			}
		case "d":
			var on time.Time
			if on, err = parseTime(c.date); err == nil {
				t.OccurredAt = on
			}
		case "s":
			t.Asset.Symbol = c.symbol
		case "t":
			t.Asset.Type = captrack.AssetType(c.assetType)
		case "q":
			t.Quantity = decimal.NewFromFloat(c.quantity)
		case "p":
			t.Price = decimal.NewFromFloat(c.price)
		case "f":
			t.Fees = decimal.NullDecimal{}
			if c.fees >= 0 {
				t.Fees = decimal.NewNullDecimal(decimal.NewFromFloat(c.fees))
			}
		case "c":
			t.Currency = c.currency
		case "platform":
			t.Platform = c.platform
		case "n":
			t.Name = c.name
		case "m":
			t.Notes = c.notes
		}
	})
	return t, err
}

func (c *editCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: edit expects exactly one trade id")
		return subcommands.ExitUsageError
	}
	s, _, err := loadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading settings: %v\n", err)
		return subcommands.ExitFailure
	}
	store, err := openStore(ctx, s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening the trade store: %v\n", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	trades, err := store.LoadTrades(ctx, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading trades: %v\n", err)
		return subcommands.ExitFailure
	}
	ledger := captrack.NewLedger()
	ledger.Append(trades...)
	id, err := resolveID(ctx, ledger, f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	t, _ := ledger.Get(id)

	t, err = c.overlay(t, f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	t, err = store.Update(ctx, t)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error updating trade: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "%s (id %s)\n", renderer.Transaction(t), t.ID)
	return subcommands.ExitSuccess
}
