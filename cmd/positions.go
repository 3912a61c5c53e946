package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/captrack"
	"github.com/etnz/captrack/renderer"
	"github.com/google/subcommands"
)

type positionsCmd struct {
	platform string
	sell     string
	audit    bool
	json     bool
}

func (*positionsCmd) Name() string     { return "positions" }
func (*positionsCmd) Synopsis() string { return "display the positions derived from the trades" }
func (*positionsCmd) Usage() string {
	return `ct positions [-platform <name>] [-sell clamp|allow_negative] [-audit] [-json]

  Derives the current position of every asset from the recorded trades using the
  average cost method: quantity held, average cost, cost basis and fees paid.
`
}

func (c *positionsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.platform, "platform", "", "Only consider trades made on this platform")
	f.StringVar(&c.sell, "sell", "", "Override the sell behavior of the settings: clamp or allow_negative")
	f.BoolVar(&c.audit, "audit", false, "Also list the trades that were skipped, with the reason why")
	f.BoolVar(&c.json, "json", false, "Print JSON instead of markdown")
}

func (c *positionsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, opts, err := loadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading settings: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.sell != "" {
		if opts.SellBehavior, err = captrack.ParseSellBehavior(c.sell); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
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

	report := &renderer.Positions{Platform: c.platform}
	if c.audit {
		report.Positions, report.Skipped = captrack.AuditPositions(trades, opts)
	} else {
		report.Positions = captrack.DerivePositions(trades, opts)
	}

	if c.json {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding positions: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	printMarkdown(renderer.RenderPositions(report))
	return subcommands.ExitSuccess
}
