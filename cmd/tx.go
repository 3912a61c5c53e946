package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/captrack"
	"github.com/etnz/captrack/renderer"
	"github.com/google/subcommands"
)

type txCmd struct {
	platform string
	symbol   string
	head     int
	tail     int
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list the recorded trades" }
func (*txCmd) Usage() string {
	return `ct tx [-platform <name>] [-s <symbol>] [-head <n>] [-tail <n>]

  Lists trades in chronological order, with options for filtering and limiting the output.
`
}

func (p *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.platform, "platform", "", "Only list trades made on this platform.")
	f.StringVar(&p.symbol, "s", "", "Only list trades of this symbol.")
	f.IntVar(&p.head, "head", 0, "Show only the first N trades.")
	f.IntVar(&p.tail, "tail", 0, "Show only the last N trades.")
}

func (p *txCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.head > 0 && p.tail > 0 {
		fmt.Fprintln(os.Stderr, "Error: -head and -tail flags cannot be used together.")
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

	trades, err := store.LoadTrades(ctx, p.platform)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading trades: %v\n", err)
		return subcommands.ExitFailure
	}
	// the store does not guarantee any order.
	ledger := captrack.NewLedger()
	ledger.Append(trades...)
	filter := captrack.AcceptAll
	if p.symbol != "" {
		filter = captrack.OnSymbol(p.symbol)
	}
	trades = ledger.List(filter)

	if p.head > 0 && len(trades) > p.head {
		trades = trades[:p.head]
	}
	if p.tail > 0 && len(trades) > p.tail {
		trades = trades[len(trades)-p.tail:]
	}

	printMarkdown(renderer.RenderTrades(trades))
	return subcommands.ExitSuccess
}
