package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type rmCmd struct{}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "remove a trade" }
func (*rmCmd) Usage() string {
	return `ct rm <id>

  Removes a trade from the store. Any unambiguous prefix of the trade id is accepted.
`
}

func (*rmCmd) SetFlags(f *flag.FlagSet) {}

func (*rmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: rm expects exactly one trade id")
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

	id, err := resolveID(ctx, store, f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := store.Remove(ctx, id); err != nil {
		fmt.Fprintf(os.Stderr, "Error removing trade: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "Removed trade %s\n", id)
	return subcommands.ExitSuccess
}
