package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/captrack/yahoo"
	"github.com/google/subcommands"
)

type searchCmd struct{}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "search asset symbols on Yahoo Finance" }
func (*searchCmd) Usage() string {
	return `ct search <search term>

  Searches Yahoo Finance for symbols matching the term, and prints them with
  a ready-to-use 'buy' command. Assets of a type ct does not track are listed
  as "other".
`
}

func (*searchCmd) SetFlags(f *flag.FlagSet) {}

func (*searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	term := strings.TrimSpace(strings.Join(f.Args(), " "))
	if term == "" {
		fmt.Fprintln(os.Stderr, "Error: a search term is required.")
		return subcommands.ExitUsageError
	}
	s, _, err := loadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading settings: %v\n", err)
		return subcommands.ExitFailure
	}
	client, _ := newMarket(s)
	results, err := client.Search(ctx, term)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error searching symbols: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderSearch(term, results))
	return subcommands.ExitSuccess
}

func renderSearch(term string, results []yahoo.SearchResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for '%s'.\n", term)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d results for '%s':\n\n", len(results), term)
	b.WriteString("| Symbol | Name | Type | Exchange | Command |\n")
	b.WriteString("|:---|:---|:---|:---|:---|\n")
	for _, r := range results {
		typ, command := "other", ""
		if r.Type != "" {
			typ = string(r.Type)
			command = fmt.Sprintf("`ct buy -s %s -t %s`", r.Symbol, r.Type)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", r.Symbol, strings.ReplaceAll(r.Name, "|", "/"), typ, r.Exchange, command)
	}
	return b.String()
}
