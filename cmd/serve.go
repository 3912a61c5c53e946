package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/etnz/captrack/server"
	"github.com/google/subcommands"
)

type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve positions and holdings over HTTP" }
func (*serveCmd) Usage() string {
	return `ct serve [-addr <host:port>]

  Serves /positions, /holding and /trades as JSON (or markdown with ?format=md),
  /health and the Prometheus /metrics. Trades are read again on every request.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", server.DefaultConfig().Addr, "Address to listen on")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, opts, err := loadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading settings: %v\n", err)
		return subcommands.ExitFailure
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening the trade store: %v\n", err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	quotes, rates := newMarket(s)
	config := server.DefaultConfig()
	config.Addr = c.addr
	srv := server.New(config, server.Portfolio{
		Trades:       store,
		Quotes:       quotes,
		Rates:        rates,
		Options:      opts,
		BaseCurrency: s.BaseCurrency,
	})
	if err := srv.ListenAndServe(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
