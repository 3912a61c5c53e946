// Package cmd implements the CLI application to track positions.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/captrack"
	"github.com/etnz/captrack/store/postgres"
	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	ledgerFile   = flag.String("ledger-file", "trades.jsonl", "Path to the ledger file containing trades (JSONL format)")
	settingsFile = flag.String("settings", "captrack.yaml", "Path to the settings file (YAML format)")
	// Verbose enables debug logs.
	Verbose = flag.Bool("v", false, "Verbose logs")
	// Plain disables the terminal markdown rendering.
	Plain = flag.Bool("plain", false, "Print raw markdown")

	stdout io.Writer = os.Stdout
)

// Commands is the list of commands of the application, by group.
var Commands = []struct {
	Command subcommands.Command
	Group   string
}{
	{&buyCmd{}, "trades"},
	{&sellCmd{}, "trades"},
	{&editCmd{}, "trades"},
	{&rmCmd{}, "trades"},
	{&txCmd{}, "trades"},
	{&positionsCmd{}, "reports"},
	{&holdingCmd{}, "reports"},
	{&searchCmd{}, "reports"},
	{&serveCmd{}, "services"},
	{&assistCmd{}, "services"},
	{&topicCmd{}, "help"},
}

// Register the subcommands.
func Register(c *subcommands.Commander) {
	for _, cmd := range Commands {
		c.Register(cmd.Command, cmd.Group)
	}
}

// loadSettings reads the settings file, defaults when missing.
func loadSettings() (*captrack.Settings, captrack.Options, error) {
	s, err := captrack.LoadSettings(*settingsFile)
	if err != nil {
		return nil, captrack.Options{}, err
	}
	opts, err := s.Options()
	if err != nil {
		return nil, captrack.Options{}, err
	}
	return s, opts, nil
}

// tradeStore is where trades are recorded.
type tradeStore interface {
	captrack.TradeSource
	// Record validates and stores t, it returns the stored trade.
	Record(ctx context.Context, t captrack.Trade, opts captrack.Options) (captrack.Trade, error)
	// Update validates and stores t in place of the trade with the same id.
	Update(ctx context.Context, t captrack.Trade) (captrack.Trade, error)
	// Remove deletes the trade with this id.
	Remove(ctx context.Context, id string) error
	Close() error
}

// openStore returns the Postgres store when a DSN is configured, the ledger
// file otherwise.
func openStore(ctx context.Context, s *captrack.Settings) (tradeStore, error) {
	if s.Database.DSN == "" {
		return fileStore{captrack.LedgerFile(*ledgerFile)}, nil
	}
	log.Debug().Str("portfolio", s.Database.PortfolioID).Msg("using the postgres trade store")
	db, err := postgres.Open(ctx, s.Database.DSN, s.Database.PortfolioID, s.Database.MaxOpenConns, s.Database.QueryTimeout)
	if err != nil {
		return nil, err
	}
	if err := db.CreateSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return dbStore{db}, nil
}

// fileStore records trades in a JSONL ledger file.
type fileStore struct {
	captrack.LedgerFile
}

func (f fileStore) Record(ctx context.Context, t captrack.Trade, opts captrack.Options) (captrack.Trade, error) {
	ledger, err := f.Load()
	if err != nil {
		return t, err
	}
	t, err = ledger.Validate(t, opts)
	if err != nil {
		return t, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	ledger.Append(t)
	return t, f.Save(ledger)
}

func (f fileStore) Update(ctx context.Context, t captrack.Trade) (captrack.Trade, error) {
	ledger, err := f.Load()
	if err != nil {
		return t, err
	}
	t, err = t.Validate()
	if err != nil {
		return t, err
	}
	if err := ledger.Replace(t.ID, t); err != nil {
		return t, err
	}
	return t, f.Save(ledger)
}

func (f fileStore) Remove(ctx context.Context, id string) error {
	ledger, err := f.Load()
	if err != nil {
		return err
	}
	if err := ledger.Delete(id); err != nil {
		return err
	}
	return f.Save(ledger)
}

func (fileStore) Close() error { return nil }

// dbStore records trades in Postgres.
type dbStore struct {
	*postgres.Store
}

func (s dbStore) Record(ctx context.Context, t captrack.Trade, opts captrack.Options) (captrack.Trade, error) {
	trades, err := s.LoadTrades(ctx, "")
	if err != nil {
		return t, err
	}
	ledger := captrack.NewLedger()
	ledger.Append(trades...)
	t, err = ledger.Validate(t, opts)
	if err != nil {
		return t, err
	}
	return s.Upsert(ctx, t)
}

func (s dbStore) Update(ctx context.Context, t captrack.Trade) (captrack.Trade, error) {
	if t.ID == "" {
		return t, fmt.Errorf("cannot update a trade without id")
	}
	t, err := t.Validate()
	if err != nil {
		return t, err
	}
	return s.Upsert(ctx, t)
}

func (s dbStore) Remove(ctx context.Context, id string) error { return s.Delete(ctx, id) }

// resolveID returns the id of the only trade whose id starts with prefix.
func resolveID(ctx context.Context, src captrack.TradeSource, prefix string) (string, error) {
	trades, err := src.LoadTrades(ctx, "")
	if err != nil {
		return "", err
	}
	var matches []string
	for _, t := range trades {
		if t.ID == prefix {
			return t.ID, nil
		}
		if strings.HasPrefix(t.ID, prefix) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no trade with id %q", prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id %q is ambiguous, it matches %d trades", prefix, len(matches))
	}
}

// parseTime parses a date (YYYY-MM-DD) or an RFC 3339 timestamp.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}

// printMarkdown renders markdown for the terminal, or prints it raw with
// -plain or when it cannot be rendered.
func printMarkdown(md string) {
	if *Plain {
		fmt.Fprint(stdout, md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(160))
	if err != nil {
		log.Debug().Err(err).Msg("markdown renderer unavailable")
		fmt.Fprint(stdout, md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		log.Debug().Err(err).Msg("markdown rendering failed")
		fmt.Fprint(stdout, md)
		return
	}
	fmt.Fprint(stdout, out)
}
