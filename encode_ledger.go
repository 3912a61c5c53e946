package captrack

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// DecodeLedger decodes trades from a stream of JSONL data, one trade per
// line, and returns them in a sorted Ledger.
func DecodeLedger(r io.Reader) (*Ledger, error) {
	ledger := NewLedger()
	scanner := bufio.NewScanner(r)

	line := 0
	for scanner.Scan() {
		line++
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue // Skip empty lines
		}

		var t Trade
		if err := json.Unmarshal(lineBytes, &t); err != nil {
			return nil, fmt.Errorf("could not decode trade in line %d %q: %w", line, string(lineBytes), err)
		}
		ledger.trades = append(ledger.trades, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read ledger: %w", err)
	}

	// Perform a stable sort on the ledger based on the trade time.
	ledger.stableSort()

	return ledger, nil
}

// EncodeTrade marshals a single trade to JSON and writes it to the writer,
// followed by a newline, in JSONL format.
func EncodeTrade(w io.Writer, t Trade) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal trade: %w", err)
	}

	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write trade: %w", err)
	}
	return nil
}

// EncodeLedger persists trades in chronological order to an io.Writer in
// JSONL format.
func EncodeLedger(w io.Writer, ledger *Ledger) error {
	ledger.stableSort()

	for _, t := range ledger.trades {
		if err := EncodeTrade(w, t); err != nil {
			return err
		}
	}
	return nil
}

// LedgerFile is the path of a JSONL ledger.
//
// A missing file is an empty ledger.
type LedgerFile string

// Load reads and decodes the ledger file.
func (f LedgerFile) Load() (*Ledger, error) {
	file, err := os.Open(string(f))
	if errors.Is(err, fs.ErrNotExist) {
		return NewLedger(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not open ledger file %q: %w", f, err)
	}
	defer file.Close()

	ledger, err := DecodeLedger(file)
	if err != nil {
		return nil, fmt.Errorf("could not decode ledger file %q: %w", f, err)
	}
	return ledger, nil
}

// Save writes the ledger to the file, replacing its content.
func (f LedgerFile) Save(ledger *Ledger) error {
	file, err := os.Create(string(f))
	if err != nil {
		return fmt.Errorf("could not create ledger file %q: %w", f, err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := EncodeLedger(w, ledger); err != nil {
		return fmt.Errorf("could not encode ledger file %q: %w", f, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("could not write ledger file %q: %w", f, err)
	}
	return file.Close()
}

// LoadTrades reads the file on every call, so that it always sees the last
// recorded trades.
func (f LedgerFile) LoadTrades(ctx context.Context, platform string) ([]Trade, error) {
	ledger, err := f.Load()
	if err != nil {
		return nil, err
	}
	return ledger.LoadTrades(ctx, platform)
}
