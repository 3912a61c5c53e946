// Package postgres stores trades in a PostgreSQL database.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/etnz/captrack"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

var (
	// ErrDuplicate is returned when a trade already exists.
	ErrDuplicate = errors.New("duplicate trade")
	// ErrNotFound is returned when a trade does not exist in the portfolio.
	ErrNotFound = errors.New("trade not found")
)

// Schema creates the trades table.
const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	id           uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	portfolio_id text NOT NULL,
	occurred_at  timestamptz NOT NULL,
	asset_symbol text NOT NULL,
	asset_type   text NOT NULL,
	asset_name   text,
	side         text NOT NULL,
	quantity     numeric NOT NULL,
	price        numeric NOT NULL,
	fees         numeric,
	currency     text,
	platform     text NOT NULL DEFAULT 'Manual',
	source       text NOT NULL DEFAULT 'manual',
	notes        text
);
CREATE INDEX IF NOT EXISTS trades_portfolio_idx ON trades (portfolio_id, occurred_at);`

const columns = `id, occurred_at, asset_symbol, asset_type, asset_name, side, quantity, price, fees, currency, platform, source, notes`

// tradeRow is a row of the trades table.
type tradeRow struct {
	ID          string              `db:"id"`
	OccurredAt  time.Time           `db:"occurred_at"`
	AssetSymbol string              `db:"asset_symbol"`
	AssetType   string              `db:"asset_type"`
	AssetName   sql.NullString      `db:"asset_name"`
	Side        string              `db:"side"`
	Quantity    decimal.Decimal     `db:"quantity"`
	Price       decimal.Decimal     `db:"price"`
	Fees        decimal.NullDecimal `db:"fees"`
	Currency    sql.NullString      `db:"currency"`
	Platform    sql.NullString      `db:"platform"`
	Source      sql.NullString      `db:"source"`
	Notes       sql.NullString      `db:"notes"`
}

func (r tradeRow) trade() captrack.Trade {
	return captrack.Trade{
		ID:         r.ID,
		OccurredAt: r.OccurredAt,
		Asset:      captrack.Asset{Symbol: r.AssetSymbol, Type: captrack.AssetType(r.AssetType)},
		Name:       r.AssetName.String,
		// unknown sides are kept, the position engine skips them.
		Side:     captrack.Side(strings.ToUpper(r.Side)),
		Quantity: r.Quantity,
		Price:    r.Price,
		Fees:     r.Fees,
		Currency: r.Currency.String,
		Platform: r.Platform.String,
		Source:   captrack.Source(r.Source.String),
		Notes:    r.Notes.String,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Store is the trades of one portfolio in a Postgres database.
type Store struct {
	db          *sqlx.DB
	portfolioID string
	timeout     time.Duration
}

// New returns the store of portfolioID in db. Every query is bounded by
// timeout.
func New(db *sqlx.DB, portfolioID string, timeout time.Duration) *Store {
	return &Store{db: db, portfolioID: portfolioID, timeout: timeout}
}

// Open connects to the database at dsn.
func Open(ctx context.Context, dsn, portfolioID string, maxOpenConns int, timeout time.Duration) (*Store, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return New(db, portfolioID, timeout), nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// CreateSchema creates the trades table when it does not exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// LoadTrades returns the trades of the portfolio made on platform, compared
// case insensitively, or all of them when platform is empty.
func (s *Store) LoadTrades(ctx context.Context, platform string) ([]captrack.Trade, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `SELECT ` + columns + ` FROM trades WHERE portfolio_id = $1`
	args := []any{s.portfolioID}
	if platform = strings.TrimSpace(platform); platform != "" {
		query += ` AND lower(platform) = lower($2)`
		args = append(args, platform)
	}
	query += ` ORDER BY occurred_at`

	var rows []tradeRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	trades := make([]captrack.Trade, len(rows))
	for i, r := range rows {
		trades[i] = r.trade()
	}
	return trades, nil
}

// Upsert inserts t when it has no ID, and updates it otherwise. It returns
// the stored trade, with its ID.
func (s *Store) Upsert(ctx context.Context, t captrack.Trade) (captrack.Trade, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := []any{
		s.portfolioID, t.OccurredAt, t.Asset.Symbol, string(t.Asset.Type), nullString(t.Name),
		string(t.Side), t.Quantity, t.Price, t.Fees, nullString(t.Currency),
		t.PlatformName(), string(t.Source), nullString(t.Notes),
	}

	if t.ID == "" {
		query := `
		INSERT INTO trades (portfolio_id, occurred_at, asset_symbol, asset_type, asset_name, side, quantity, price, fees, currency, platform, source, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`
		if err := s.db.QueryRowxContext(ctx, query, args...).Scan(&t.ID); err != nil {
			return t, wrap("insert", err)
		}
		return t, nil
	}

	query := `
		UPDATE trades SET occurred_at = $2, asset_symbol = $3, asset_type = $4, asset_name = $5, side = $6,
			quantity = $7, price = $8, fees = $9, currency = $10, platform = $11, source = $12, notes = $13
		WHERE portfolio_id = $1 AND id = $14`
	res, err := s.db.ExecContext(ctx, query, append(args, t.ID)...)
	if err != nil {
		return t, wrap("update", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return t, fmt.Errorf("failed to update trade %s: %w", t.ID, ErrNotFound)
	}
	return t, nil
}

// Delete removes the trade with this id from the portfolio.
func (s *Store) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM trades WHERE portfolio_id = $1 AND id = $2`, s.portfolioID, id)
	if err != nil {
		return wrap("delete", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to delete trade %s: %w", id, ErrNotFound)
	}
	return nil
}

func wrap(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("failed to %s trade: %w: %v", op, ErrDuplicate, err)
	}
	return fmt.Errorf("failed to %s trade: %w", op, err)
}
