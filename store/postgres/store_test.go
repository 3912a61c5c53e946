package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/etnz/captrack"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
	return New(sqlx.NewDb(db, "postgres"), "p1", time.Second), mock
}

var cols = []string{"id", "occurred_at", "asset_symbol", "asset_type", "asset_name", "side", "quantity", "price", "fees", "currency", "platform", "source", "notes"}

func TestStore_LoadTrades(t *testing.T) {
	s, mock := newMock(t)
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(cols).
		AddRow("t1", at, "AAPL", "stock", "Apple Inc.", "BUY", "10", "150.5", "1.25", "USD", "IBKR", "manual", nil).
		AddRow("t2", at.Add(time.Hour), "BTC", "crypto", nil, "sell", "0.5", "60000", nil, nil, "IBKR", nil, "partial")
	mock.ExpectQuery(`SELECT (.+) FROM trades WHERE portfolio_id = \$1 AND lower\(platform\) = lower\(\$2\) ORDER BY occurred_at`).
		WithArgs("p1", "ibkr").
		WillReturnRows(rows)

	trades, err := s.LoadTrades(context.Background(), " ibkr ")
	if err != nil {
		t.Fatalf("LoadTrades() error = %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("LoadTrades() returned %d trades, want 2", len(trades))
	}

	first := trades[0]
	if first.ID != "t1" || first.Asset != (captrack.Asset{Symbol: "AAPL", Type: captrack.Stock}) || first.Side != captrack.Buy {
		t.Errorf("first trade = %v", first)
	}
	if !first.Price.Equal(decimal.RequireFromString("150.5")) || !first.Fees.Valid || !first.Fees.Decimal.Equal(decimal.RequireFromString("1.25")) {
		t.Errorf("first trade price, fees = %v, %v, want 150.5, 1.25", first.Price, first.Fees)
	}
	if first.Name != "Apple Inc." || first.Currency != "USD" || first.Source != captrack.Manual {
		t.Errorf("first trade name, currency, source = %q, %q, %q", first.Name, first.Currency, first.Source)
	}

	second := trades[1]
	if second.Side != captrack.Sell {
		t.Errorf("second trade side = %q, want SELL", second.Side)
	}
	if second.Fees.Valid || second.Currency != "" || second.Name != "" {
		t.Errorf("second trade fees, currency, name = %v, %q, %q, want all absent", second.Fees, second.Currency, second.Name)
	}
	if second.Notes != "partial" {
		t.Errorf("second trade notes = %q, want partial", second.Notes)
	}
}

func TestStore_LoadTradesAllPlatforms(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(`SELECT (.+) FROM trades WHERE portfolio_id = \$1 ORDER BY occurred_at`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(cols))

	trades, err := s.LoadTrades(context.Background(), "")
	if err != nil {
		t.Fatalf("LoadTrades() error = %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("LoadTrades() = %v, want none", trades)
	}
}

func TestStore_LoadTradesError(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(`SELECT (.+) FROM trades`).WillReturnError(errors.New("connection refused"))

	if _, err := s.LoadTrades(context.Background(), ""); err == nil {
		t.Error("LoadTrades() expected an error")
	}
}

func TestStore_UpsertInsert(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO trades (.+) RETURNING id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("new-id"))

	tr := captrack.Trade{
		OccurredAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Asset:      captrack.Asset{Symbol: "AAPL", Type: captrack.Stock},
		Side:       captrack.Buy,
		Quantity:   decimal.NewFromInt(10),
		Price:      decimal.NewFromInt(150),
	}
	got, err := s.Upsert(context.Background(), tr)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if got.ID != "new-id" {
		t.Errorf("Upsert() id = %q, want new-id", got.ID)
	}
}

func TestStore_UpsertDuplicate(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO trades`).WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

	_, err := s.Upsert(context.Background(), captrack.Trade{Side: captrack.Buy})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("Upsert() error = %v, want ErrDuplicate", err)
	}
}

func TestStore_UpsertUpdate(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(`UPDATE trades SET (.+) WHERE portfolio_id = \$1 AND id = \$14`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE trades`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	tr := captrack.Trade{ID: "t1", Side: captrack.Sell}
	if _, err := s.Upsert(context.Background(), tr); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	tr.ID = "missing"
	if _, err := s.Upsert(context.Background(), tr); !errors.Is(err, ErrNotFound) {
		t.Errorf("Upsert() error = %v, want ErrNotFound", err)
	}
}

func TestStore_Delete(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(`DELETE FROM trades WHERE portfolio_id = \$1 AND id = \$2`).
		WithArgs("p1", "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM trades`).
		WithArgs("p1", "t2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.Delete(context.Background(), "t1"); err != nil {
		t.Errorf("Delete(t1) error = %v", err)
	}
	if err := s.Delete(context.Background(), "t2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(t2) error = %v, want ErrNotFound", err)
	}
}

func TestStore_CreateSchema(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS trades`).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.CreateSchema(context.Background()); err != nil {
		t.Errorf("CreateSchema() error = %v", err)
	}
}
