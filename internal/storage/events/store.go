// Package events persists the account ledger (deposits, withdrawals,
// trade fills) and the sync watermark in a local SQLite database.
package events

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/elobry/cryptofolio/internal/domain"
)

// Store is a SQLite-backed event store. Upserts are idempotent by the
// exchange-assigned external id, so re-ingesting an already covered
// window is safe.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite database")
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "apply schema")
	}

	return &Store{db: db}, nil
}

// UpsertBatch writes all records inside a single transaction. A failure
// mid-batch rolls everything back, leaving the prior state intact.
func (s *Store) UpsertBatch(ctx context.Context, deposits []domain.Deposit, withdrawals []domain.Withdrawal, trades []domain.TradeFill) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin upsert transaction")
	}
	defer tx.Rollback()

	for _, d := range deposits {
		if d.TxID == "" {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO deposits (tx_id, asset, amount, event_time)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(tx_id) DO UPDATE SET asset=excluded.asset, amount=excluded.amount, event_time=excluded.event_time`,
			d.TxID, d.Asset, d.Amount.String(), d.Time,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert deposit %s", d.TxID)
		}
	}

	for _, w := range withdrawals {
		if w.TxID == "" {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO withdrawals (tx_id, asset, amount, event_time)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(tx_id) DO UPDATE SET asset=excluded.asset, amount=excluded.amount, event_time=excluded.event_time`,
			w.TxID, w.Asset, w.Amount.String(), w.Time,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert withdrawal %s", w.TxID)
		}
	}

	for _, t := range trades {
		if t.FillID == "" {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO trades (fill_id, symbol, price, qty, event_time)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(fill_id) DO UPDATE SET symbol=excluded.symbol, price=excluded.price, qty=excluded.qty, event_time=excluded.event_time`,
			t.FillID, t.Symbol, t.Price.String(), t.Qty.String(), t.Time,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert trade %s", t.FillID)
		}
	}

	return errors.Wrap(tx.Commit(), "commit upsert transaction")
}

// Deposits returns all stored deposits ordered by event time.
func (s *Store) Deposits(ctx context.Context) ([]domain.Deposit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tx_id, asset, amount, event_time FROM deposits ORDER BY event_time`)
	if err != nil {
		return nil, errors.Wrap(err, "query deposits")
	}
	defer rows.Close()

	var out []domain.Deposit
	for rows.Next() {
		var d domain.Deposit
		var amount string
		if err := rows.Scan(&d.TxID, &d.Asset, &amount, &d.Time); err != nil {
			return nil, errors.Wrap(err, "scan deposit")
		}
		if d.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, errors.Wrapf(err, "parse deposit amount %q", amount)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Withdrawals returns all stored withdrawals ordered by event time.
func (s *Store) Withdrawals(ctx context.Context) ([]domain.Withdrawal, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tx_id, asset, amount, event_time FROM withdrawals ORDER BY event_time`)
	if err != nil {
		return nil, errors.Wrap(err, "query withdrawals")
	}
	defer rows.Close()

	var out []domain.Withdrawal
	for rows.Next() {
		var w domain.Withdrawal
		var amount string
		if err := rows.Scan(&w.TxID, &w.Asset, &amount, &w.Time); err != nil {
			return nil, errors.Wrap(err, "scan withdrawal")
		}
		if w.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, errors.Wrapf(err, "parse withdrawal amount %q", amount)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Trades returns all stored trade fills ordered by event time.
func (s *Store) Trades(ctx context.Context) ([]domain.TradeFill, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT fill_id, symbol, price, qty, event_time FROM trades ORDER BY event_time`)
	if err != nil {
		return nil, errors.Wrap(err, "query trades")
	}
	defer rows.Close()

	var out []domain.TradeFill
	for rows.Next() {
		var t domain.TradeFill
		var price, qty string
		if err := rows.Scan(&t.FillID, &t.Symbol, &price, &qty, &t.Time); err != nil {
			return nil, errors.Wrap(err, "scan trade")
		}
		if t.Price, err = decimal.NewFromString(price); err != nil {
			return nil, errors.Wrapf(err, "parse trade price %q", price)
		}
		if t.Qty, err = decimal.NewFromString(qty); err != nil {
			return nil, errors.Wrapf(err, "parse trade qty %q", qty)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Watermark returns the last synced event time for the given source
// key. A missing key reads as 0, so the first sync covers all history.
func (s *Store) Watermark(ctx context.Context, key string) (int64, error) {
	var value int64
	err := s.db.QueryRowContext(ctx, `SELECT value FROM sync_meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrapf(err, "read watermark %s", key)
	}
	return value, nil
}

// SetWatermark records the last synced event time for the source key.
func (s *Store) SetWatermark(ctx context.Context, key string, ts int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, ts,
	)
	return errors.Wrapf(err, "set watermark %s", key)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
