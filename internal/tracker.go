// Package internal wires the portfolio tracker's services together.
package internal

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/elobry/cryptofolio/internal/domain"
	"github.com/elobry/cryptofolio/internal/services/capital"
	"github.com/elobry/cryptofolio/internal/services/ledger"
	"github.com/elobry/cryptofolio/internal/services/performance"
	"github.com/elobry/cryptofolio/internal/services/syncer"
	"github.com/elobry/cryptofolio/internal/services/tax"
	"github.com/elobry/cryptofolio/internal/services/valuation"
)

type eventReader interface {
	Deposits(ctx context.Context) ([]domain.Deposit, error)
	Withdrawals(ctx context.Context) ([]domain.Withdrawal, error)
	Trades(ctx context.Context) ([]domain.TradeFill, error)
}

type snapshotWriter interface {
	Save(snapshot domain.PortfolioSnapshot) error
}

// Tracker is the application service behind the dashboard: it owns the
// sync pass and derives every report from the local event store. A
// mutex serializes sync passes; the store's watermark handling is not
// safe against interleaved writers.
type Tracker struct {
	syncer     *syncer.Syncer
	store      eventReader
	source     ledger.Source
	normalizer *valuation.Normalizer
	engine     *valuation.Engine
	capital    *capital.Calculator
	tax        tax.Estimator
	snapshots  snapshotWriter
	logger     *zap.Logger
	quote      string

	syncMu sync.Mutex
}

// NewTracker assembles the tracker. snapshots may be nil when no
// dashboard stream is wanted.
func NewTracker(
	syncer *syncer.Syncer,
	store eventReader,
	source ledger.Source,
	normalizer *valuation.Normalizer,
	engine *valuation.Engine,
	capital *capital.Calculator,
	tax tax.Estimator,
	snapshots snapshotWriter,
	quote string,
	logger *zap.Logger,
) *Tracker {
	return &Tracker{
		syncer:     syncer,
		store:      store,
		source:     source,
		normalizer: normalizer,
		engine:     engine,
		capital:    capital,
		tax:        tax,
		snapshots:  snapshots,
		logger:     logger,
		quote:      quote,
	}
}

// Sync runs one sync pass and records a fresh overview snapshot for
// the dashboard stream.
func (t *Tracker) Sync(ctx context.Context) error {
	t.syncMu.Lock()
	defer t.syncMu.Unlock()

	if err := t.syncer.Sync(ctx); err != nil {
		return err
	}

	if t.snapshots == nil {
		return nil
	}

	overview, err := t.Overview(ctx, 0)
	if err != nil {
		t.logger.Warn("overview snapshot skipped", zap.Error(err))
		return nil
	}
	if err := t.snapshots.Save(domain.NewPortfolioSnapshot(time.Now(), t.quote, overview)); err != nil {
		t.logger.Warn("overview snapshot not persisted", zap.Error(err))
	}
	return nil
}

// Run syncs on a fixed interval until the context is cancelled. Errors
// are logged and retried on the next tick; the scheduler itself is the
// only writer, which keeps sync passes serialized.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := t.Sync(ctx); err != nil {
		t.logger.Error("initial sync failed", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := t.Sync(ctx); err != nil {
				t.logger.Error("scheduled sync failed", zap.Error(err))
			}
		}
	}
}

// Overview computes invested capital, live value and unrealized P&L.
// year 0 means all years.
func (t *Tracker) Overview(ctx context.Context, year int) (domain.Overview, error) {
	deposits, err := t.store.Deposits(ctx)
	if err != nil {
		return domain.Overview{}, err
	}

	balances, err := t.source.FetchBalances(ctx)
	if err != nil {
		return domain.Overview{}, errors.Wrap(err, "fetch live balances")
	}

	return t.capital.Overview(ctx, deposits, balances, year)
}

// Positions lists the current non-zero holdings with live prices.
func (t *Tracker) Positions(ctx context.Context) ([]domain.Position, error) {
	balances, err := t.source.FetchBalances(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetch live balances")
	}
	return t.capital.Positions(ctx, balances), nil
}

// Performance rebuilds the value time series from the stored ledger
// and derives the return metrics.
func (t *Tracker) Performance(ctx context.Context) (domain.PerformanceReport, error) {
	deposits, err := t.store.Deposits(ctx)
	if err != nil {
		return domain.PerformanceReport{}, err
	}
	withdrawals, err := t.store.Withdrawals(ctx)
	if err != nil {
		return domain.PerformanceReport{}, err
	}
	trades, err := t.store.Trades(ctx)
	if err != nil {
		return domain.PerformanceReport{}, err
	}

	deltas := t.normalizer.Deltas(deposits, withdrawals, trades)
	series, err := t.engine.BuildSeries(ctx, deltas)
	if err != nil {
		return domain.PerformanceReport{}, err
	}

	return performance.Analyze(series), nil
}

// TaxReport estimates the flat-rate liability for the year from the
// caller-provided realized gains and losses.
func (t *Tracker) TaxReport(_ context.Context, year int, gains, losses decimal.Decimal) (domain.TaxReport, error) {
	if gains.IsNegative() || losses.IsNegative() {
		return domain.TaxReport{}, errors.New("gains and losses must be non-negative")
	}
	return t.tax.Report(year, gains, losses), nil
}
