// Package syncer pulls the account's deposit, withdrawal and trade
// history from the exchange into the local event store.
package syncer

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/elobry/cryptofolio/internal/domain"
	"github.com/elobry/cryptofolio/internal/services/ledger"
	"github.com/elobry/cryptofolio/pkg/retrier"
)

type eventStore interface {
	UpsertBatch(ctx context.Context, deposits []domain.Deposit, withdrawals []domain.Withdrawal, trades []domain.TradeFill) error
	Watermark(ctx context.Context, key string) (int64, error)
	SetWatermark(ctx context.Context, key string, ts int64) error
}

// Syncer runs incremental, all-or-nothing sync passes. The watermark
// only advances after the whole batch has been committed, so a failed
// pass re-covers the same window next time; the store's idempotent
// upserts make that safe.
type Syncer struct {
	source  ledger.Source
	store   eventStore
	retrier *retrier.Retrier
	logger  *zap.Logger
	key     string
}

// New creates a syncer. key names the source in the watermark table.
func New(source ledger.Source, store eventStore, key string, logger *zap.Logger) *Syncer {
	return &Syncer{
		source:  source,
		store:   store,
		retrier: retrier.New(),
		logger:  logger,
		key:     key,
	}
}

// Sync fetches everything newer than the stored watermark, upserts it
// in one transaction and advances the watermark to the newest event
// time seen.
func (s *Syncer) Sync(ctx context.Context) error {
	runID := uuid.New().String()
	logger := s.logger.With(zap.String("run_id", runID), zap.String("source", s.key))

	since, err := s.store.Watermark(ctx, s.key)
	if err != nil {
		return err
	}
	logger.Info("sync started", zap.Int64("since", since))

	deposits, err := retrier.DoWithData(s.retrier, ctx, func(ctx context.Context) ([]domain.Deposit, error) {
		return s.source.FetchDeposits(ctx, since)
	})
	if err != nil {
		return errors.Wrap(err, "sync deposits")
	}

	withdrawals, err := retrier.DoWithData(s.retrier, ctx, func(ctx context.Context) ([]domain.Withdrawal, error) {
		return s.source.FetchWithdrawals(ctx, since)
	})
	if err != nil {
		return errors.Wrap(err, "sync withdrawals")
	}

	trades, err := retrier.DoWithData(s.retrier, ctx, func(ctx context.Context) ([]domain.TradeFill, error) {
		return s.source.FetchTrades(ctx, since)
	})
	if err != nil {
		return errors.Wrap(err, "sync trades")
	}

	if err := s.store.UpsertBatch(ctx, deposits, withdrawals, trades); err != nil {
		return errors.Wrap(err, "persist sync batch")
	}

	latest := latestEventTime(deposits, withdrawals, trades)
	if latest > since {
		if err := s.store.SetWatermark(ctx, s.key, latest); err != nil {
			return errors.Wrap(err, "advance watermark")
		}
	}

	logger.Info("sync finished",
		zap.Int("deposits", len(deposits)),
		zap.Int("withdrawals", len(withdrawals)),
		zap.Int("trades", len(trades)),
		zap.Int64("watermark", max(latest, since)),
	)
	return nil
}

func latestEventTime(deposits []domain.Deposit, withdrawals []domain.Withdrawal, trades []domain.TradeFill) int64 {
	var latest int64
	for _, d := range deposits {
		latest = max(latest, d.Time)
	}
	for _, w := range withdrawals {
		latest = max(latest, w.Time)
	}
	for _, t := range trades {
		latest = max(latest, t.Time)
	}
	return latest
}
