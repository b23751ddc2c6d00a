package ledger

import (
	"context"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/elobry/cryptofolio/internal/domain"
)

// Binance withdrawal apply times come back as "2006-01-02 15:04:05" in UTC.
const withdrawApplyTimeLayout = "2006-01-02 15:04:05"

// BinanceSource reads deposits, withdrawals, trade fills and live
// balances from a Binance spot account. Trades are fetched per
// configured pair because the trade endpoint requires a symbol.
type BinanceSource struct {
	client *binance.Client
	pairs  []domain.Pair
	logger *zap.Logger
}

// NewBinanceSource creates a ledger source for the given trading pairs.
func NewBinanceSource(client *binance.Client, pairs []domain.Pair, logger *zap.Logger) *BinanceSource {
	return &BinanceSource{client: client, pairs: pairs, logger: logger}
}

// FetchDeposits returns typed deposit records since sinceMs. Records
// without a transaction id are skipped.
func (s *BinanceSource) FetchDeposits(ctx context.Context, sinceMs int64) ([]domain.Deposit, error) {
	svc := s.client.NewListDepositsService()
	if sinceMs > 0 {
		svc.StartTime(sinceMs)
	}

	raw, err := svc.Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetch deposit history")
	}

	deposits := make([]domain.Deposit, 0, len(raw))
	for _, d := range raw {
		if d.TxID == "" {
			s.logger.Warn("skipping deposit without txId", zap.String("coin", d.Coin))
			continue
		}
		amount, err := decimal.NewFromString(d.Amount)
		if err != nil {
			return nil, errors.Wrapf(err, "parse deposit amount %q", d.Amount)
		}
		deposits = append(deposits, domain.Deposit{
			TxID:   d.TxID,
			Asset:  d.Coin,
			Amount: amount,
			Time:   d.InsertTime,
		})
	}
	return deposits, nil
}

// FetchWithdrawals returns typed withdrawal records since sinceMs.
func (s *BinanceSource) FetchWithdrawals(ctx context.Context, sinceMs int64) ([]domain.Withdrawal, error) {
	svc := s.client.NewListWithdrawsService()
	if sinceMs > 0 {
		svc.StartTime(sinceMs)
	}

	raw, err := svc.Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetch withdrawal history")
	}

	withdrawals := make([]domain.Withdrawal, 0, len(raw))
	for _, w := range raw {
		id := w.TxID
		if id == "" {
			id = w.ID
		}
		if id == "" {
			s.logger.Warn("skipping withdrawal without id", zap.String("coin", w.Coin))
			continue
		}
		amount, err := decimal.NewFromString(w.Amount)
		if err != nil {
			return nil, errors.Wrapf(err, "parse withdrawal amount %q", w.Amount)
		}
		applied, err := time.ParseInLocation(withdrawApplyTimeLayout, w.ApplyTime, time.UTC)
		if err != nil {
			s.logger.Warn("skipping withdrawal with unparseable apply time",
				zap.String("id", id), zap.String("apply_time", w.ApplyTime))
			continue
		}
		withdrawals = append(withdrawals, domain.Withdrawal{
			TxID:   id,
			Asset:  w.Coin,
			Amount: amount,
			Time:   applied.UnixMilli(),
		})
	}
	return withdrawals, nil
}

// FetchTrades returns signed trade fills across all configured pairs
// since sinceMs. Buy fills carry a positive quantity, sells negative.
func (s *BinanceSource) FetchTrades(ctx context.Context, sinceMs int64) ([]domain.TradeFill, error) {
	var fills []domain.TradeFill
	for _, pair := range s.pairs {
		svc := s.client.NewListTradesService().Symbol(pair.Symbol())
		if sinceMs > 0 {
			svc.StartTime(sinceMs)
		}

		raw, err := svc.Do(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "fetch trades for %s", pair.String())
		}

		for _, t := range raw {
			price, err := decimal.NewFromString(t.Price)
			if err != nil {
				return nil, errors.Wrapf(err, "parse trade price %q", t.Price)
			}
			qty, err := decimal.NewFromString(t.Quantity)
			if err != nil {
				return nil, errors.Wrapf(err, "parse trade quantity %q", t.Quantity)
			}
			if !t.IsBuyer {
				qty = qty.Neg()
			}
			fills = append(fills, domain.TradeFill{
				FillID: strconv.FormatInt(t.ID, 10),
				Symbol: t.Symbol,
				Price:  price,
				Qty:    qty,
				Time:   t.Time,
			})
		}
	}
	return fills, nil
}

// FetchBalances returns all non-zero spot balances.
func (s *BinanceSource) FetchBalances(ctx context.Context) ([]domain.AssetBalance, error) {
	account, err := s.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetch account balances")
	}

	balances := make([]domain.AssetBalance, 0, len(account.Balances))
	for _, b := range account.Balances {
		free, err := decimal.NewFromString(b.Free)
		if err != nil {
			return nil, errors.Wrapf(err, "parse free balance %q", b.Free)
		}
		locked, err := decimal.NewFromString(b.Locked)
		if err != nil {
			return nil, errors.Wrapf(err, "parse locked balance %q", b.Locked)
		}
		if free.IsZero() && locked.IsZero() {
			continue
		}
		balances = append(balances, domain.AssetBalance{Asset: b.Asset, Free: free, Locked: locked})
	}
	return balances, nil
}
