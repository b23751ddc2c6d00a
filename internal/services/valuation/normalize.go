// Package valuation reconstructs the portfolio value time series from
// the stored ledger by replaying balance changes in time order.
package valuation

import (
	"strings"

	"go.uber.org/zap"

	"github.com/elobry/cryptofolio/internal/domain"
)

// Normalizer flattens heterogeneous ledger events into a uniform
// stream of signed per-asset balance deltas.
type Normalizer struct {
	quote  string
	logger *zap.Logger
}

// NewNormalizer creates a normalizer for the given quote currency.
func NewNormalizer(quote string, logger *zap.Logger) *Normalizer {
	return &Normalizer{quote: quote, logger: logger}
}

// Deltas converts the full event set to balance deltas. A deposit or
// withdrawal maps to one delta; a trade fill maps to two deltas sharing
// the same timestamp: +qty in the base asset and -qty*price in the
// quote asset, so a sell (negative qty) credits the quote side.
//
// Emission order is fixed: deposits, withdrawals, then trades, with the
// base delta before the quote delta inside each fill. The valuation
// engine's stable sort preserves this order among equal timestamps.
func (n *Normalizer) Deltas(deposits []domain.Deposit, withdrawals []domain.Withdrawal, trades []domain.TradeFill) []domain.BalanceDelta {
	deltas := make([]domain.BalanceDelta, 0, len(deposits)+len(withdrawals)+2*len(trades))

	for _, d := range deposits {
		deltas = append(deltas, domain.BalanceDelta{Time: d.Time, Asset: d.Asset, Amount: d.Amount})
	}

	for _, w := range withdrawals {
		deltas = append(deltas, domain.BalanceDelta{Time: w.Time, Asset: w.Asset, Amount: w.Amount.Neg()})
	}

	for _, t := range trades {
		base := strings.TrimSuffix(t.Symbol, n.quote)
		if base == t.Symbol || base == "" {
			n.logger.Warn("skipping trade on symbol outside the quote market",
				zap.String("symbol", t.Symbol), zap.String("fill_id", t.FillID))
			continue
		}
		deltas = append(deltas,
			domain.BalanceDelta{Time: t.Time, Asset: base, Amount: t.Qty},
			domain.BalanceDelta{Time: t.Time, Asset: n.quote, Amount: t.Qty.Mul(t.Price).Neg()},
		)
	}

	return deltas
}
