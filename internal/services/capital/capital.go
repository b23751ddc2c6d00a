// Package capital computes invested capital, live portfolio value and
// unrealized profit for the account.
package capital

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/elobry/cryptofolio/internal/domain"
)

type priceOracle interface {
	GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error)
	GetPriceAt(ctx context.Context, pair domain.Pair, ts int64) (decimal.Decimal, bool, error)
}

// Calculator converts deposits and live balances into quote-currency
// figures. Unlike the valuation engine it refuses to degrade: a deposit
// whose historical price cannot be resolved fails the computation,
// because the invested figure feeds tax reporting and must not silently
// understate.
type Calculator struct {
	pricer  priceOracle
	quote   string
	stables map[string]struct{}
	logger  *zap.Logger
}

// NewCalculator creates a calculator expressing results in quote.
func NewCalculator(pricer priceOracle, quote string, stables []string, logger *zap.Logger) *Calculator {
	set := make(map[string]struct{}, len(stables)+1)
	set[quote] = struct{}{}
	for _, s := range stables {
		set[s] = struct{}{}
	}
	return &Calculator{pricer: pricer, quote: quote, stables: set, logger: logger}
}

// Invested sums deposits in the quote currency, converting non-quote
// deposits at their own event time. When year is non-zero, only
// deposits whose local-time year matches are counted.
func (c *Calculator) Invested(ctx context.Context, deposits []domain.Deposit, year int) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, dep := range deposits {
		if year != 0 && time.UnixMilli(dep.Time).Year() != year {
			continue
		}

		if _, ok := c.stables[dep.Asset]; ok {
			total = total.Add(dep.Amount)
			continue
		}

		pair := domain.Pair{From: dep.Asset, To: c.quote}
		price, found, err := c.pricer.GetPriceAt(ctx, pair, dep.Time)
		if err != nil {
			return decimal.Zero, errors.Wrapf(err, "convert deposit %s", dep.TxID)
		}
		if !found {
			return decimal.Zero, errors.Errorf("price for %s at %d not found", pair.Symbol(), dep.Time)
		}
		total = total.Add(dep.Amount.Mul(price))
	}
	return total, nil
}

// CurrentValue sums free+locked balances at current prices.
func (c *Calculator) CurrentValue(ctx context.Context, balances []domain.AssetBalance) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, bal := range balances {
		amount := bal.Total()
		if amount.IsZero() {
			continue
		}

		if _, ok := c.stables[bal.Asset]; ok {
			total = total.Add(amount)
			continue
		}

		pair := domain.Pair{From: bal.Asset, To: c.quote}
		price, err := c.pricer.GetPrice(ctx, pair)
		if err != nil {
			return decimal.Zero, errors.Wrapf(err, "price current holding %s", bal.Asset)
		}
		total = total.Add(amount.Mul(price))
	}
	return total, nil
}

// Overview computes invested capital, current value and their
// difference in one pass.
func (c *Calculator) Overview(ctx context.Context, deposits []domain.Deposit, balances []domain.AssetBalance, year int) (domain.Overview, error) {
	invested, err := c.Invested(ctx, deposits, year)
	if err != nil {
		return domain.Overview{}, err
	}

	current, err := c.CurrentValue(ctx, balances)
	if err != nil {
		return domain.Overview{}, err
	}

	return domain.Overview{
		Invested:     invested,
		CurrentValue: current,
		ProfitLoss:   current.Sub(invested),
	}, nil
}

// Positions lists all non-zero holdings with their current price and
// value. A holding whose price is unavailable stays in the listing with
// nil price and value rather than failing the whole view.
func (c *Calculator) Positions(ctx context.Context, balances []domain.AssetBalance) []domain.Position {
	positions := make([]domain.Position, 0, len(balances))
	for _, bal := range balances {
		amount := bal.Total()
		if amount.IsZero() {
			continue
		}

		pos := domain.Position{Asset: bal.Asset, Quantity: amount}

		if _, ok := c.stables[bal.Asset]; ok {
			price := decimal.NewFromInt(1)
			value := amount
			pos.Price, pos.Value = &price, &value
		} else {
			pair := domain.Pair{From: bal.Asset, To: c.quote}
			price, err := c.pricer.GetPrice(ctx, pair)
			if err != nil {
				c.logger.Warn("no current price for holding", zap.String("asset", bal.Asset), zap.Error(err))
			} else {
				value := amount.Mul(price)
				pos.Price, pos.Value = &price, &value
			}
		}

		positions = append(positions, pos)
	}
	return positions
}
