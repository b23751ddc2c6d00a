package valuation

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/elobry/cryptofolio/internal/domain"
)

type historicalPricer interface {
	GetPriceAt(ctx context.Context, pair domain.Pair, ts int64) (decimal.Decimal, bool, error)
}

// Engine replays balance deltas in time order and revalues the running
// holdings through the price oracle at every event instant.
type Engine struct {
	pricer  historicalPricer
	quote   string
	stables map[string]struct{}
	logger  *zap.Logger
}

// NewEngine creates a valuation engine. Assets listed in stables (and
// the quote currency itself) are valued 1:1 in the quote currency.
func NewEngine(pricer historicalPricer, quote string, stables []string, logger *zap.Logger) *Engine {
	set := make(map[string]struct{}, len(stables)+1)
	set[quote] = struct{}{}
	for _, s := range stables {
		set[s] = struct{}{}
	}
	return &Engine{pricer: pricer, quote: quote, stables: set, logger: logger}
}

// BuildSeries computes the total-value time series. The input order is
// irrelevant: deltas are stable-sorted by timestamp, so ties keep the
// normalizer's emission order. One point is emitted per distinct
// timestamp, valued after all deltas at that instant have been applied.
//
// An asset whose historical price cannot be resolved contributes zero
// to that point instead of failing the whole series; oracle transport
// errors still propagate.
func (e *Engine) BuildSeries(ctx context.Context, deltas []domain.BalanceDelta) (domain.ValueSeries, error) {
	if len(deltas) == 0 {
		return nil, nil
	}

	sorted := make([]domain.BalanceDelta, len(deltas))
	copy(sorted, deltas)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	balances := make(map[string]decimal.Decimal)
	var series domain.ValueSeries

	for i, d := range sorted {
		balances[d.Asset] = balances[d.Asset].Add(d.Amount)

		last := i == len(sorted)-1 || sorted[i+1].Time != d.Time
		if !last {
			continue
		}

		total, err := e.totalValue(ctx, balances, d.Time)
		if err != nil {
			return nil, err
		}
		series = append(series, domain.ValuePoint{Time: d.Time, Value: total})
	}

	return series, nil
}

func (e *Engine) totalValue(ctx context.Context, balances map[string]decimal.Decimal, ts int64) (decimal.Decimal, error) {
	assets := make([]string, 0, len(balances))
	for asset := range balances {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	total := decimal.Zero
	for _, asset := range assets {
		bal := balances[asset]
		if bal.IsZero() {
			continue
		}

		if _, ok := e.stables[asset]; ok {
			total = total.Add(bal)
			continue
		}

		pair := domain.Pair{From: asset, To: e.quote}
		price, found, err := e.pricer.GetPriceAt(ctx, pair, ts)
		if err != nil {
			return decimal.Zero, errors.Wrapf(err, "value %s at %d", asset, ts)
		}
		if !found {
			e.logger.Debug("no historical price, asset contributes zero",
				zap.String("asset", asset), zap.Int64("ts", ts))
			continue
		}
		total = total.Add(bal.Mul(price))
	}

	return total, nil
}
