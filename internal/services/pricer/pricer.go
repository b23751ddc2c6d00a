package pricer

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/elobry/cryptofolio/internal/domain"
)

// Pricer resolves the current market price of a pair.
type Pricer interface {
	GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error)
}

// HistoricalPricer resolves the price of a pair as of a past instant.
// The boolean is false when no market data covers that instant (for
// example the asset was not listed yet); that is not an error.
type HistoricalPricer interface {
	GetPriceAt(ctx context.Context, pair domain.Pair, ts int64) (decimal.Decimal, bool, error)
}
