package pricer

import (
	"context"
	"fmt"
	"sync"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/elobry/cryptofolio/internal/domain"
)

const klineBucketMs = 60_000

// BinancePricer serves current prices from the ticker endpoint and
// historical prices from 1-minute klines. Historical lookups are cached
// by (symbol, minute bucket) since a valuation replay asks for the same
// candle many times.
type BinancePricer struct {
	client *binance.Client

	mu    sync.Mutex
	cache map[string]cachedPrice
}

type cachedPrice struct {
	price decimal.Decimal
	found bool
}

// NewBinancePricer creates a pricer backed by the given Binance client.
func NewBinancePricer(client *binance.Client) *BinancePricer {
	return &BinancePricer{
		client: client,
		cache:  make(map[string]cachedPrice),
	}
}

// GetPrice returns the latest ticker price for the pair.
func (p *BinancePricer) GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	prices, err := p.client.NewListPricesService().Symbol(pair.Symbol()).Do(ctx)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(err, "fetch ticker price for %s", pair.String())
	}
	if len(prices) == 0 {
		return decimal.Decimal{}, fmt.Errorf("binance API returned empty prices for %s", pair.String())
	}

	return decimal.NewFromString(prices[0].Price)
}

// GetPriceAt returns the close of the 1-minute candle covering ts. The
// lookup is absent when the response is empty or the first available
// candle opens after ts (the pair was not listed yet).
func (p *BinancePricer) GetPriceAt(ctx context.Context, pair domain.Pair, ts int64) (decimal.Decimal, bool, error) {
	bucket := ts - ts%klineBucketMs
	key := fmt.Sprintf("%s@%d", pair.Symbol(), bucket)

	p.mu.Lock()
	cached, ok := p.cache[key]
	p.mu.Unlock()
	if ok {
		return cached.price, cached.found, nil
	}

	klines, err := p.client.NewKlinesService().
		Symbol(pair.Symbol()).
		Interval("1m").
		StartTime(bucket).
		Limit(1).
		Do(ctx)
	if err != nil {
		return decimal.Decimal{}, false, errors.Wrapf(err, "fetch kline for %s at %d", pair.String(), ts)
	}

	if len(klines) == 0 || klines[0].OpenTime > ts {
		p.store(key, decimal.Decimal{}, false)
		return decimal.Decimal{}, false, nil
	}

	price, err := decimal.NewFromString(klines[0].Close)
	if err != nil {
		return decimal.Decimal{}, false, errors.Wrapf(err, "parse close price %q", klines[0].Close)
	}

	p.store(key, price, true)
	return price, true, nil
}

func (p *BinancePricer) store(key string, price decimal.Decimal, found bool) {
	p.mu.Lock()
	p.cache[key] = cachedPrice{price: price, found: found}
	p.mu.Unlock()
}
