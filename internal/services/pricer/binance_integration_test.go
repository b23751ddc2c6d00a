//go:build integration

package pricer

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/elobry/cryptofolio/internal/clients"
	"github.com/elobry/cryptofolio/internal/domain"
)

// TestBinancePricer_Integration calls the real Binance API.
// To run: go test -tags=integration -v ./...
func TestBinancePricer_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	// Ticker and kline endpoints are public, keys are not required.
	client := clients.NewBinanceClient("", "")
	pricer := NewBinancePricer(client)
	ctx := context.Background()

	t.Run("returns current price for BTC/USDT", func(t *testing.T) {
		pair := domain.Pair{From: "BTC", To: "USDT"}

		price, err := pricer.GetPrice(ctx, pair)
		require.NoError(t, err)
		require.True(t, price.GreaterThan(decimal.Zero), "Expected price > 0 for %s, got %s", pair.String(), price.String())
	})

	t.Run("returns historical price for BTC/USDT", func(t *testing.T) {
		pair := domain.Pair{From: "BTC", To: "USDT"}
		ts := time.Now().Add(-24 * time.Hour).UnixMilli()

		price, found, err := pricer.GetPriceAt(ctx, pair, ts)
		require.NoError(t, err)
		require.True(t, found)
		require.True(t, price.GreaterThan(decimal.Zero))
	})
}
