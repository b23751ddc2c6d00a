package capital

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/elobry/cryptofolio/internal/domain"
)

type fakeOracle struct {
	current    map[string]decimal.Decimal
	historical map[string]decimal.Decimal
}

func (f *fakeOracle) GetPrice(_ context.Context, pair domain.Pair) (decimal.Decimal, error) {
	price, ok := f.current[pair.Symbol()]
	if !ok {
		return decimal.Decimal{}, errors.Errorf("no market for %s", pair.Symbol())
	}
	return price, nil
}

func (f *fakeOracle) GetPriceAt(_ context.Context, pair domain.Pair, _ int64) (decimal.Decimal, bool, error) {
	price, ok := f.historical[pair.Symbol()]
	return price, ok, nil
}

var stables = []string{"USDT", "BUSD", "USDC", "EUR", "USD"}

func newTestCalculator(oracle *fakeOracle) *Calculator {
	return NewCalculator(oracle, "USDT", stables, zap.NewNop())
}

func msForYear(year int) int64 {
	return time.Date(year, time.June, 15, 12, 0, 0, 0, time.Local).UnixMilli()
}

func TestInvested_ConvertsAtDepositTime(t *testing.T) {
	oracle := &fakeOracle{historical: map[string]decimal.Decimal{
		"ETHUSDT": decimal.NewFromInt(2000),
	}}
	calc := newTestCalculator(oracle)

	deposits := []domain.Deposit{
		{TxID: "d1", Asset: "USDT", Amount: decimal.NewFromInt(500), Time: msForYear(2024)},
		{TxID: "d2", Asset: "ETH", Amount: decimal.NewFromInt(2), Time: msForYear(2024)},
	}

	invested, err := calc.Invested(context.Background(), deposits, 0)
	require.NoError(t, err)
	require.True(t, invested.Equal(decimal.NewFromInt(4500)))
}

func TestInvested_YearFilter(t *testing.T) {
	calc := newTestCalculator(&fakeOracle{})

	deposits := []domain.Deposit{
		{TxID: "d1", Asset: "USDT", Amount: decimal.NewFromInt(100), Time: msForYear(2023)},
		{TxID: "d2", Asset: "USDT", Amount: decimal.NewFromInt(200), Time: msForYear(2024)},
	}

	invested, err := calc.Invested(context.Background(), deposits, 2024)
	require.NoError(t, err)
	require.True(t, invested.Equal(decimal.NewFromInt(200)))
}

func TestInvested_MissingHistoricalPriceIsHardError(t *testing.T) {
	calc := newTestCalculator(&fakeOracle{historical: map[string]decimal.Decimal{}})

	deposits := []domain.Deposit{
		{TxID: "d1", Asset: "ETH", Amount: decimal.NewFromInt(1), Time: msForYear(2024)},
	}

	_, err := calc.Invested(context.Background(), deposits, 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestCurrentValue(t *testing.T) {
	oracle := &fakeOracle{current: map[string]decimal.Decimal{
		"BTCUSDT": decimal.NewFromInt(50000),
	}}
	calc := newTestCalculator(oracle)

	balances := []domain.AssetBalance{
		{Asset: "BTC", Free: decimal.NewFromFloat(0.5), Locked: decimal.NewFromFloat(0.5)},
		{Asset: "USDT", Free: decimal.NewFromInt(1000)},
		{Asset: "DUST", Free: decimal.Zero},
	}

	value, err := calc.CurrentValue(context.Background(), balances)
	require.NoError(t, err)
	require.True(t, value.Equal(decimal.NewFromInt(51000)))
}

func TestOverview(t *testing.T) {
	oracle := &fakeOracle{
		current: map[string]decimal.Decimal{"BTCUSDT": decimal.NewFromInt(1200)},
	}
	calc := newTestCalculator(oracle)

	deposits := []domain.Deposit{
		{TxID: "d1", Asset: "USDT", Amount: decimal.NewFromInt(1000), Time: msForYear(2024)},
	}
	balances := []domain.AssetBalance{
		{Asset: "BTC", Free: decimal.NewFromInt(1)},
	}

	overview, err := calc.Overview(context.Background(), deposits, balances, 0)
	require.NoError(t, err)
	require.True(t, overview.Invested.Equal(decimal.NewFromInt(1000)))
	require.True(t, overview.CurrentValue.Equal(decimal.NewFromInt(1200)))
	require.True(t, overview.ProfitLoss.Equal(decimal.NewFromInt(200)))
}

func TestPositions_UnpricedHoldingKeptWithoutValue(t *testing.T) {
	oracle := &fakeOracle{current: map[string]decimal.Decimal{
		"BTCUSDT": decimal.NewFromInt(40000),
	}}
	calc := newTestCalculator(oracle)

	balances := []domain.AssetBalance{
		{Asset: "BTC", Free: decimal.NewFromInt(1)},
		{Asset: "OBSCURE", Free: decimal.NewFromInt(10)},
		{Asset: "USDT", Free: decimal.NewFromInt(5)},
	}

	positions := calc.Positions(context.Background(), balances)
	require.Len(t, positions, 3)

	byAsset := map[string]domain.Position{}
	for _, p := range positions {
		byAsset[p.Asset] = p
	}

	require.NotNil(t, byAsset["BTC"].Value)
	require.True(t, byAsset["BTC"].Value.Equal(decimal.NewFromInt(40000)))
	require.Nil(t, byAsset["OBSCURE"].Price)
	require.Nil(t, byAsset["OBSCURE"].Value)
	require.NotNil(t, byAsset["USDT"].Price)
	require.True(t, byAsset["USDT"].Price.Equal(decimal.NewFromInt(1)))
}
