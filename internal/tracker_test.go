package internal

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/elobry/cryptofolio/internal/domain"
	"github.com/elobry/cryptofolio/internal/services/capital"
	"github.com/elobry/cryptofolio/internal/services/tax"
	"github.com/elobry/cryptofolio/internal/services/valuation"
)

type fakeEventReader struct {
	deposits    []domain.Deposit
	withdrawals []domain.Withdrawal
	trades      []domain.TradeFill
}

func (f *fakeEventReader) Deposits(context.Context) ([]domain.Deposit, error) {
	return f.deposits, nil
}
func (f *fakeEventReader) Withdrawals(context.Context) ([]domain.Withdrawal, error) {
	return f.withdrawals, nil
}
func (f *fakeEventReader) Trades(context.Context) ([]domain.TradeFill, error) {
	return f.trades, nil
}

type fakeLedgerSource struct {
	balances []domain.AssetBalance
}

func (f *fakeLedgerSource) FetchDeposits(context.Context, int64) ([]domain.Deposit, error) {
	return nil, nil
}
func (f *fakeLedgerSource) FetchWithdrawals(context.Context, int64) ([]domain.Withdrawal, error) {
	return nil, nil
}
func (f *fakeLedgerSource) FetchTrades(context.Context, int64) ([]domain.TradeFill, error) {
	return nil, nil
}
func (f *fakeLedgerSource) FetchBalances(context.Context) ([]domain.AssetBalance, error) {
	return f.balances, nil
}

type fakeOracle struct {
	current    map[string]decimal.Decimal
	historical map[string]decimal.Decimal
}

func (f *fakeOracle) GetPrice(_ context.Context, pair domain.Pair) (decimal.Decimal, error) {
	return f.current[pair.Symbol()], nil
}

func (f *fakeOracle) GetPriceAt(_ context.Context, pair domain.Pair, _ int64) (decimal.Decimal, bool, error) {
	price, ok := f.historical[pair.Symbol()]
	return price, ok, nil
}

func newTestTracker(store *fakeEventReader, source *fakeLedgerSource, oracle *fakeOracle) *Tracker {
	logger := zap.NewNop()
	stables := []string{"USDT", "BUSD", "USDC"}

	return NewTracker(
		nil, // report paths do not touch the syncer
		store,
		source,
		valuation.NewNormalizer("USDT", logger),
		valuation.NewEngine(oracle, "USDT", stables, logger),
		capital.NewCalculator(oracle, "USDT", stables, logger),
		tax.NewEstimator(decimal.NewFromFloat(0.128), decimal.NewFromFloat(0.172)),
		nil,
		"USDT",
		logger,
	)
}

// A 1000 USDT deposit followed by buying 1 BTC at 1000 keeps the total
// value constant: the quote balance turned into an equally-priced
// holding.
func TestTracker_PerformanceEndToEnd(t *testing.T) {
	store := &fakeEventReader{
		deposits: []domain.Deposit{
			{TxID: "d1", Asset: "USDT", Amount: decimal.NewFromInt(1000), Time: 0},
		},
		trades: []domain.TradeFill{
			{FillID: "t1", Symbol: "BTCUSDT", Price: decimal.NewFromInt(1000), Qty: decimal.NewFromInt(1), Time: 1},
		},
	}
	oracle := &fakeOracle{historical: map[string]decimal.Decimal{
		"BTCUSDT": decimal.NewFromInt(1000),
	}}

	tracker := newTestTracker(store, &fakeLedgerSource{}, oracle)

	report, err := tracker.Performance(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Series, 2)
	require.True(t, report.Series[0].Value.Equal(decimal.NewFromInt(1000)))
	require.True(t, report.Series[1].Value.Equal(decimal.NewFromInt(1000)))
	require.True(t, report.MaxDrawdown.IsZero())
}

func TestTracker_EmptyLedgerYieldsEmptyReport(t *testing.T) {
	tracker := newTestTracker(&fakeEventReader{}, &fakeLedgerSource{}, &fakeOracle{})

	report, err := tracker.Performance(context.Background())
	require.NoError(t, err)
	require.Empty(t, report.Series)
	require.True(t, report.CAGR.IsZero())
}

func TestTracker_Overview(t *testing.T) {
	store := &fakeEventReader{
		deposits: []domain.Deposit{
			{TxID: "d1", Asset: "USDT", Amount: decimal.NewFromInt(1000), Time: 0},
		},
	}
	source := &fakeLedgerSource{balances: []domain.AssetBalance{
		{Asset: "BTC", Free: decimal.NewFromInt(1)},
	}}
	oracle := &fakeOracle{current: map[string]decimal.Decimal{
		"BTCUSDT": decimal.NewFromInt(1500),
	}}

	tracker := newTestTracker(store, source, oracle)

	overview, err := tracker.Overview(context.Background(), 0)
	require.NoError(t, err)
	require.True(t, overview.Invested.Equal(decimal.NewFromInt(1000)))
	require.True(t, overview.CurrentValue.Equal(decimal.NewFromInt(1500)))
	require.True(t, overview.ProfitLoss.Equal(decimal.NewFromInt(500)))
}

func TestTracker_TaxReportRejectsNegativeInputs(t *testing.T) {
	tracker := newTestTracker(&fakeEventReader{}, &fakeLedgerSource{}, &fakeOracle{})

	_, err := tracker.TaxReport(context.Background(), 2024, decimal.NewFromInt(-1), decimal.Zero)
	require.Error(t, err)

	report, err := tracker.TaxReport(context.Background(), 2024, decimal.NewFromInt(10000), decimal.NewFromInt(2000))
	require.NoError(t, err)
	require.True(t, report.Tax.Equal(decimal.NewFromInt(2400)))
}
