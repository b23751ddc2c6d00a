package performance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/elobry/cryptofolio/internal/domain"
)

func point(ts int64, value int64) domain.ValuePoint {
	return domain.ValuePoint{Time: ts, Value: decimal.NewFromInt(value)}
}

func TestReturns(t *testing.T) {
	series := domain.ValueSeries{point(0, 100), point(1, 110), point(2, 99)}

	returns := Returns(series)
	require.Len(t, returns, 3)
	require.True(t, returns[0].IsZero())
	require.True(t, returns[1].Equal(decimal.NewFromFloat(0.1)))
	require.True(t, returns[2].Equal(decimal.NewFromFloat(-0.1)))
}

func TestReturns_ZeroPredecessorContributesZero(t *testing.T) {
	series := domain.ValueSeries{point(0, 0), point(1, 50)}

	returns := Returns(series)
	require.True(t, returns[1].IsZero())
}

func TestCumulativeReturns(t *testing.T) {
	returns := []decimal.Decimal{
		decimal.Zero,
		decimal.NewFromFloat(0.1),
		decimal.NewFromFloat(0.1),
	}

	cumulative := CumulativeReturns(returns)
	require.Len(t, cumulative, 3)
	require.True(t, cumulative[0].IsZero())
	require.True(t, cumulative[1].Equal(decimal.NewFromFloat(0.1)))
	require.True(t, cumulative[2].Equal(decimal.NewFromFloat(0.21)))
}

func TestMaxDrawdown(t *testing.T) {
	cumulative := []decimal.Decimal{
		decimal.Zero,
		decimal.NewFromFloat(0.1),
		decimal.NewFromFloat(-0.05),
		decimal.NewFromFloat(0.2),
	}

	// Running max [0, 0.1, 0.1, 0.2]; trough at (-0.05-0.1)/(1+0.1).
	dd := MaxDrawdown(cumulative)
	require.InDelta(t, -0.13636363, dd.InexactFloat64(), 1e-6)
}

func TestMaxDrawdown_DegenerateInputs(t *testing.T) {
	require.True(t, MaxDrawdown(nil).IsZero())
	require.True(t, MaxDrawdown([]decimal.Decimal{decimal.Zero, decimal.Zero}).IsZero())

	// Peak wealth of zero (cumulative return -1) contributes nothing.
	wipedOut := []decimal.Decimal{decimal.NewFromInt(-1), decimal.NewFromInt(-1)}
	require.True(t, MaxDrawdown(wipedOut).IsZero())
}

func TestCAGR_Degenerate(t *testing.T) {
	require.True(t, CAGR(nil).IsZero())
	require.True(t, CAGR(domain.ValueSeries{point(0, 100)}).IsZero())

	// Two points minutes apart span zero whole days.
	sameDay := domain.ValueSeries{point(0, 100), point(60_000, 200)}
	require.True(t, CAGR(sameDay).IsZero())
}

func TestCAGR_DoublingOverOneYear(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(365 * 24 * time.Hour)

	series := domain.ValueSeries{
		{Time: start.UnixMilli(), Value: decimal.NewFromInt(1000)},
		{Time: end.UnixMilli(), Value: decimal.NewFromInt(2000)},
	}

	cagr := CAGR(series)
	require.InDelta(t, 1.0, cagr.InexactFloat64(), 1e-9)
}

func TestAnalyze_EmptySeriesYieldsZeroMetrics(t *testing.T) {
	report := Analyze(nil)
	require.Empty(t, report.Returns)
	require.Empty(t, report.Cumulative)
	require.True(t, report.MaxDrawdown.IsZero())
	require.True(t, report.CAGR.IsZero())
}
