package tax

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func pfuEstimator() Estimator {
	return NewEstimator(decimal.NewFromFloat(0.128), decimal.NewFromFloat(0.172))
}

func TestEstimator_CombinedRate(t *testing.T) {
	e := pfuEstimator()
	require.True(t, e.Rate().Equal(decimal.NewFromFloat(0.30)))
}

func TestEstimator_TaxOnNetGain(t *testing.T) {
	e := pfuEstimator()

	gains := decimal.NewFromInt(10000)
	losses := decimal.NewFromInt(2000)

	require.True(t, e.NetGain(gains, losses).Equal(decimal.NewFromInt(8000)))
	require.True(t, e.Tax(gains, losses).Equal(decimal.NewFromInt(2400)))
}

func TestEstimator_LossesBeyondGainsClampToZero(t *testing.T) {
	e := pfuEstimator()

	gains := decimal.NewFromInt(1000)
	losses := decimal.NewFromInt(5000)

	require.True(t, e.NetGain(gains, losses).IsZero())
	require.True(t, e.Tax(gains, losses).IsZero())
}

func TestEstimator_Report(t *testing.T) {
	e := pfuEstimator()

	report := e.Report(2024, decimal.NewFromInt(10000), decimal.NewFromInt(2000))
	require.Equal(t, 2024, report.Year)
	require.True(t, report.NetGain.Equal(decimal.NewFromInt(8000)))
	require.True(t, report.Tax.Equal(decimal.NewFromInt(2400)))
}
