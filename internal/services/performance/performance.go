// Package performance derives return and risk statistics from a
// portfolio value time series.
package performance

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/elobry/cryptofolio/internal/domain"
)

const daysPerYear = 365.0

var one = decimal.NewFromInt(1)

// Returns computes simple period returns V[i]/V[i-1] - 1. The first
// point has no prior reference and reads as 0, as does any point whose
// predecessor value is zero.
func Returns(series domain.ValueSeries) []decimal.Decimal {
	if len(series) == 0 {
		return nil
	}

	returns := make([]decimal.Decimal, len(series))
	returns[0] = decimal.Zero
	for i := 1; i < len(series); i++ {
		prev := series[i-1].Value
		if prev.IsZero() {
			returns[i] = decimal.Zero
			continue
		}
		returns[i] = series[i].Value.Div(prev).Sub(one)
	}
	return returns
}

// CumulativeReturns is the running product of (1+r) minus 1.
func CumulativeReturns(returns []decimal.Decimal) []decimal.Decimal {
	if len(returns) == 0 {
		return nil
	}

	cumulative := make([]decimal.Decimal, len(returns))
	acc := one
	for i, r := range returns {
		acc = acc.Mul(one.Add(r))
		cumulative[i] = acc.Sub(one)
	}
	return cumulative
}

// MaxDrawdown is the deepest peak-to-trough decline of the cumulative
// return series, measured on the wealth index (1 + cumulative return)
// relative to its running peak. Points where the peak wealth is zero
// contribute nothing, which sidesteps the division by zero.
func MaxDrawdown(cumulative []decimal.Decimal) decimal.Decimal {
	if len(cumulative) == 0 {
		return decimal.Zero
	}

	runningMax := cumulative[0]
	worst := decimal.Zero
	for _, c := range cumulative {
		if c.GreaterThan(runningMax) {
			runningMax = c
		}
		peakWealth := one.Add(runningMax)
		if peakWealth.IsZero() {
			continue
		}
		drawdown := c.Sub(runningMax).Div(peakWealth)
		if drawdown.LessThan(worst) {
			worst = drawdown
		}
	}
	return worst
}

// CAGR is the compound annual growth rate over the series span. Fewer
// than two points, a zero-day span or a zero starting value all yield 0.
func CAGR(series domain.ValueSeries) decimal.Decimal {
	if len(series) < 2 {
		return decimal.Zero
	}

	first, last := series.First(), series.Last()
	if first.Value.IsZero() {
		return decimal.Zero
	}

	span := time.UnixMilli(last.Time).Sub(time.UnixMilli(first.Time))
	days := math.Floor(span.Hours() / 24)
	if days <= 0 {
		return decimal.Zero
	}

	growth := last.Value.Div(first.Value).InexactFloat64()
	if growth <= 0 {
		return decimal.Zero
	}

	return decimal.NewFromFloat(math.Pow(growth, daysPerYear/days) - 1)
}

// Analyze bundles the full metric set for a value series.
func Analyze(series domain.ValueSeries) domain.PerformanceReport {
	returns := Returns(series)
	cumulative := CumulativeReturns(returns)

	return domain.PerformanceReport{
		Series:      series,
		Returns:     returns,
		Cumulative:  cumulative,
		MaxDrawdown: MaxDrawdown(cumulative),
		CAGR:        CAGR(series),
	}
}
