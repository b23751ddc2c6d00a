package domain

import "github.com/shopspring/decimal"

// ValuePoint is the total portfolio value in the quote currency after
// all balance deltas at Time have been applied.
type ValuePoint struct {
	Time  int64           `json:"time"`
	Value decimal.Decimal `json:"value"`
}

// ValueSeries is a portfolio value time series with strictly increasing
// timestamps and at most one point per timestamp.
type ValueSeries []ValuePoint

// First returns the earliest point. Callers must check len > 0.
func (s ValueSeries) First() ValuePoint { return s[0] }

// Last returns the latest point. Callers must check len > 0.
func (s ValueSeries) Last() ValuePoint { return s[len(s)-1] }
