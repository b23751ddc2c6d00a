// Package tax estimates the flat-rate capital gains tax on realized
// gains, modeled after the French PFU: a fixed income-tax component
// plus a social-contributions component applied to the net gain.
package tax

import (
	"github.com/shopspring/decimal"

	"github.com/elobry/cryptofolio/internal/domain"
)

// Estimator applies a flat two-component rate to net realized gains.
type Estimator struct {
	incomeRate decimal.Decimal
	socialRate decimal.Decimal
}

// NewEstimator creates an estimator from the two rate components,
// expressed as fractions (0.128 means 12.8%).
func NewEstimator(incomeRate, socialRate decimal.Decimal) Estimator {
	return Estimator{incomeRate: incomeRate, socialRate: socialRate}
}

// Rate is the combined flat rate.
func (e Estimator) Rate() decimal.Decimal {
	return e.incomeRate.Add(e.socialRate)
}

// NetGain offsets losses against gains, floored at zero: losses beyond
// gains never produce a negative tax base.
func (e Estimator) NetGain(gains, losses decimal.Decimal) decimal.Decimal {
	net := gains.Sub(losses)
	if net.IsNegative() {
		return decimal.Zero
	}
	return net
}

// Tax is the flat-rate liability on the net gain.
func (e Estimator) Tax(gains, losses decimal.Decimal) decimal.Decimal {
	net := e.NetGain(gains, losses)
	if !net.IsPositive() {
		return decimal.Zero
	}
	return net.Mul(e.Rate())
}

// Report bundles the figures for one reporting year.
func (e Estimator) Report(year int, gains, losses decimal.Decimal) domain.TaxReport {
	return domain.TaxReport{
		Year:    year,
		Gains:   gains,
		Losses:  losses,
		NetGain: e.NetGain(gains, losses),
		Tax:     e.Tax(gains, losses),
	}
}
