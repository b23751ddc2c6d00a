package domain

import "github.com/shopspring/decimal"

// BalanceDelta is a signed balance change of one asset at one instant,
// expressed in the asset's own unit. Deposits and withdrawals map to a
// single delta; a trade fill maps to a base-asset delta and a
// quote-asset delta sharing the same timestamp.
type BalanceDelta struct {
	Time   int64
	Asset  string
	Amount decimal.Decimal
}
