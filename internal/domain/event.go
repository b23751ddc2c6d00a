package domain

import "github.com/shopspring/decimal"

// Deposit is a funding event that adds an asset to the account.
// TxID is the exchange-assigned transaction id used for idempotent upserts.
type Deposit struct {
	TxID   string
	Asset  string
	Amount decimal.Decimal
	// Time is the event time in milliseconds since the Unix epoch.
	Time int64
}

// Withdrawal removes an asset from the account. Same shape as Deposit,
// the amount is always a reduction.
type Withdrawal struct {
	TxID   string
	Asset  string
	Amount decimal.Decimal
	Time   int64
}

// TradeFill is one executed fill on a spot pair. Qty is signed: positive
// means the base asset was acquired, negative means it was disposed.
type TradeFill struct {
	FillID string
	// Symbol is the concatenated pair, e.g. "BTCUSDT".
	Symbol string
	Price  decimal.Decimal
	Qty    decimal.Decimal
	Time   int64
}

// AssetBalance is a live account balance for one asset.
type AssetBalance struct {
	Asset  string
	Free   decimal.Decimal
	Locked decimal.Decimal
}

// Total returns free plus locked quantity.
func (b AssetBalance) Total() decimal.Decimal {
	return b.Free.Add(b.Locked)
}
