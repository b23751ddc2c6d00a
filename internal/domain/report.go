package domain

import "github.com/shopspring/decimal"

// Overview is the invested-capital view of the account: what went in,
// what it is worth now, and the difference.
type Overview struct {
	Invested     decimal.Decimal `json:"invested"`
	CurrentValue decimal.Decimal `json:"current_value"`
	ProfitLoss   decimal.Decimal `json:"profit_loss"`
}

// Position is one non-zero holding enriched with its current price.
// Price and Value are nil when the asset has no quotable market.
type Position struct {
	Asset    string           `json:"asset"`
	Quantity decimal.Decimal  `json:"quantity"`
	Price    *decimal.Decimal `json:"price"`
	Value    *decimal.Decimal `json:"value"`
}

// PerformanceReport bundles the value series with the derived metrics.
type PerformanceReport struct {
	Series      ValueSeries       `json:"value_timeseries"`
	Returns     []decimal.Decimal `json:"returns"`
	Cumulative  []decimal.Decimal `json:"cumulative"`
	MaxDrawdown decimal.Decimal   `json:"max_drawdown"`
	CAGR        decimal.Decimal   `json:"cagr"`
}

// TaxReport is a flat-rate capital gains estimate for one year.
type TaxReport struct {
	Year    int             `json:"year"`
	Gains   decimal.Decimal `json:"gains"`
	Losses  decimal.Decimal `json:"losses"`
	NetGain decimal.Decimal `json:"net_gain"`
	Tax     decimal.Decimal `json:"tax"`
}
