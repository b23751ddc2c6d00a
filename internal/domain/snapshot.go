package domain

import "time"

// PortfolioSnapshot is the account overview captured after a successful
// sync, persisted for the dashboard stream.
type PortfolioSnapshot struct {
	Timestamp    time.Time `json:"ts"`
	Quote        string    `json:"quote"`
	Invested     string    `json:"invested"`
	CurrentValue string    `json:"current_value"`
	ProfitLoss   string    `json:"profit_loss"`
}

// NewPortfolioSnapshot creates a snapshot from an overview.
func NewPortfolioSnapshot(timestamp time.Time, quote string, overview Overview) PortfolioSnapshot {
	return PortfolioSnapshot{
		Timestamp:    timestamp,
		Quote:        quote,
		Invested:     overview.Invested.String(),
		CurrentValue: overview.CurrentValue.String(),
		ProfitLoss:   overview.ProfitLoss.String(),
	}
}

// PortfolioSnapshotRecord bundles a snapshot with its log index.
type PortfolioSnapshotRecord struct {
	Index    uint64
	Snapshot PortfolioSnapshot
}
