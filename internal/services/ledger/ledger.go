// Package ledger fetches the account's financial history from the
// exchange and converts it to typed records at the ingestion boundary.
package ledger

import (
	"context"

	"github.com/elobry/cryptofolio/internal/domain"
)

// Source is an exchange account history feed. All fetches are bounded
// below by sinceMs so incremental syncs only re-cover the open window.
type Source interface {
	FetchDeposits(ctx context.Context, sinceMs int64) ([]domain.Deposit, error)
	FetchWithdrawals(ctx context.Context, sinceMs int64) ([]domain.Withdrawal, error)
	FetchTrades(ctx context.Context, sinceMs int64) ([]domain.TradeFill, error)
	FetchBalances(ctx context.Context) ([]domain.AssetBalance, error)
}
