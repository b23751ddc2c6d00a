// Package clients constructs the exchange API clients used by the
// ledger source and the price oracle.
package clients

import (
	"github.com/adshao/go-binance/v2"
)

// NewBinanceClient builds an authenticated spot client. Read-only API
// keys are enough: the tracker never places orders.
func NewBinanceClient(apiKey, apiSecret string) *binance.Client {
	return binance.NewClient(apiKey, apiSecret)
}
