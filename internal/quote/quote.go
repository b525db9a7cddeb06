// Package quote supplies market snapshots and price history from the
// CoinGecko public API. The ledger core treats it as an external
// collaborator with no freshness guarantee: any fetch failure degrades to a
// static fallback set rather than surfacing an error.
package quote

import (
	"context"

	"github.com/coinswift/ledger-engine/internal/model"
)

// PricePoint is one sample of an asset's price history.
type PricePoint struct {
	Timestamp int64   `json:"timestamp"` // unix milliseconds
	Price     float64 `json:"price"`
}

// Source provides quote snapshots on demand. Implementations never return
// errors; degraded data (the static fallback) stands in when the upstream
// API is unavailable.
type Source interface {
	// Fetch returns a snapshot of current market quotes.
	Fetch(ctx context.Context) []model.Coin

	// FetchHistory returns an asset's price series over the given window
	// ("1", "7", or "30" days).
	FetchHistory(ctx context.Context, assetID, days string) []PricePoint
}
