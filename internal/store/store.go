// Package store defines the persistence interface for the ledger engine.
// Implementations include Badger (local key-value, the default), PostgreSQL,
// Redis (read-through cache), and in-memory (for testing).
package store

import (
	"context"

	"github.com/coinswift/ledger-engine/internal/model"
)

// Storage keys for the two persisted collections.
const (
	HoldingsKey = "holdings"
	OrdersKey   = "orders"
)

// Store is the persistence interface for the two ledger collections.
//
// Every call is a full-collection read or a full-collection overwrite:
// there are no partial updates and no transactions spanning both
// collections. A load with nothing stored returns an empty slice, never an
// error. Concurrent writers are unguarded; the last write wins.
type Store interface {
	// LoadHoldings returns the full holdings collection.
	LoadHoldings(ctx context.Context) ([]model.Holding, error)

	// SaveHoldings overwrites the full holdings collection.
	SaveHoldings(ctx context.Context, holdings []model.Holding) error

	// LoadOrders returns the full open-orders collection.
	LoadOrders(ctx context.Context) ([]model.Order, error)

	// SaveOrders overwrites the full open-orders collection.
	SaveOrders(ctx context.Context, orders []model.Order) error
}
