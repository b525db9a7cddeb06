package store

import (
	"context"
	"sync"

	"github.com/coinswift/ledger-engine/internal/model"
)

// MemoryStore implements Store with in-memory slices. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu       sync.RWMutex
	holdings []model.Holding
	orders   []model.Order

	// SaveCount tallies writes per collection so tests can assert that
	// no-op evaluations skip the store.
	saveHoldings int
	saveOrders   int
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) LoadHoldings(_ context.Context) ([]model.Holding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Holding, len(s.holdings))
	copy(out, s.holdings)
	return out, nil
}

func (s *MemoryStore) SaveHoldings(_ context.Context, holdings []model.Holding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.holdings = make([]model.Holding, len(holdings))
	copy(s.holdings, holdings)
	s.saveHoldings++
	return nil
}

func (s *MemoryStore) LoadOrders(_ context.Context) ([]model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Order, len(s.orders))
	copy(out, s.orders)
	return out, nil
}

func (s *MemoryStore) SaveOrders(_ context.Context, orders []model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders = make([]model.Order, len(orders))
	copy(s.orders, orders)
	s.saveOrders++
	return nil
}

// HoldingsSaves returns how many times SaveHoldings has been called.
func (s *MemoryStore) HoldingsSaves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saveHoldings
}

// OrdersSaves returns how many times SaveOrders has been called.
func (s *MemoryStore) OrdersSaves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saveOrders
}
