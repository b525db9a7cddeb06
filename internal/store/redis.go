package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/coinswift/ledger-engine/internal/model"
)

// CachedStore wraps a primary Store with a Redis read-through cache.
// Writes go to the primary store and refresh the cached snapshot; reads
// check Redis first then fall back to the primary. Because every save is a
// whole-collection overwrite, the cached value is always a complete
// snapshot and can be refreshed on write instead of invalidated.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

func (s *CachedStore) LoadHoldings(ctx context.Context) ([]model.Holding, error) {
	data, err := s.rdb.Get(ctx, HoldingsKey).Bytes()
	if err == nil {
		var holdings []model.Holding
		if json.Unmarshal(data, &holdings) == nil {
			return holdings, nil
		}
	}

	holdings, err := s.primary.LoadHoldings(ctx)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, HoldingsKey, holdings)
	return holdings, nil
}

func (s *CachedStore) SaveHoldings(ctx context.Context, holdings []model.Holding) error {
	if err := s.primary.SaveHoldings(ctx, holdings); err != nil {
		return err
	}
	s.cache(ctx, HoldingsKey, holdings)
	return nil
}

func (s *CachedStore) LoadOrders(ctx context.Context) ([]model.Order, error) {
	data, err := s.rdb.Get(ctx, OrdersKey).Bytes()
	if err == nil {
		var orders []model.Order
		if json.Unmarshal(data, &orders) == nil {
			return orders, nil
		}
	}

	orders, err := s.primary.LoadOrders(ctx)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, OrdersKey, orders)
	return orders, nil
}

func (s *CachedStore) SaveOrders(ctx context.Context, orders []model.Order) error {
	if err := s.primary.SaveOrders(ctx, orders); err != nil {
		return err
	}
	s.cache(ctx, OrdersKey, orders)
	return nil
}

func (s *CachedStore) cache(ctx context.Context, key string, collection any) {
	if data, err := json.Marshal(collection); err == nil {
		s.rdb.Set(ctx, key, data, s.ttl)
	}
}
