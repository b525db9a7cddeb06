package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/coinswift/ledger-engine/internal/model"
)

// BadgerStore implements Store on a local Badger key-value database. Each
// collection lives under a single key as a JSON-serialized snapshot,
// matching the whole-collection read/overwrite contract.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a Badger database at path.
func OpenBadger(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return &BadgerStore{db: db}, nil
}

// Close releases the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) LoadHoldings(_ context.Context) ([]model.Holding, error) {
	var holdings []model.Holding
	if err := s.load(HoldingsKey, &holdings); err != nil {
		return nil, err
	}
	if holdings == nil {
		holdings = []model.Holding{}
	}
	return holdings, nil
}

func (s *BadgerStore) SaveHoldings(_ context.Context, holdings []model.Holding) error {
	return s.save(HoldingsKey, holdings)
}

func (s *BadgerStore) LoadOrders(_ context.Context) ([]model.Order, error) {
	var orders []model.Order
	if err := s.load(OrdersKey, &orders); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

func (s *BadgerStore) SaveOrders(_ context.Context, orders []model.Order) error {
	return s.save(OrdersKey, orders)
}

// load reads and unmarshals one collection. A missing key is not an error;
// the destination is left nil and callers treat it as empty.
func (s *BadgerStore) load(key string, dest any) error {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	return nil
}

func (s *BadgerStore) save(key string, collection any) error {
	data, err := json.Marshal(collection)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
