package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coinswift/ledger-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL. The whole-snapshot
// contract is kept deliberately: each save truncates and rewrites one
// collection inside a single transaction, so there are never partial
// writes, and no consistency is promised across the two collections.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) LoadHoldings(ctx context.Context) ([]model.Holding, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, coin_id, symbol, name, image, amount, avg_buy_price
		 FROM holdings ORDER BY coin_id`)
	if err != nil {
		return nil, fmt.Errorf("load holdings: %w", err)
	}
	defer rows.Close()

	holdings := []model.Holding{}
	for rows.Next() {
		var h model.Holding
		if err := rows.Scan(&h.ID, &h.AssetID, &h.Symbol, &h.Name, &h.Image,
			&h.Quantity, &h.AverageCost); err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

func (s *PostgresStore) SaveHoldings(ctx context.Context, holdings []model.Holding) error {
	return s.rewrite(ctx, "holdings", func(tx pgx.Tx) error {
		for _, h := range holdings {
			_, err := tx.Exec(ctx,
				`INSERT INTO holdings (id, coin_id, symbol, name, image, amount, avg_buy_price)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				h.ID, h.AssetID, h.Symbol, h.Name, h.Image, h.Quantity, h.AverageCost)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *PostgresStore) LoadOrders(ctx context.Context) ([]model.Order, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, side, coin_id, symbol, name, image,
		        amount_inr, limit_price, quantity, status, created_at
		 FROM orders ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.Side, &o.AssetID, &o.Symbol, &o.Name, &o.Image,
			&o.NotionalAmount, &o.LimitPrice, &o.Quantity, &o.Status, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *PostgresStore) SaveOrders(ctx context.Context, orders []model.Order) error {
	return s.rewrite(ctx, "orders", func(tx pgx.Tx) error {
		for _, o := range orders {
			_, err := tx.Exec(ctx,
				`INSERT INTO orders (id, side, coin_id, symbol, name, image,
				                     amount_inr, limit_price, quantity, status, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
				o.ID, o.Side, o.AssetID, o.Symbol, o.Name, o.Image,
				o.NotionalAmount, o.LimitPrice, o.Quantity, o.Status, o.CreatedAt)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// rewrite truncates one collection table and re-inserts the snapshot in a
// single transaction.
func (s *PostgresStore) rewrite(ctx context.Context, table string, insert func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("save %s: %w", table, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("save %s: %w", table, err)
	}
	if err := insert(tx); err != nil {
		return fmt.Errorf("save %s: %w", table, err)
	}
	return tx.Commit(ctx)
}
