package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/coinswift/ledger-engine/internal/model"
	"github.com/coinswift/ledger-engine/internal/store"
)

// Book owns the resting-order collection. Escrows, refunds, and fills go
// through Holdings rather than the raw store, so Holdings remains the sole
// writer of holding state.
type Book struct {
	store    store.Store
	holdings *Holdings
}

// NewBook creates an order book manager on the given store and holdings
// manager.
func NewBook(st store.Store, holdings *Holdings) *Book {
	return &Book{store: st, holdings: holdings}
}

// PlaceIntent describes a validated limit-order placement.
type PlaceIntent struct {
	Side           string
	AssetID        string
	Meta           model.DisplayMeta
	NotionalAmount float64
	LimitPrice     float64
	Quantity       float64
}

// Open returns the current open-order collection.
func (b *Book) Open(ctx context.Context) ([]model.Order, error) {
	return b.store.LoadOrders(ctx)
}

// Place records a new OPEN resting order. SELL intents escrow the quantity
// by debiting holdings first; if that fails, no order is recorded. BUY
// intents touch holdings only when they fill.
func (b *Book) Place(ctx context.Context, intent PlaceIntent) (model.Order, error) {
	if intent.Side == model.SideSell {
		if err := b.holdings.Debit(ctx, intent.AssetID, intent.Quantity); err != nil {
			return model.Order{}, err
		}
	}

	order := model.Order{
		ID:             uuid.New().String(),
		Side:           intent.Side,
		AssetID:        intent.AssetID,
		Symbol:         intent.Meta.Symbol,
		Name:           intent.Meta.Name,
		Image:          intent.Meta.Image,
		NotionalAmount: intent.NotionalAmount,
		LimitPrice:     intent.LimitPrice,
		Quantity:       intent.Quantity,
		Status:         model.StatusOpen,
		CreatedAt:      time.Now().UTC(),
	}

	orders, err := b.store.LoadOrders(ctx)
	if err != nil {
		return model.Order{}, fmt.Errorf("place order: %w", err)
	}
	orders = append(orders, order)
	if err := b.store.SaveOrders(ctx, orders); err != nil {
		return model.Order{}, fmt.Errorf("place order: %w", err)
	}

	slog.Info("limit order placed",
		"order_id", order.ID,
		"side", order.Side,
		"asset", order.AssetID,
		"limit_price", order.LimitPrice,
		"quantity", order.Quantity,
	)
	return order, nil
}

// Cancel removes an open order. Unknown IDs are a no-op. Cancelling a SELL
// credits the escrowed quantity back, valued at the order's limit price.
// The order is removed from the collection rather than kept as CANCELLED.
func (b *Book) Cancel(ctx context.Context, orderID string) error {
	orders, err := b.store.LoadOrders(ctx)
	if err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}

	idx := -1
	for i := range orders {
		if orders[i].ID == orderID && orders[i].Status == model.StatusOpen {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil
	}

	order := orders[idx]
	if order.Side == model.SideSell {
		if err := b.holdings.Credit(ctx, order.AssetID, order.Quantity, order.LimitPrice, order.Meta()); err != nil {
			return fmt.Errorf("cancel order %s: %w", orderID, err)
		}
	}

	orders = append(orders[:idx], orders[idx+1:]...)
	if err := b.store.SaveOrders(ctx, orders); err != nil {
		return fmt.Errorf("cancel order %s: %w", orderID, err)
	}

	slog.Info("limit order cancelled", "order_id", orderID, "side", order.Side, "asset", order.AssetID)
	return nil
}

// Evaluate checks every open order against the quote snapshot and realizes
// fills. A BUY fills when the quote price is at or below the limit; a SELL
// fills when it is at or above. Fills execute at the limit price, not the
// live quote. Filled orders are returned and dropped from the persisted
// collection; orders with no matching quote stay OPEN untouched. When
// nothing changed, no write happens.
//
// Call it once per fresh snapshot (session load), not interleaved with
// Place/Cancel on the same snapshot.
func (b *Book) Evaluate(ctx context.Context, quotes []model.Coin) ([]model.Order, error) {
	prices := make(map[string]float64, len(quotes))
	for _, c := range quotes {
		prices[c.ID] = c.CurrentPrice
	}

	orders, err := b.store.LoadOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("evaluate orders: %w", err)
	}

	var filled []model.Order
	for i := range orders {
		if orders[i].Status != model.StatusOpen {
			continue
		}
		price, ok := prices[orders[i].AssetID]
		if !ok {
			continue
		}

		shouldFill := false
		if orders[i].Side == model.SideBuy {
			shouldFill = price <= orders[i].LimitPrice
		} else {
			shouldFill = price >= orders[i].LimitPrice
		}
		if !shouldFill {
			continue
		}

		orders[i].Status = model.StatusFilled
		if orders[i].Side == model.SideBuy {
			// SELL quantity was escrowed at placement; only BUY credits now.
			if err := b.holdings.Credit(ctx, orders[i].AssetID, orders[i].Quantity,
				orders[i].LimitPrice, orders[i].Meta()); err != nil {
				return nil, fmt.Errorf("evaluate orders: fill %s: %w", orders[i].ID, err)
			}
		}
		filled = append(filled, orders[i])

		slog.Info("limit order filled",
			"order_id", orders[i].ID,
			"side", orders[i].Side,
			"asset", orders[i].AssetID,
			"limit_price", orders[i].LimitPrice,
			"quote_price", price,
		)
	}

	if len(filled) == 0 {
		return nil, nil
	}

	open := orders[:0]
	for _, o := range orders {
		if o.Status == model.StatusOpen {
			open = append(open, o)
		}
	}
	if err := b.store.SaveOrders(ctx, open); err != nil {
		return nil, fmt.Errorf("evaluate orders: %w", err)
	}
	return filled, nil
}
