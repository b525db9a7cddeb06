package ledger_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/coinswift/ledger-engine/internal/ledger"
	"github.com/coinswift/ledger-engine/internal/model"
	"github.com/coinswift/ledger-engine/internal/store"
)

func newBook(t *testing.T) (*ledger.Book, *ledger.Holdings, *store.MemoryStore) {
	t.Helper()
	ms := store.NewMemoryStore()
	h := ledger.NewHoldings(ms, ledger.DefaultConfig())
	return ledger.NewBook(ms, h), h, ms
}

func buyIntent(assetID string, notional, limit float64) ledger.PlaceIntent {
	return ledger.PlaceIntent{
		Side:           model.SideBuy,
		AssetID:        assetID,
		Meta:           model.DisplayMeta{Symbol: "btc", Name: "Bitcoin"},
		NotionalAmount: notional,
		LimitPrice:     limit,
		Quantity:       notional / limit,
	}
}

func sellIntent(assetID string, notional, limit float64) ledger.PlaceIntent {
	i := buyIntent(assetID, notional, limit)
	i.Side = model.SideSell
	return i
}

func quoteAt(assetID string, price float64) []model.Coin {
	return []model.Coin{{ID: assetID, Symbol: "btc", Name: "Bitcoin", CurrentPrice: price}}
}

func loadOrders(t *testing.T, ms *store.MemoryStore) []model.Order {
	t.Helper()
	orders, err := ms.LoadOrders(context.Background())
	if err != nil {
		t.Fatalf("load orders: %v", err)
	}
	return orders
}

func TestPlace_BuyDoesNotTouchHoldings(t *testing.T) {
	b, _, ms := newBook(t)

	order, err := b.Place(context.Background(), buyIntent("bitcoin", 1000, 50))
	if err != nil {
		t.Fatalf("place failed: %v", err)
	}
	if order.Status != model.StatusOpen {
		t.Errorf("expected OPEN order, got %s", order.Status)
	}
	if order.Quantity != 20 {
		t.Errorf("expected quantity 20, got %v", order.Quantity)
	}

	if holdings := loadHoldings(t, ms); len(holdings) != 0 {
		t.Errorf("BUY placement must not touch holdings: %+v", holdings)
	}
	if orders := loadOrders(t, ms); len(orders) != 1 {
		t.Errorf("expected 1 persisted order, got %d", len(orders))
	}
}

func TestPlace_SellEscrowsImmediately(t *testing.T) {
	b, h, ms := newBook(t)
	ctx := context.Background()

	h.Credit(ctx, "bitcoin", 0.02, 5_600_000, btcMeta)

	if _, err := b.Place(ctx, sellIntent("bitcoin", 112_000, 5_600_000)); err != nil {
		t.Fatalf("place failed: %v", err)
	}

	// 112000 / 5600000 = 0.02, the whole position.
	if holdings := loadHoldings(t, ms); len(holdings) != 0 {
		t.Errorf("expected holdings escrowed to zero, got %+v", holdings)
	}
	if orders := loadOrders(t, ms); len(orders) != 1 {
		t.Errorf("expected 1 persisted order, got %d", len(orders))
	}
}

func TestPlace_SellInsufficientHoldings(t *testing.T) {
	b, _, ms := newBook(t)

	_, err := b.Place(context.Background(), sellIntent("bitcoin", 112_000, 5_600_000))
	if !errors.Is(err, ledger.ErrInsufficientHoldings) {
		t.Fatalf("expected ErrInsufficientHoldings, got %v", err)
	}
	if orders := loadOrders(t, ms); len(orders) != 0 {
		t.Errorf("failed placement must not record an order: %+v", orders)
	}
}

func TestCancel_UnknownOrderIsNoop(t *testing.T) {
	b, _, ms := newBook(t)
	ctx := context.Background()

	b.Place(ctx, buyIntent("bitcoin", 1000, 50))

	if err := b.Cancel(ctx, "no-such-order"); err != nil {
		t.Fatalf("unknown cancel should be a no-op: %v", err)
	}
	if orders := loadOrders(t, ms); len(orders) != 1 {
		t.Errorf("no-op cancel must not change orders: %d", len(orders))
	}
}

func TestCancel_SellRefundsEscrowAtLimitPrice(t *testing.T) {
	b, h, ms := newBook(t)
	ctx := context.Background()

	h.Credit(ctx, "bitcoin", 0.02, 5_600_000, btcMeta)
	order, err := b.Place(ctx, sellIntent("bitcoin", 120_000, 6_000_000))
	if err != nil {
		t.Fatalf("place failed: %v", err)
	}

	if err := b.Cancel(ctx, order.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	holdings := loadHoldings(t, ms)
	if len(holdings) != 1 {
		t.Fatalf("expected escrow returned, got %+v", holdings)
	}
	if math.Abs(holdings[0].Quantity-0.02) > 1e-8 {
		t.Errorf("expected quantity 0.02 restored, got %v", holdings[0].Quantity)
	}
	// The refund is valued at the order's limit price, not the original
	// market price.
	if holdings[0].AverageCost != 6_000_000 {
		t.Errorf("expected refund at limit price 6000000, got %v", holdings[0].AverageCost)
	}
	if orders := loadOrders(t, ms); len(orders) != 0 {
		t.Errorf("cancelled order must be removed, got %+v", orders)
	}
}

func TestCancel_BuyRemovesWithoutHoldingsChange(t *testing.T) {
	b, _, ms := newBook(t)
	ctx := context.Background()

	order, _ := b.Place(ctx, buyIntent("bitcoin", 1000, 50))
	if err := b.Cancel(ctx, order.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if holdings := loadHoldings(t, ms); len(holdings) != 0 {
		t.Errorf("BUY cancel must not credit holdings: %+v", holdings)
	}
	if orders := loadOrders(t, ms); len(orders) != 0 {
		t.Errorf("expected empty order book, got %+v", orders)
	}
}

func TestEvaluate_BuyFillsAtOrBelowLimit(t *testing.T) {
	b, _, ms := newBook(t)
	ctx := context.Background()

	b.Place(ctx, buyIntent("bitcoin", 1000, 50))

	// Boundary inclusive: price == limit fills.
	filled, err := b.Evaluate(ctx, quoteAt("bitcoin", 50))
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if len(filled) != 1 {
		t.Fatalf("expected 1 fill at boundary, got %d", len(filled))
	}
	if filled[0].Status != model.StatusFilled {
		t.Errorf("expected FILLED status, got %s", filled[0].Status)
	}

	// BUY fill credits at the limit price, simulating a guaranteed fill.
	holdings := loadHoldings(t, ms)
	if len(holdings) != 1 {
		t.Fatalf("expected credited holding, got %+v", holdings)
	}
	if holdings[0].Quantity != 20 || holdings[0].AverageCost != 50 {
		t.Errorf("expected 20 units at cost 50, got %v @ %v",
			holdings[0].Quantity, holdings[0].AverageCost)
	}
	if orders := loadOrders(t, ms); len(orders) != 0 {
		t.Errorf("filled order must be dropped from the collection: %+v", orders)
	}
}

func TestEvaluate_SellFillsAtOrAboveLimit(t *testing.T) {
	b, h, ms := newBook(t)
	ctx := context.Background()

	h.Credit(ctx, "bitcoin", 20, 40, btcMeta)
	b.Place(ctx, sellIntent("bitcoin", 1000, 50))

	filled, err := b.Evaluate(ctx, quoteAt("bitcoin", 50))
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if len(filled) != 1 {
		t.Fatalf("expected 1 fill at boundary, got %d", len(filled))
	}

	// Escrow already left holdings at placement; the fill changes nothing.
	if holdings := loadHoldings(t, ms); len(holdings) != 0 {
		t.Errorf("SELL fill must not touch holdings: %+v", holdings)
	}
}

func TestEvaluate_NoMatchLeavesOrdersOpenWithoutWrite(t *testing.T) {
	b, _, ms := newBook(t)
	ctx := context.Background()

	b.Place(ctx, buyIntent("bitcoin", 1000, 50))
	savesBefore := ms.OrdersSaves()

	filled, err := b.Evaluate(ctx, quoteAt("bitcoin", 51))
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if len(filled) != 0 {
		t.Fatalf("price above BUY limit must not fill, got %d", len(filled))
	}

	orders := loadOrders(t, ms)
	if len(orders) != 1 || orders[0].Status != model.StatusOpen {
		t.Errorf("order should remain OPEN: %+v", orders)
	}
	if ms.OrdersSaves() != savesBefore {
		t.Error("no-change evaluation must not write to the store")
	}
}

func TestEvaluate_MissingQuoteSkipsOrder(t *testing.T) {
	b, _, ms := newBook(t)
	ctx := context.Background()

	b.Place(ctx, buyIntent("bitcoin", 1000, 50))

	filled, err := b.Evaluate(ctx, quoteAt("ethereum", 1))
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if len(filled) != 0 {
		t.Errorf("order without a quote must not fill, got %d", len(filled))
	}
	if orders := loadOrders(t, ms); len(orders) != 1 {
		t.Errorf("order should survive: %+v", orders)
	}
}

func TestEvaluate_MixedBook(t *testing.T) {
	b, h, ms := newBook(t)
	ctx := context.Background()

	h.Credit(ctx, "ethereum", 100, 30, model.DisplayMeta{Symbol: "eth", Name: "Ethereum"})

	fills, _ := b.Place(ctx, buyIntent("bitcoin", 1000, 50))
	stays, _ := b.Place(ctx, buyIntent("bitcoin", 1000, 40))
	sell := sellIntent("ethereum", 1000, 40)
	sell.Meta = model.DisplayMeta{Symbol: "eth", Name: "Ethereum"}
	sellOrder, err := b.Place(ctx, sell)
	if err != nil {
		t.Fatalf("place sell: %v", err)
	}

	quotes := []model.Coin{
		{ID: "bitcoin", CurrentPrice: 45},  // fills the 50 buy, not the 40 buy
		{ID: "ethereum", CurrentPrice: 42}, // fills the 40 sell
	}
	filled, err := b.Evaluate(ctx, quotes)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if len(filled) != 2 {
		t.Fatalf("expected 2 fills, got %d", len(filled))
	}

	filledIDs := map[string]bool{}
	for _, o := range filled {
		filledIDs[o.ID] = true
	}
	if !filledIDs[fills.ID] || !filledIDs[sellOrder.ID] {
		t.Errorf("unexpected fill set: %+v", filledIDs)
	}

	orders := loadOrders(t, ms)
	if len(orders) != 1 || orders[0].ID != stays.ID {
		t.Errorf("expected only the unmatched order to remain: %+v", orders)
	}
}

func TestEvaluate_EmptyBook(t *testing.T) {
	b, _, _ := newBook(t)

	filled, err := b.Evaluate(context.Background(), quoteAt("bitcoin", 50))
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if len(filled) != 0 {
		t.Errorf("empty book should produce no fills, got %d", len(filled))
	}
}
