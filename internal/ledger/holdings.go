package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/coinswift/ledger-engine/internal/model"
	"github.com/coinswift/ledger-engine/internal/store"
)

// Holdings owns the holdings collection. It is the sole writer of holding
// state; the order book realizes fills through it rather than touching the
// store directly. Every successful mutation persists the whole collection.
type Holdings struct {
	store store.Store
	cfg   Config
}

// NewHoldings creates a holdings manager on the given store.
func NewHoldings(st store.Store, cfg Config) *Holdings {
	return &Holdings{store: st, cfg: cfg}
}

// List returns the current holdings collection.
func (h *Holdings) List(ctx context.Context) ([]model.Holding, error) {
	return h.store.LoadHoldings(ctx)
}

// Credit adds quantity of an asset at unitPrice. A new position starts at
// averageCost = unitPrice; an existing one is re-averaged:
//
//	avg' = (q*avg + quantity*unitPrice) / (q + quantity)
//
// Selling never triggers this path, so average cost only moves on buys.
func (h *Holdings) Credit(ctx context.Context, assetID string, quantity, unitPrice float64, meta model.DisplayMeta) error {
	holdings, err := h.store.LoadHoldings(ctx)
	if err != nil {
		return fmt.Errorf("credit %s: %w", assetID, err)
	}

	found := false
	for i := range holdings {
		if holdings[i].AssetID != assetID {
			continue
		}
		existing := holdings[i]
		totalCost := existing.Quantity*existing.AverageCost + quantity*unitPrice
		totalQuantity := existing.Quantity + quantity
		holdings[i].Quantity = totalQuantity
		holdings[i].AverageCost = totalCost / totalQuantity
		found = true
		break
	}

	if !found {
		holdings = append(holdings, model.Holding{
			ID:          uuid.New().String(),
			AssetID:     assetID,
			Symbol:      meta.Symbol,
			Name:        meta.Name,
			Image:       meta.Image,
			Quantity:    quantity,
			AverageCost: unitPrice,
		})
	}

	if err := h.store.SaveHoldings(ctx, holdings); err != nil {
		return fmt.Errorf("credit %s: %w", assetID, err)
	}

	slog.Debug("holdings credited",
		"asset", assetID,
		"quantity", quantity,
		"unit_price", unitPrice,
	)
	return nil
}

// Debit removes quantity of an asset. It fails with ErrInsufficientHoldings
// when no position exists or the held quantity is short of the request by
// more than DebitEpsilon; on failure nothing is mutated. A remainder at or
// below DustThreshold removes the position entirely.
func (h *Holdings) Debit(ctx context.Context, assetID string, quantity float64) error {
	holdings, err := h.store.LoadHoldings(ctx)
	if err != nil {
		return fmt.Errorf("debit %s: %w", assetID, err)
	}

	idx := -1
	for i := range holdings {
		if holdings[i].AssetID == assetID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("%w: no position in %s", ErrInsufficientHoldings, assetID)
	}
	if holdings[idx].Quantity < quantity-h.cfg.DebitEpsilon {
		return fmt.Errorf("%w: held %v of %s, requested %v",
			ErrInsufficientHoldings, holdings[idx].Quantity, assetID, quantity)
	}

	holdings[idx].Quantity -= quantity
	if holdings[idx].Quantity <= h.cfg.DustThreshold {
		holdings = append(holdings[:idx], holdings[idx+1:]...)
		slog.Debug("position removed at dust threshold", "asset", assetID)
	}

	if err := h.store.SaveHoldings(ctx, holdings); err != nil {
		return fmt.Errorf("debit %s: %w", assetID, err)
	}

	slog.Debug("holdings debited", "asset", assetID, "quantity", quantity)
	return nil
}
