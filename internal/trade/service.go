// Package trade provides the HTTP handlers and business logic surrounding
// the ledger engine: executing trade intents, managing resting orders, and
// querying the portfolio against live quotes.
package trade

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/coinswift/ledger-engine/internal/ledger"
	"github.com/coinswift/ledger-engine/internal/metrics"
	"github.com/coinswift/ledger-engine/internal/model"
	"github.com/coinswift/ledger-engine/internal/quote"
)

// Service handles trade intents and order management. A mutex serializes
// ledger mutations within this process; cross-process writers against the
// same store are unguarded (last write wins), which is an accepted
// limitation of the snapshot persistence contract.
type Service struct {
	holdings *ledger.Holdings
	book     *ledger.Book
	quotes   quote.Source
	cfg      ledger.Config
	mu       sync.Mutex
	wsHub    *WSHub // optional WebSocket hub for real-time broadcasts
}

// NewService creates a new trade service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(holdings *ledger.Holdings, book *ledger.Book, quotes quote.Source, cfg ledger.Config, hub *WSHub) *Service {
	return &Service{
		holdings: holdings,
		book:     book,
		quotes:   quotes,
		cfg:      cfg,
		wsHub:    hub,
	}
}

// --- Request/Response types ---

// TradeRequest is the JSON body for POST /trade.
type TradeRequest struct {
	AssetID    string  `json:"coin_id"`
	Side       string  `json:"side"`        // "BUY" or "SELL"
	OrderType  string  `json:"order_type"`  // "MARKET" or "LIMIT"
	Amount     float64 `json:"amount_inr"`  // notional in units of account
	LimitPrice float64 `json:"limit_price"` // required for LIMIT intents
}

// TradeResponse is the JSON body returned from POST /trade.
type TradeResponse struct {
	TradeID   string       `json:"trade_id"`
	AssetID   string       `json:"coin_id"`
	Side      string       `json:"side"`
	OrderType string       `json:"order_type"`
	Quantity  float64      `json:"quantity"`
	Price     float64      `json:"price"`
	Amount    float64      `json:"amount_inr"`
	Order     *model.Order `json:"order,omitempty"` // set for LIMIT intents
}

// PortfolioItem is one holding joined with its live quote.
type PortfolioItem struct {
	model.Holding
	CurrentPrice float64 `json:"current_price"`
	CurrentValue float64 `json:"current_value"`
	InvestedCost float64 `json:"invested_cost"`
	ProfitLoss   float64 `json:"profit_loss"`
}

// PortfolioResponse aggregates all holdings with P&L totals.
type PortfolioResponse struct {
	Items      []PortfolioItem `json:"items"`
	TotalValue float64         `json:"total_value"`
	TotalCost  float64         `json:"total_cost"`
	TotalPnL   float64         `json:"total_pnl"`
}

// EvaluateResponse is returned from POST /orders/evaluate.
type EvaluateResponse struct {
	Filled []model.Order `json:"filled"`
	Count  int           `json:"count"`
}

// --- HTTP Handlers ---

// ExecuteTrade handles POST /api/v1/trade.
// Validates the intent, then dispatches: market intents mutate holdings
// immediately, limit intents become resting orders. A rejected intent
// leaves the ledger untouched.
func (s *Service) ExecuteTrade(w http.ResponseWriter, r *http.Request) {
	var req TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// --- Input validation ---
	if req.Side != model.SideBuy && req.Side != model.SideSell {
		s.reject(w, "side must be BUY or SELL", "validation")
		return
	}
	if req.OrderType != model.TypeMarket && req.OrderType != model.TypeLimit {
		s.reject(w, "order_type must be MARKET or LIMIT", "validation")
		return
	}
	if req.Amount <= 0 {
		s.reject(w, "a positive amount is required", "validation")
		return
	}
	if req.OrderType == model.TypeLimit && req.LimitPrice <= 0 {
		s.reject(w, "a positive limit price is required", "validation")
		return
	}
	if req.Amount < s.cfg.MinNotional {
		s.reject(w, fmt.Sprintf("minimum trade amount is %v", s.cfg.MinNotional), "bounds")
		return
	}
	if req.Amount > s.cfg.MaxNotional {
		s.reject(w, fmt.Sprintf("maximum trade amount is %v", s.cfg.MaxNotional), "bounds")
		return
	}

	ctx := r.Context()

	coin, ok := findCoin(s.quotes.Fetch(ctx), req.AssetID)
	if !ok {
		writeError(w, "unknown asset: "+req.AssetID, http.StatusNotFound)
		return
	}

	effectivePrice := coin.CurrentPrice
	if req.OrderType == model.TypeLimit {
		effectivePrice = req.LimitPrice
	}
	quantity := req.Amount / effectivePrice

	// Serialize ledger mutations.
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := TradeResponse{
		TradeID:   uuid.New().String(),
		AssetID:   req.AssetID,
		Side:      req.Side,
		OrderType: req.OrderType,
		Quantity:  quantity,
		Price:     effectivePrice,
		Amount:    req.Amount,
	}

	switch req.OrderType {
	case model.TypeMarket:
		var err error
		if req.Side == model.SideBuy {
			err = s.holdings.Credit(ctx, coin.ID, quantity, coin.CurrentPrice, coin.Meta())
		} else {
			err = s.holdings.Debit(ctx, coin.ID, quantity)
		}
		if err != nil {
			s.writeLedgerError(w, err)
			return
		}

	case model.TypeLimit:
		order, err := s.book.Place(ctx, ledger.PlaceIntent{
			Side:           req.Side,
			AssetID:        coin.ID,
			Meta:           coin.Meta(),
			NotionalAmount: req.Amount,
			LimitPrice:     req.LimitPrice,
			Quantity:       quantity,
		})
		if err != nil {
			s.writeLedgerError(w, err)
			return
		}
		resp.Order = &order
		s.syncOpenOrdersGauge(ctx)
	}

	metrics.TradesTotal.WithLabelValues(req.Side, req.OrderType).Inc()

	slog.Info("trade executed",
		"trade_id", resp.TradeID,
		"asset", req.AssetID,
		"side", req.Side,
		"type", req.OrderType,
		"quantity", quantity,
		"price", effectivePrice,
	)

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:      "trade_executed",
			TradeID:   resp.TradeID,
			AssetID:   req.AssetID,
			Symbol:    coin.Symbol,
			Side:      req.Side,
			OrderType: req.OrderType,
			Quantity:  quantity,
			Price:     effectivePrice,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ListMarkets handles GET /api/v1/markets.
// Returns the current quote snapshot (live or fallback).
func (s *Service) ListMarkets(w http.ResponseWriter, r *http.Request) {
	coins := s.quotes.Fetch(r.Context())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(coins)
}

// GetMarketHistory handles GET /api/v1/markets/{assetID}/history?days=7.
func (s *Service) GetMarketHistory(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "assetID")
	days := r.URL.Query().Get("days")
	if days == "" {
		days = "7"
	}

	points := s.quotes.FetchHistory(r.Context(), assetID, days)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(points)
}

// GetPortfolio handles GET /api/v1/portfolio.
// Joins holdings with the live quote snapshot; a holding with no live quote
// is valued at its average cost.
func (s *Service) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	holdings, err := s.holdings.List(ctx)
	if err != nil {
		writeError(w, "failed to load holdings", http.StatusInternalServerError)
		return
	}

	prices := make(map[string]float64)
	for _, c := range s.quotes.Fetch(ctx) {
		prices[c.ID] = c.CurrentPrice
	}

	resp := PortfolioResponse{Items: []PortfolioItem{}}
	for _, h := range holdings {
		price, ok := prices[h.AssetID]
		if !ok {
			price = h.AverageCost
		}
		item := PortfolioItem{
			Holding:      h,
			CurrentPrice: price,
			CurrentValue: h.Quantity * price,
			InvestedCost: h.Quantity * h.AverageCost,
		}
		item.ProfitLoss = item.CurrentValue - item.InvestedCost

		resp.Items = append(resp.Items, item)
		resp.TotalValue += item.CurrentValue
		resp.TotalCost += item.InvestedCost
	}
	resp.TotalPnL = resp.TotalValue - resp.TotalCost

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ListOrders handles GET /api/v1/orders.
func (s *Service) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.book.Open(r.Context())
	if err != nil {
		writeError(w, "failed to load orders", http.StatusInternalServerError)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(orders)
}

// CancelOrder handles DELETE /api/v1/orders/{orderID}.
// Unknown order IDs are a no-op, mirroring the cancel contract.
func (s *Service) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	ctx := r.Context()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.book.Cancel(ctx, orderID); err != nil {
		writeError(w, "failed to cancel order", http.StatusInternalServerError)
		return
	}
	s.syncOpenOrdersGauge(ctx)

	w.WriteHeader(http.StatusNoContent)
}

// EvaluateOrders handles POST /api/v1/orders/evaluate.
// Fetches a fresh quote snapshot and fills every open order whose limit is
// met. The frontend calls this once per session load.
func (s *Service) EvaluateOrders(w http.ResponseWriter, r *http.Request) {
	filled, err := s.EvaluateOpenOrders(r.Context())
	if err != nil {
		writeError(w, "failed to evaluate orders", http.StatusInternalServerError)
		return
	}
	if filled == nil {
		filled = []model.Order{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(EvaluateResponse{Filled: filled, Count: len(filled)})
}

// EvaluateOpenOrders fetches a snapshot and runs one evaluation pass. Also
// called once at startup so fills pending from a previous session are
// realized before traffic arrives.
func (s *Service) EvaluateOpenOrders(ctx context.Context) ([]model.Order, error) {
	quotes := s.quotes.Fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	filled, err := s.book.Evaluate(ctx, quotes)
	if err != nil {
		return nil, err
	}
	s.syncOpenOrdersGauge(ctx)

	for _, o := range filled {
		metrics.OrderFills.WithLabelValues(o.Side).Inc()
		if s.wsHub != nil {
			s.wsHub.Broadcast(WSMessage{
				Type:     "order_filled",
				OrderID:  o.ID,
				AssetID:  o.AssetID,
				Symbol:   o.Symbol,
				Side:     o.Side,
				Quantity: o.Quantity,
				Price:    o.LimitPrice,
			})
		}
	}
	return filled, nil
}

// --- Helpers ---

func findCoin(coins []model.Coin, assetID string) (model.Coin, bool) {
	for _, c := range coins {
		if c.ID == assetID {
			return c, true
		}
	}
	return model.Coin{}, false
}

// reject writes a validation failure and counts it.
func (s *Service) reject(w http.ResponseWriter, message, reason string) {
	metrics.TradeRejections.WithLabelValues(reason).Inc()
	writeError(w, message, http.StatusBadRequest)
}

// writeLedgerError maps engine errors to HTTP statuses: insufficient
// holdings is a business rejection, anything else is a store fault.
func (s *Service) writeLedgerError(w http.ResponseWriter, err error) {
	if errors.Is(err, ledger.ErrInsufficientHoldings) {
		metrics.TradeRejections.WithLabelValues("insufficient_holdings").Inc()
		writeError(w, err.Error(), http.StatusConflict)
		return
	}
	slog.Error("ledger operation failed", "err", err)
	writeError(w, "ledger store unavailable", http.StatusInternalServerError)
}

// syncOpenOrdersGauge refreshes the open-order gauge; gauge drift is not
// worth failing a request over, so errors are ignored.
func (s *Service) syncOpenOrdersGauge(ctx context.Context) {
	if orders, err := s.book.Open(ctx); err == nil {
		metrics.OpenOrders.Set(float64(len(orders)))
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
