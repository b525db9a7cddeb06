// Package model defines the core domain types shared across the ledger engine.
// Quantities and prices are float64 in the ledger's unit of account (INR);
// the ledger package applies explicit epsilon thresholds when comparing them.
package model

import "time"

// Order sides.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Order types.
const (
	TypeMarket = "MARKET"
	TypeLimit  = "LIMIT"
)

// Resting-order statuses. The persisted orders collection only ever holds
// OPEN orders; FILLED and CANCELLED orders are dropped after processing.
const (
	StatusOpen      = "OPEN"
	StatusFilled    = "FILLED"
	StatusCancelled = "CANCELLED"
)

// Coin is one quote-source snapshot row (CoinGecko markets shape).
type Coin struct {
	ID                       string  `json:"id"`
	Symbol                   string  `json:"symbol"`
	Name                     string  `json:"name"`
	Image                    string  `json:"image"`
	CurrentPrice             float64 `json:"current_price"`
	MarketCap                float64 `json:"market_cap"`
	MarketCapRank            int     `json:"market_cap_rank"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
	High24h                  float64 `json:"high_24h"`
	Low24h                   float64 `json:"low_24h"`
}

// Meta returns the display metadata carried into holdings and orders.
func (c Coin) Meta() DisplayMeta {
	return DisplayMeta{Symbol: c.Symbol, Name: c.Name, Image: c.Image}
}

// DisplayMeta is denormalized asset metadata copied from the quote at the
// time of first acquisition.
type DisplayMeta struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Image  string `json:"image"`
}

// Holding is one owned-asset position, keyed by AssetID.
//
// Quantity is always non-negative. AverageCost is the volume-weighted
// average purchase price; it is recomputed on every buy and never changed
// by a sell.
type Holding struct {
	ID          string  `json:"id"`
	AssetID     string  `json:"coin_id"`
	Symbol      string  `json:"symbol"`
	Name        string  `json:"name"`
	Image       string  `json:"image"`
	Quantity    float64 `json:"amount"`
	AverageCost float64 `json:"avg_buy_price"`
}

// Order is a resting limit order.
//
// Quantity is fixed at NotionalAmount/LimitPrice when the order is created
// and never recomputed against later market moves. A SELL order represents
// quantity already debited from holdings (escrowed at placement); a BUY
// order is a future credit not yet reflected in holdings.
type Order struct {
	ID             string    `json:"id"`
	Side           string    `json:"type"`
	AssetID        string    `json:"coin_id"`
	Symbol         string    `json:"symbol"`
	Name           string    `json:"name"`
	Image          string    `json:"image"`
	NotionalAmount float64   `json:"amount_inr"`
	LimitPrice     float64   `json:"limit_price"`
	Quantity       float64   `json:"quantity"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// Meta returns the order's display metadata, used when a fill or cancel
// credits holdings.
func (o Order) Meta() DisplayMeta {
	return DisplayMeta{Symbol: o.Symbol, Name: o.Name, Image: o.Image}
}
