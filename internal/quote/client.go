package quote

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/coinswift/ledger-engine/internal/model"
)

// DefaultBaseURL is the public CoinGecko API root.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// Client fetches quotes from the CoinGecko API over resty, with retry and
// backoff for the API's aggressive rate limiting.
type Client struct {
	http *resty.Client
}

// NewClient creates a quote client against the given API root.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second)
	return &Client{http: c}
}

// Fetch returns the market snapshot, or the static fallback set when the
// API is unreachable, rate limited, or returns nothing.
func (c *Client) Fetch(ctx context.Context) []model.Coin {
	var coins []model.Coin
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"vs_currency": "inr",
			"order":       "market_cap_desc",
			"per_page":    "50",
			"page":        "1",
			"sparkline":   "false",
		}).
		SetResult(&coins).
		Get("/coins/markets")

	if err != nil || resp.IsError() || len(coins) == 0 {
		slog.Warn("quote fetch failed, using fallback data",
			"err", err,
			"status", statusOf(resp),
		)
		return FallbackCoins()
	}
	return coins
}

// marketChart matches CoinGecko's market_chart response.
type marketChart struct {
	Prices [][2]float64 `json:"prices"`
}

// FetchHistory returns an asset's price series. On failure it synthesizes a
// random-walk series with the same shape so charts always render.
func (c *Client) FetchHistory(ctx context.Context, assetID, days string) []PricePoint {
	var chart marketChart
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"vs_currency": "inr",
			"days":        days,
		}).
		SetResult(&chart).
		Get("/coins/" + assetID + "/market_chart")

	if err != nil || resp.IsError() || len(chart.Prices) == 0 {
		slog.Warn("history fetch failed, using synthetic series",
			"asset", assetID,
			"err", err,
			"status", statusOf(resp),
		)
		return syntheticHistory(days)
	}

	points := make([]PricePoint, 0, len(chart.Prices))
	for _, p := range chart.Prices {
		points = append(points, PricePoint{Timestamp: int64(p[0]), Price: p[1]})
	}
	return points
}

// syntheticHistory builds a random walk matching the requested window:
// hourly points for one day, daily points otherwise.
func syntheticHistory(days string) []PricePoint {
	var count int
	var interval time.Duration
	switch days {
	case "1":
		count, interval = 24, time.Hour
	case "7":
		count, interval = 7, 24*time.Hour
	default:
		count, interval = 30, 24*time.Hour
	}

	now := time.Now()
	price := 50_000 + rand.Float64()*5_000
	points := make([]PricePoint, 0, count)
	for i := 0; i < count; i++ {
		price += (rand.Float64() - 0.5) * price * 0.05
		if price < 0 {
			price = 0
		}
		ts := now.Add(-time.Duration(count-1-i) * interval)
		points = append(points, PricePoint{
			Timestamp: ts.UnixMilli(),
			Price:     price,
		})
	}
	return points
}

func statusOf(resp *resty.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode()
}
