package quote_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coinswift/ledger-engine/internal/quote"
)

func TestFetch_ParsesMarketSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/markets" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("vs_currency"); got != "inr" {
			t.Errorf("expected vs_currency=inr, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":5600000},
			{"id":"ethereum","symbol":"eth","name":"Ethereum","current_price":320000}
		]`))
	}))
	defer srv.Close()

	c := quote.NewClient(srv.URL)
	coins := c.Fetch(context.Background())

	if len(coins) != 2 {
		t.Fatalf("expected 2 coins, got %d", len(coins))
	}
	if coins[0].ID != "bitcoin" || coins[0].CurrentPrice != 5_600_000 {
		t.Errorf("unexpected first coin: %+v", coins[0])
	}
}

func TestFetch_FallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := quote.NewClient(srv.URL)
	coins := c.Fetch(context.Background())

	fallback := quote.FallbackCoins()
	if len(coins) != len(fallback) {
		t.Fatalf("expected %d fallback coins, got %d", len(fallback), len(coins))
	}
	if coins[0].ID != "bitcoin" {
		t.Errorf("fallback ordering changed: %+v", coins[0])
	}
}

func TestFetch_FallsBackOnEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := quote.NewClient(srv.URL)
	coins := c.Fetch(context.Background())

	if len(coins) != len(quote.FallbackCoins()) {
		t.Errorf("empty snapshot should fall back, got %d coins", len(coins))
	}
}

func TestFetchHistory_ParsesChart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/bitcoin/market_chart" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("days"); got != "7" {
			t.Errorf("expected days=7, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"prices":[[1700000000000,5500000],[1700086400000,5600000]]}`))
	}))
	defer srv.Close()

	c := quote.NewClient(srv.URL)
	points := c.FetchHistory(context.Background(), "bitcoin", "7")

	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].Timestamp != 1700000000000 || points[0].Price != 5_500_000 {
		t.Errorf("unexpected first point: %+v", points[0])
	}
}

func TestFetchHistory_SyntheticFallbackShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := quote.NewClient(srv.URL)

	tests := []struct {
		days string
		want int
	}{
		{"1", 24},
		{"7", 7},
		{"30", 30},
		{"90", 30},
	}
	for _, tt := range tests {
		points := c.FetchHistory(context.Background(), "bitcoin", tt.days)
		if len(points) != tt.want {
			t.Errorf("days=%s: expected %d synthetic points, got %d", tt.days, tt.want, len(points))
		}
		for i := 1; i < len(points); i++ {
			if points[i].Timestamp <= points[i-1].Timestamp {
				t.Errorf("days=%s: timestamps not ascending at index %d", tt.days, i)
				break
			}
		}
		for _, p := range points {
			if p.Price < 0 {
				t.Errorf("days=%s: negative synthetic price %v", tt.days, p.Price)
			}
		}
	}
}

func TestFallbackCoins_ReturnsCopy(t *testing.T) {
	first := quote.FallbackCoins()
	first[0].CurrentPrice = -1

	second := quote.FallbackCoins()
	if second[0].CurrentPrice < 0 {
		t.Error("mutating the returned slice leaked into the fallback set")
	}
}
