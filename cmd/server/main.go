package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/coinswift/ledger-engine/internal/ledger"
	"github.com/coinswift/ledger-engine/internal/metrics"
	"github.com/coinswift/ledger-engine/internal/quote"
	"github.com/coinswift/ledger-engine/internal/store"
	"github.com/coinswift/ledger-engine/internal/trade"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// --- Initialize store ---
	var st store.Store
	var cleanup []func()

	switch {
	case os.Getenv("DATABASE_URL") != "":
		pool, err := pgxpool.New(context.Background(), os.Getenv("DATABASE_URL"))
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		st = store.NewPostgresStore(pool)
		slog.Info("connected to PostgreSQL")

		// Wrap with Redis read-through cache if configured.
		if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
			opt, err := redis.ParseURL(redisURL)
			if err != nil {
				slog.Error("invalid REDIS_URL", "err", err)
				os.Exit(1)
			}
			rdb := redis.NewClient(opt)
			cleanup = append(cleanup, func() { rdb.Close() })
			st = store.NewCachedStore(st, rdb, 30*time.Second)
			slog.Info("Redis cache enabled")
		}

	case os.Getenv("LEDGER_STORE") == "memory":
		slog.Warn("using in-memory store (data will not persist)")
		st = store.NewMemoryStore()

	default:
		path := os.Getenv("LEDGER_DB_PATH")
		if path == "" {
			path = "data/ledger"
		}
		bs, err := store.OpenBadger(path)
		if err != nil {
			slog.Error("badger open failed", "path", path, "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, func() { bs.Close() })
		st = bs
		slog.Info("badger ledger store opened", "path", path)
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Engine configuration ---
	cfg := ledger.DefaultConfig()
	if v := envFloat("MIN_TRADE_AMOUNT"); v > 0 {
		cfg.MinNotional = v
	}
	if v := envFloat("MAX_TRADE_AMOUNT"); v > 0 {
		cfg.MaxNotional = v
	}

	holdings := ledger.NewHoldings(st, cfg)
	book := ledger.NewBook(st, holdings)

	// --- Quote source ---
	quotes := quote.NewClient(os.Getenv("QUOTE_API_URL"))

	// --- WebSocket hub ---
	wsHub := trade.NewWSHub()
	go wsHub.Run()

	// --- Trade service ---
	tradeSvc := trade.NewService(holdings, book, quotes, cfg, wsHub)

	// Realize fills pending from a previous session before serving.
	if filled, err := tradeSvc.EvaluateOpenOrders(context.Background()); err != nil {
		slog.Error("startup order evaluation failed", "err", err)
	} else if len(filled) > 0 {
		slog.Info("startup order evaluation", "filled", len(filled))
	}

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	// CORS middleware for frontend cross-origin requests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"ledger-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket endpoint for real-time trade/fill events.
		r.Get("/ws", wsHub.HandleWS)

		// Market data.
		r.Get("/markets", tradeSvc.ListMarkets)
		r.Get("/markets/{assetID}/history", tradeSvc.GetMarketHistory)

		// Trade execution.
		r.Post("/trade", tradeSvc.ExecuteTrade)

		// Resting orders.
		r.Get("/orders", tradeSvc.ListOrders)
		r.Post("/orders/evaluate", tradeSvc.EvaluateOrders)
		r.Delete("/orders/{orderID}", tradeSvc.CancelOrder)

		// Portfolio.
		r.Get("/portfolio", tradeSvc.GetPortfolio)
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("ledger-engine listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down ledger-engine...")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("ledger-engine stopped")
}

// envFloat parses a float environment variable, returning 0 when unset or
// malformed.
func envFloat(key string) float64 {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("ignoring invalid numeric env var", "key", key, "value", v)
		return 0
	}
	return f
}
