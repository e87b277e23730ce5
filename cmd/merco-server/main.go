// Command merco-server runs the market-data acquisition and strategy
// backtesting service: it exposes the §6 HTTP surface over a Postgres
// candle store, a pluggable MarketDataSource, and the task orchestrator
// driving fetch and backtest runs, the way
// services/jax-market/cmd/jax-market wires its own ingester and HTTP
// server together.
package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"merco-go/internal/backtest"
	"merco-go/internal/candle"
	"merco-go/internal/config"
	"merco-go/internal/fetchworker"
	"merco-go/internal/infra/adapters/alpacasource"
	"merco-go/internal/infra/adapters/httpsource"
	"merco-go/internal/infra/adapters/polygonsource"
	httpapi "merco-go/internal/infra/http"
	"merco-go/internal/infra/http/middleware"
	"merco-go/internal/infra/migrations"
	"merco-go/internal/marketdata"
	"merco-go/internal/obs"
	"merco-go/internal/strategyhost"
	"merco-go/internal/task"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := openDB(ctx, cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	if err := migrations.Up(db); err != nil {
		log.Fatalf("migrations: %v", err)
	}
	log.Printf("migrations applied")

	repo := candle.NewPostgresRepository(db)

	source, err := buildMarketDataSource(cfg)
	if err != nil {
		log.Fatalf("marketdata source: %v", err)
	}

	workspace, err := strategyhost.NewWorkspace(cfg.StrategyWorkspaceDir, "merco-go")
	if err != nil {
		log.Fatalf("strategy workspace: %v", err)
	}
	host := strategyhost.NewHost(workspace, cfg.StrategyBuildDir)

	registry := obs.NewRegistry()
	metrics := obs.NewServiceMetrics(registry)

	orchestrator := task.New(map[task.Type]task.Runner{
		task.TypeFetchCandles: fetchworker.New(source, repo),
		task.TypeBacktest:     backtest.New(repo, source, host),
	}, task.WithMetrics(metrics))

	var jwt *middleware.JWTVerifier
	if cfg.JWTSigningKey != "" {
		jwt, err = middleware.NewJWTVerifier(cfg.JWTSigningKey)
		if err != nil {
			log.Fatalf("jwt: %v", err)
		}
	} else {
		log.Printf("JWT_SIGNING_KEY not set: task-mutating endpoints are unauthenticated")
	}

	server := httpapi.New(httpapi.Deps{
		Orchestrator: orchestrator,
		Repo:         repo,
		Source:       source,
		Workspace:    workspace,
		Registry:     registry,
		CORS:         middleware.CORSConfigFromEnv(),
		JWT:          jwt,
		RateLimit:    middleware.NewRateLimiterFromEnv(),
	})

	httpServer := &http.Server{
		Addr:    cfg.HTTPHost + ":" + strconv.Itoa(cfg.HTTPPort),
		Handler: server.Handler(),
	}

	go func() {
		log.Printf("merco-server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Printf("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http server shutdown: %v", err)
	}
}

func openDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.DBConnLifetime) * time.Second)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// buildMarketDataSource selects the configured adapter and layers the
// circuit breaker and, if REDIS_URL is set, the fees/precision cache on
// top — mirroring the teacher's marketdata.Client provider-fallback
// wiring, minus the multi-provider fallback chain itself (spec §4.7
// wires exactly one source per deployment).
func buildMarketDataSource(cfg config.Config) (marketdata.Source, error) {
	var source marketdata.Source
	switch cfg.MarketDataSource {
	case "polygon":
		source = polygonsource.New(cfg.PolygonAPIKey)
	case "alpaca":
		source = alpacasource.New(alpacasource.Config{
			APIKey:    cfg.AlpacaAPIKey,
			APISecret: cfg.AlpacaAPISecret,
			BaseURL:   cfg.AlpacaBaseURL,
		})
	default:
		source = httpsource.New(httpsource.Config{
			BaseURL: cfg.MarketDataAPIURL,
			APIKey:  cfg.MarketDataAPIKey,
		})
	}

	source = marketdata.WithCircuitBreaker(source, marketdata.DefaultBreakerConfig(cfg.MarketDataSource))

	if cfg.RedisURL != "" {
		cached, err := marketdata.WithRedisCache(source, marketdata.CacheConfig{
			Addr: cfg.RedisURL,
			TTL:  time.Duration(cfg.RedisTTL) * time.Second,
		})
		if err != nil {
			log.Printf("redis cache disabled: %v", err)
		} else {
			source = cached
		}
	}

	return source, nil
}
