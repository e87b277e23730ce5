package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"merco-go/internal/candle"
	"merco-go/internal/timeframe"
)

// CacheConfig configures the Redis-backed fee/precision cache. Candle
// pages are not cached: the fetch worker already tracks its own cursor,
// and caching a paginated, since-keyed query adds staleness risk for no
// benefit.
type CacheConfig struct {
	Addr string
	TTL  time.Duration
}

// cachedSource wraps a Source, caching only the two collaborator queries
// that are safe to serve stale for a short window: Fees and Precision.
// Both are looked up once per backtest/fetch run and rarely change.
type cachedSource struct {
	inner  Source
	client *redis.Client
	ttl    time.Duration
}

// WithRedisCache wraps inner with a Redis-backed Fees/Precision cache. If
// the ping fails, it returns inner unwrapped and the error, so callers can
// decide whether to run without caching.
func WithRedisCache(inner Source, cfg CacheConfig) (Source, error) {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return inner, fmt.Errorf("marketdata: connect redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &cachedSource{inner: inner, client: client, ttl: ttl}, nil
}

func (c *cachedSource) ListExchanges(ctx context.Context) ([]string, error) {
	return c.inner.ListExchanges(ctx)
}

func (c *cachedSource) ListSymbols(ctx context.Context, exchange string) ([]string, error) {
	return c.inner.ListSymbols(ctx, exchange)
}

func (c *cachedSource) ListTimeframes(ctx context.Context, exchange string) (map[timeframe.Timeframe]string, error) {
	return c.inner.ListTimeframes(ctx, exchange)
}

func (c *cachedSource) FetchCandles(ctx context.Context, exchange, symbol string, tf timeframe.Timeframe, since *time.Time, limit int) ([]candle.Candle, error) {
	return c.inner.FetchCandles(ctx, exchange, symbol, tf, since, limit)
}

func (c *cachedSource) FirstCandle(ctx context.Context, exchange, symbol string, tf timeframe.Timeframe) (*candle.Candle, error) {
	return c.inner.FirstCandle(ctx, exchange, symbol, tf)
}

func (c *cachedSource) Fees(ctx context.Context, exchange, symbol string) (Fees, error) {
	key := fmt.Sprintf("marketdata:fees:%s:%s", exchange, symbol)
	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var fees Fees
		if jsonErr := json.Unmarshal(data, &fees); jsonErr == nil {
			return fees, nil
		}
	}

	fees, err := c.inner.Fees(ctx, exchange, symbol)
	if err != nil {
		return Fees{}, err
	}
	if data, err := json.Marshal(fees); err == nil {
		_ = c.client.Set(ctx, key, data, c.ttl).Err()
	}
	return fees, nil
}

func (c *cachedSource) Precision(ctx context.Context, exchange, symbol string) (Precision, error) {
	key := fmt.Sprintf("marketdata:precision:%s:%s", exchange, symbol)
	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var p Precision
		if jsonErr := json.Unmarshal(data, &p); jsonErr == nil {
			return p, nil
		}
	}

	p, err := c.inner.Precision(ctx, exchange, symbol)
	if err != nil {
		return Precision{}, err
	}
	if data, err := json.Marshal(p); err == nil {
		_ = c.client.Set(ctx, key, data, c.ttl).Err()
	}
	return p, nil
}

// Close releases the underlying Redis connection.
func (c *cachedSource) Close() error {
	return c.client.Close()
}
