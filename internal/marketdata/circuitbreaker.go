package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"merco-go/internal/candle"
	"merco-go/internal/obs"
	"merco-go/internal/timeframe"
)

// BreakerConfig configures the circuit breaker wrapping a Source.
type BreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	MaxFailures uint32
}

// DefaultBreakerConfig mirrors the teacher's resilience defaults: trip
// after 5 consecutive failures (or a 60% failure ratio over 3+ requests),
// half-open after 30s.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:        name,
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		MaxFailures: 5,
	}
}

// breakerSource wraps any Source with a gobreaker circuit breaker: once the
// upstream starts failing consistently, calls fail fast instead of piling
// up against a down provider.
type breakerSource struct {
	inner Source
	cb    *gobreaker.CircuitBreaker[any]
	name  string
}

// WithCircuitBreaker wraps inner so that every call trips the same
// breaker; a tripped breaker returns an error wrapping gobreaker's
// open-state error immediately without calling inner at all.
func WithCircuitBreaker(inner Source, cfg BreakerConfig) Source {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && (counts.ConsecutiveFailures >= cfg.MaxFailures || failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			obs.LogEvent(context.Background(), "warn", "circuit_breaker_state_change", map[string]any{
				"breaker": name, "from": from.String(), "to": to.String(),
			})
		},
	}
	return &breakerSource{inner: inner, cb: gobreaker.NewCircuitBreaker[any](settings), name: cfg.Name}
}

func execute[T any](b *breakerSource, fn func() (T, error)) (T, error) {
	result, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, fmt.Errorf("circuit breaker %s: %w", b.name, err)
	}
	return result.(T), nil
}

func (b *breakerSource) ListExchanges(ctx context.Context) ([]string, error) {
	return execute(b, func() ([]string, error) { return b.inner.ListExchanges(ctx) })
}

func (b *breakerSource) ListSymbols(ctx context.Context, exchange string) ([]string, error) {
	return execute(b, func() ([]string, error) { return b.inner.ListSymbols(ctx, exchange) })
}

func (b *breakerSource) ListTimeframes(ctx context.Context, exchange string) (map[timeframe.Timeframe]string, error) {
	return execute(b, func() (map[timeframe.Timeframe]string, error) { return b.inner.ListTimeframes(ctx, exchange) })
}

func (b *breakerSource) FetchCandles(ctx context.Context, exchange, symbol string, tf timeframe.Timeframe, since *time.Time, limit int) ([]candle.Candle, error) {
	return execute(b, func() ([]candle.Candle, error) {
		return b.inner.FetchCandles(ctx, exchange, symbol, tf, since, limit)
	})
}

func (b *breakerSource) FirstCandle(ctx context.Context, exchange, symbol string, tf timeframe.Timeframe) (*candle.Candle, error) {
	return execute(b, func() (*candle.Candle, error) { return b.inner.FirstCandle(ctx, exchange, symbol, tf) })
}

func (b *breakerSource) Fees(ctx context.Context, exchange, symbol string) (Fees, error) {
	return execute(b, func() (Fees, error) { return b.inner.Fees(ctx, exchange, symbol) })
}

func (b *breakerSource) Precision(ctx context.Context, exchange, symbol string) (Precision, error) {
	return execute(b, func() (Precision, error) { return b.inner.Precision(ctx, exchange, symbol) })
}
