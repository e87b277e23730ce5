// Package candle defines the OHLCV bar type and the repository interface
// the fetch worker and backtest engine store and read candles through.
package candle

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"merco-go/internal/timeframe"
)

// Candle is one OHLCV bar. Open/high/low/close/volume are arbitrary
// precision decimals — never binary floats. Timestamp is UTC, aligned to
// the bar's opening boundary.
type Candle struct {
	Timestamp  time.Time
	Exchange   string
	Symbol     string
	Timeframe  timeframe.Timeframe
	Open       decimal.Decimal
	High       decimal.Decimal
	Low        decimal.Decimal
	Close      decimal.Decimal
	Volume     decimal.Decimal
}

// Key identifies a candle's primary key: (exchange, symbol, timeframe, timestamp).
func (c Candle) Key() Key {
	return Key{
		Exchange:  c.Exchange,
		Symbol:    c.Symbol,
		Timeframe: c.Timeframe,
		Timestamp: c.Timestamp.UnixMilli(),
	}
}

// Key is the comparable primary key of a Candle, usable as a map key in
// in-memory repositories and dedup sets.
type Key struct {
	Exchange  string
	Symbol    string
	Timeframe timeframe.Timeframe
	Timestamp int64
}

// Repository stores and retrieves candles. Inserting a candle that
// collides on (exchange, symbol, timeframe, timestamp) is a no-op from the
// caller's point of view — implementations dedupe or reject, either is
// acceptable per spec, but neither surfaces an error to the fetch worker.
type Repository interface {
	// InsertMany bulk-upserts candles. Order is not significant; duplicates
	// within the batch or against stored rows are silently absorbed.
	InsertMany(ctx context.Context, candles []Candle) error

	// Range returns candles for (exchange, symbol, timeframe) with
	// timestamp in [start, end], ascending by timestamp. A zero start or
	// end means unbounded on that side.
	Range(ctx context.Context, exchange, symbol string, tf timeframe.Timeframe, start, end time.Time) ([]Candle, error)

	// Latest returns the most recent stored candle for
	// (exchange, symbol, timeframe), or ok=false if none exists.
	Latest(ctx context.Context, exchange, symbol string, tf timeframe.Timeframe) (c Candle, ok bool, err error)
}
