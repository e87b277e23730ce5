// Package marketdata defines the upstream market-data collaborator
// described in spec §4.7: an opaque adapter over whatever exchange or
// vendor API supplies candle history, fee schedules and symbol precision.
// Concrete adapters live in internal/infra/adapters/*; this package only
// fixes the contract every adapter implements and a fee/precision value
// type shared by the backtest engine.
package marketdata

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"merco-go/internal/candle"
	"merco-go/internal/timeframe"
)

// Fees is a symbol's maker/taker fee schedule, expressed as a fraction of
// notional (e.g. 0.001 for 10bps).
type Fees struct {
	Maker decimal.Decimal
	Taker decimal.Decimal
}

// Precision is a symbol's tick sizes, used to round order sizes down and
// fees up per the floor-to-tick / ceil-to-tick contract.
type Precision struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// Source is the MarketDataSource collaborator interface from spec §4.7.
// Every method except ListExchanges is scoped to an exchange; FetchCandles,
// FirstCandle, Fees and Precision are additionally scoped to a symbol.
type Source interface {
	ListExchanges(ctx context.Context) ([]string, error)
	ListSymbols(ctx context.Context, exchange string) ([]string, error)
	ListTimeframes(ctx context.Context, exchange string) (map[timeframe.Timeframe]string, error)

	// FetchCandles returns one page of candles at or after since, in
	// ascending timestamp order. A nil since requests the earliest page
	// the source can serve. The source chooses its own page size; an
	// empty result means there is nothing more to return.
	FetchCandles(ctx context.Context, exchange, symbol string, tf timeframe.Timeframe, since *time.Time, limit int) ([]candle.Candle, error)

	// FirstCandle returns the earliest bar the source has for a symbol,
	// or (nil, nil) if the source has no history for it at all.
	FirstCandle(ctx context.Context, exchange, symbol string, tf timeframe.Timeframe) (*candle.Candle, error)

	Fees(ctx context.Context, exchange, symbol string) (Fees, error)
	Precision(ctx context.Context, exchange, symbol string) (Precision, error)
}
