// Package polygonsource adapts polygon.io's aggregates API into a
// marketdata.Source, selectable as an alternate candle provider the way
// the teacher's marketdata.Client falls back across polygon/alpaca/IB.
// Polygon has no notion of per-exchange listing or fee schedules for the
// equities it covers, so ListExchanges/Fees/Precision return fixed,
// documented values rather than pretending to query an endpoint that
// doesn't exist.
package polygonsource

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/shopspring/decimal"

	"merco-go/internal/apperr"
	"merco-go/internal/candle"
	"merco-go/internal/marketdata"
	"merco-go/internal/timeframe"
)

// exchangeName is the only "exchange" this adapter knows: polygon serves
// consolidated US-equity data, not a venue-by-venue feed.
const exchangeName = "polygon"

// Source implements marketdata.Source over polygon.io's REST aggregates.
type Source struct {
	client *polygon.Client
}

// New builds a Source authenticated with an API key.
func New(apiKey string) *Source {
	return &Source{client: polygon.New(apiKey)}
}

func (s *Source) ListExchanges(_ context.Context) ([]string, error) {
	return []string{exchangeName}, nil
}

func (s *Source) ListSymbols(_ context.Context, _ string) ([]string, error) {
	return nil, apperr.Upstream("polygonsource: list symbols", fmt.Errorf("polygon has no bare symbol-listing endpoint; pass a ticker directly"))
}

func (s *Source) ListTimeframes(_ context.Context, _ string) (map[timeframe.Timeframe]string, error) {
	return map[timeframe.Timeframe]string{
		timeframe.Minute1: "1m", timeframe.Minute5: "5m", timeframe.Minute15: "15m",
		timeframe.Hour1: "1h", timeframe.Day1: "1d", timeframe.Week1: "1w",
	}, nil
}

func polygonTimespan(tf timeframe.Timeframe) (int, models.Timespan, error) {
	switch tf {
	case timeframe.Minute1:
		return 1, models.Minute, nil
	case timeframe.Minute5:
		return 5, models.Minute, nil
	case timeframe.Minute15:
		return 15, models.Minute, nil
	case timeframe.Hour1:
		return 1, models.Hour, nil
	case timeframe.Day1:
		return 1, models.Day, nil
	case timeframe.Week1:
		return 1, models.Week, nil
	default:
		return 0, "", fmt.Errorf("polygonsource: unsupported timeframe %s", tf)
	}
}

func (s *Source) FetchCandles(ctx context.Context, exchange, symbol string, tf timeframe.Timeframe, since *time.Time, limit int) ([]candle.Candle, error) {
	multiplier, timespan, err := polygonTimespan(tf)
	if err != nil {
		return nil, apperr.Upstream("polygonsource: fetch candles", err)
	}
	if limit <= 0 {
		limit = 500
	}
	from := time.Now().Add(-tf.Duration() * time.Duration(limit))
	if since != nil {
		from = *since
	}
	to := time.Now()

	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(from),
		To:         models.Millis(to),
	}.WithLimit(limit)

	iter := s.client.ListAggs(ctx, params)
	out := make([]candle.Candle, 0, limit)
	for iter.Next() {
		agg := iter.Item()
		out = append(out, candle.Candle{
			Timestamp: time.Time(agg.Timestamp).UTC(),
			Exchange:  exchangeName,
			Symbol:    symbol,
			Timeframe: tf,
			Open:      decimal.NewFromFloat(agg.Open),
			High:      decimal.NewFromFloat(agg.High),
			Low:       decimal.NewFromFloat(agg.Low),
			Close:     decimal.NewFromFloat(agg.Close),
			Volume:    decimal.NewFromFloat(agg.Volume),
		})
	}
	if iter.Err() != nil {
		return nil, apperr.Upstream("polygonsource: fetch candles", iter.Err())
	}
	return out, nil
}

func (s *Source) FirstCandle(ctx context.Context, exchange, symbol string, tf timeframe.Timeframe) (*candle.Candle, error) {
	page, err := s.FetchCandles(ctx, exchange, symbol, tf, nil, 1)
	if err != nil {
		return nil, err
	}
	if len(page) == 0 {
		return nil, nil
	}
	return &page[0], nil
}

// Fees returns polygon's own commission-free-data assumption: it has no
// fee-schedule endpoint, since it is a data vendor, not an exchange.
func (s *Source) Fees(_ context.Context, _, _ string) (marketdata.Fees, error) {
	return marketdata.Fees{Maker: decimal.Zero, Taker: decimal.Zero}, nil
}

// Precision returns a conservative default cent/share tick; polygon does
// not publish per-symbol precision.
func (s *Source) Precision(_ context.Context, _, _ string) (marketdata.Precision, error) {
	return marketdata.Precision{Price: decimal.NewFromFloat(0.01), Size: decimal.NewFromInt(1)}, nil
}
