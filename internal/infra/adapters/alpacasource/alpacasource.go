// Package alpacasource adapts the Alpaca Market Data API into a
// marketdata.Source, a second alternate provider alongside polygonsource,
// mirroring the teacher's multi-provider marketdata.Client fallback
// chain. Disabled by default; selected via config.
package alpacasource

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"merco-go/internal/apperr"
	"merco-go/internal/candle"
	md "merco-go/internal/marketdata"
	"merco-go/internal/timeframe"
)

const exchangeName = "alpaca"

// Config holds Alpaca API credentials.
type Config struct {
	APIKey    string
	APISecret string
	BaseURL   string
}

// Source implements marketdata.Source over Alpaca's bars API.
type Source struct {
	client *marketdata.Client
}

// New builds a Source from API credentials.
func New(cfg Config) *Source {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://data.alpaca.markets"
	}
	client := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
		BaseURL:   baseURL,
	})
	return &Source{client: client}
}

func (s *Source) ListExchanges(_ context.Context) ([]string, error) {
	return []string{exchangeName}, nil
}

func (s *Source) ListSymbols(_ context.Context, _ string) ([]string, error) {
	return nil, apperr.Upstream("alpacasource: list symbols", fmt.Errorf("alpaca market data has no bare symbol-listing endpoint"))
}

func (s *Source) ListTimeframes(_ context.Context, _ string) (map[timeframe.Timeframe]string, error) {
	return map[timeframe.Timeframe]string{
		timeframe.Minute1: "1m", timeframe.Minute5: "5m", timeframe.Minute15: "15m",
		timeframe.Hour1: "1h", timeframe.Day1: "1d", timeframe.Week1: "1w",
	}, nil
}

func alpacaTimeFrame(tf timeframe.Timeframe) (marketdata.TimeFrame, error) {
	switch tf {
	case timeframe.Minute1:
		return marketdata.NewTimeFrame(1, marketdata.Min), nil
	case timeframe.Minute5:
		return marketdata.NewTimeFrame(5, marketdata.Min), nil
	case timeframe.Minute15:
		return marketdata.NewTimeFrame(15, marketdata.Min), nil
	case timeframe.Hour1:
		return marketdata.NewTimeFrame(1, marketdata.Hour), nil
	case timeframe.Day1:
		return marketdata.NewTimeFrame(1, marketdata.Day), nil
	case timeframe.Week1:
		return marketdata.NewTimeFrame(1, marketdata.Week), nil
	default:
		return marketdata.TimeFrame{}, fmt.Errorf("alpacasource: unsupported timeframe %s", tf)
	}
}

func (s *Source) FetchCandles(ctx context.Context, exchange, symbol string, tf timeframe.Timeframe, since *time.Time, limit int) ([]candle.Candle, error) {
	alpacaTF, err := alpacaTimeFrame(tf)
	if err != nil {
		return nil, apperr.Upstream("alpacasource: fetch candles", err)
	}
	if limit <= 0 {
		limit = 500
	}
	end := time.Now()
	start := end.Add(-tf.Duration() * time.Duration(limit))
	if since != nil {
		start = *since
	}

	bars, err := s.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame:  alpacaTF,
		Start:      start,
		End:        end,
		TotalLimit: limit,
	})
	if err != nil {
		return nil, apperr.Upstream("alpacasource: fetch candles", err)
	}

	out := make([]candle.Candle, 0, len(bars))
	for _, bar := range bars {
		out = append(out, candle.Candle{
			Timestamp: bar.Timestamp.UTC(),
			Exchange:  exchangeName,
			Symbol:    symbol,
			Timeframe: tf,
			Open:      decimal.NewFromFloat(bar.Open),
			High:      decimal.NewFromFloat(bar.High),
			Low:       decimal.NewFromFloat(bar.Low),
			Close:     decimal.NewFromFloat(bar.Close),
			Volume:    decimal.NewFromFloat(float64(bar.Volume)),
		})
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

// Fees returns Alpaca's commission-free-trading assumption.
func (s *Source) Fees(_ context.Context, _, _ string) (md.Fees, error) {
	return md.Fees{Maker: decimal.Zero, Taker: decimal.Zero}, nil
}

// Precision returns the standard US-equity cent/share tick; Alpaca does
// not publish per-symbol precision for market data consumers.
func (s *Source) Precision(_ context.Context, _, _ string) (md.Precision, error) {
	return md.Precision{Price: decimal.NewFromFloat(0.01), Size: decimal.NewFromInt(1)}, nil
}
