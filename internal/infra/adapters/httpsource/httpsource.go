// Package httpsource is the reference MarketDataSource implementation: a
// resty-backed REST client against an upstream candle/fee/precision API.
// It stands in for the ccxt-backed exchange adapter of the original
// implementation (see SPEC_FULL.md's REDESIGN notes) — same external
// shape (exchanges, symbols, timeframes, fetch_candles, fees, precision),
// implemented as an ordinary HTTP client instead of an FFI bridge into a
// foreign runtime.
package httpsource

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"merco-go/internal/apperr"
	"merco-go/internal/candle"
	"merco-go/internal/marketdata"
	"merco-go/internal/timeframe"
)

// Config points the adapter at an upstream REST market-data service.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Source implements marketdata.Source over a generic exchange-data REST
// API, shaped like the teacher's provider_* adapters but generalized to
// the three extra collaborator operations (exchanges, fees, precision)
// spec §4.7 requires that no teacher provider exposes.
type Source struct {
	client *resty.Client
}

// New builds a Source. The client is configured once; every method below
// issues one resty request and maps both transport and non-2xx failures
// into apperr.Upstream, mirroring the teacher's ErrProviderError wrapping.
func New(cfg Config) *Source {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	return &Source{client: client}
}

type candleDTO struct {
	Timestamp int64  `json:"timestamp"`
	Open      string `json:"open"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Close     string `json:"close"`
	Volume    string `json:"volume"`
}

func (d candleDTO) toCandle(exchange, symbol string, tf timeframe.Timeframe) (candle.Candle, error) {
	open, err := decimal.NewFromString(d.Open)
	if err != nil {
		return candle.Candle{}, fmt.Errorf("httpsource: parse open: %w", err)
	}
	high, err := decimal.NewFromString(d.High)
	if err != nil {
		return candle.Candle{}, fmt.Errorf("httpsource: parse high: %w", err)
	}
	low, err := decimal.NewFromString(d.Low)
	if err != nil {
		return candle.Candle{}, fmt.Errorf("httpsource: parse low: %w", err)
	}
	closePrice, err := decimal.NewFromString(d.Close)
	if err != nil {
		return candle.Candle{}, fmt.Errorf("httpsource: parse close: %w", err)
	}
	volume, err := decimal.NewFromString(d.Volume)
	if err != nil {
		return candle.Candle{}, fmt.Errorf("httpsource: parse volume: %w", err)
	}
	return candle.Candle{
		Timestamp: time.UnixMilli(d.Timestamp).UTC(),
		Exchange:  exchange,
		Symbol:    symbol,
		Timeframe: tf,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
		Volume:    volume,
	}, nil
}

func (s *Source) ListExchanges(ctx context.Context) ([]string, error) {
	var out []string
	resp, err := s.client.R().SetContext(ctx).SetResult(&out).Get("/exchanges")
	if err != nil {
		return nil, apperr.Upstream("httpsource: list exchanges", err)
	}
	if resp.IsError() {
		return nil, apperr.Upstream("httpsource: list exchanges", fmt.Errorf("status %d", resp.StatusCode()))
	}
	return out, nil
}

func (s *Source) ListSymbols(ctx context.Context, exchange string) ([]string, error) {
	var out []string
	resp, err := s.client.R().SetContext(ctx).
		SetPathParam("exchange", exchange).
		SetResult(&out).
		Get("/exchanges/{exchange}/symbols")
	if err != nil {
		return nil, apperr.Upstream("httpsource: list symbols", err)
	}
	if resp.IsError() {
		return nil, apperr.Upstream("httpsource: list symbols", fmt.Errorf("status %d", resp.StatusCode()))
	}
	return out, nil
}

func (s *Source) ListTimeframes(ctx context.Context, exchange string) (map[timeframe.Timeframe]string, error) {
	var raw map[string]string
	resp, err := s.client.R().SetContext(ctx).
		SetPathParam("exchange", exchange).
		SetResult(&raw).
		Get("/exchanges/{exchange}/timeframes")
	if err != nil {
		return nil, apperr.Upstream("httpsource: list timeframes", err)
	}
	if resp.IsError() {
		return nil, apperr.Upstream("httpsource: list timeframes", fmt.Errorf("status %d", resp.StatusCode()))
	}

	out := make(map[timeframe.Timeframe]string, len(raw))
	for tag, label := range raw {
		tf, err := timeframe.Parse(tag)
		if err != nil {
			continue // upstream offers a timeframe we don't model; skip it
		}
		out[tf] = label
	}
	return out, nil
}

func (s *Source) FetchCandles(ctx context.Context, exchange, symbol string, tf timeframe.Timeframe, since *time.Time, limit int) ([]candle.Candle, error) {
	req := s.client.R().SetContext(ctx).
		SetPathParams(map[string]string{"exchange": exchange, "symbol": symbol}).
		SetQueryParam("timeframe", tf.String())
	if since != nil {
		req.SetQueryParam("since", fmt.Sprintf("%d", since.UnixMilli()))
	}
	if limit > 0 {
		req.SetQueryParam("limit", fmt.Sprintf("%d", limit))
	}

	var dtos []candleDTO
	resp, err := req.SetResult(&dtos).Get("/exchanges/{exchange}/symbols/{symbol}/candles")
	if err != nil {
		return nil, apperr.Upstream("httpsource: fetch candles", err)
	}
	if resp.IsError() {
		return nil, apperr.Upstream("httpsource: fetch candles", fmt.Errorf("status %d", resp.StatusCode()))
	}

	out := make([]candle.Candle, 0, len(dtos))
	for _, d := range dtos {
		c, err := d.toCandle(exchange, symbol, tf)
		if err != nil {
			return nil, apperr.Upstream("httpsource: fetch candles", err)
		}
		out = append(out, c)
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

type feesDTO struct {
	Maker string `json:"maker"`
	Taker string `json:"taker"`
}

func (s *Source) Fees(ctx context.Context, exchange, symbol string) (marketdata.Fees, error) {
	var dto feesDTO
	resp, err := s.client.R().SetContext(ctx).
		SetPathParams(map[string]string{"exchange": exchange, "symbol": symbol}).
		SetResult(&dto).
		Get("/exchanges/{exchange}/symbols/{symbol}/fees")
	if err != nil {
		return marketdata.Fees{}, apperr.Upstream("httpsource: fees", err)
	}
	if resp.IsError() {
		return marketdata.Fees{}, apperr.Upstream("httpsource: fees", fmt.Errorf("status %d", resp.StatusCode()))
	}

	maker, err := decimal.NewFromString(dto.Maker)
	if err != nil {
		return marketdata.Fees{}, apperr.Upstream("httpsource: parse maker fee", err)
	}
	taker, err := decimal.NewFromString(dto.Taker)
	if err != nil {
		return marketdata.Fees{}, apperr.Upstream("httpsource: parse taker fee", err)
	}
	return marketdata.Fees{Maker: maker, Taker: taker}, nil
}

type precisionDTO struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

func (s *Source) Precision(ctx context.Context, exchange, symbol string) (marketdata.Precision, error) {
	var dto precisionDTO
	resp, err := s.client.R().SetContext(ctx).
		SetPathParams(map[string]string{"exchange": exchange, "symbol": symbol}).
		SetResult(&dto).
		Get("/exchanges/{exchange}/symbols/{symbol}/precision")
	if err != nil {
		return marketdata.Precision{}, apperr.Upstream("httpsource: precision", err)
	}
	if resp.IsError() {
		return marketdata.Precision{}, apperr.Upstream("httpsource: precision", fmt.Errorf("status %d", resp.StatusCode()))
	}

	price, err := decimal.NewFromString(dto.Price)
	if err != nil {
		return marketdata.Precision{}, apperr.Upstream("httpsource: parse price tick", err)
	}
	size, err := decimal.NewFromString(dto.Size)
	if err != nil {
		return marketdata.Precision{}, apperr.Upstream("httpsource: parse size tick", err)
	}
	return marketdata.Precision{Price: price, Size: size}, nil
}
