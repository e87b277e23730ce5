package marketdata

import (
	"context"
	"sort"
	"sync"
	"time"

	"merco-go/internal/candle"
	"merco-go/internal/timeframe"
)

// seriesKey identifies one (exchange, symbol, timeframe) candle series in
// the fixture. Unlike candle.Key it has no timestamp component — it names
// the whole series, not one bar.
type seriesKey struct {
	exchange  string
	symbol    string
	timeframe timeframe.Timeframe
}

// InMemorySource is a fixture Source for tests: candles are seeded ahead
// of time and served back a page at a time, honoring since/limit exactly
// like a real upstream would.
type InMemorySource struct {
	mu          sync.RWMutex
	exchanges   []string
	symbols     map[string][]string
	timeframes  map[string]map[timeframe.Timeframe]string
	candles     map[seriesKey][]candle.Candle // sorted ascending by Timestamp
	fees        map[string]Fees
	precision   map[string]Precision
	defaultPage int
}

// NewInMemorySource builds an empty fixture; use the Seed* helpers to
// populate it before running a test.
func NewInMemorySource() *InMemorySource {
	return &InMemorySource{
		symbols:     make(map[string][]string),
		timeframes:  make(map[string]map[timeframe.Timeframe]string),
		candles:     make(map[seriesKey][]candle.Candle),
		fees:        make(map[string]Fees),
		precision:   make(map[string]Precision),
		defaultPage: 100,
	}
}

func feeKey(exchange, symbol string) string { return exchange + ":" + symbol }

// SeedExchange registers an exchange and its symbol/timeframe metadata.
func (s *InMemorySource) SeedExchange(exchange string, symbols []string, tfs map[timeframe.Timeframe]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exchanges = append(s.exchanges, exchange)
	s.symbols[exchange] = symbols
	s.timeframes[exchange] = tfs
}

// SeedCandles appends candles for a (exchange, symbol, timeframe) series,
// keeping the series sorted ascending by timestamp.
func (s *InMemorySource) SeedCandles(exchange, symbol string, tf timeframe.Timeframe, candles []candle.Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := seriesKey{exchange: exchange, symbol: symbol, timeframe: tf}
	s.candles[key] = append(s.candles[key], candles...)
	sort.Slice(s.candles[key], func(i, j int) bool {
		return s.candles[key][i].Timestamp.Before(s.candles[key][j].Timestamp)
	})
}

// SeedFees registers a fee schedule for (exchange, symbol).
func (s *InMemorySource) SeedFees(exchange, symbol string, fees Fees) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fees[feeKey(exchange, symbol)] = fees
}

// SeedPrecision registers tick sizes for (exchange, symbol).
func (s *InMemorySource) SeedPrecision(exchange, symbol string, p Precision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.precision[feeKey(exchange, symbol)] = p
}

// SetPageSize overrides the default page length used by FetchCandles when
// the caller passes limit <= 0.
func (s *InMemorySource) SetPageSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultPage = n
}

func (s *InMemorySource) ListExchanges(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.exchanges...), nil
}

func (s *InMemorySource) ListSymbols(_ context.Context, exchange string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.symbols[exchange]...), nil
}

func (s *InMemorySource) ListTimeframes(_ context.Context, exchange string) (map[timeframe.Timeframe]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[timeframe.Timeframe]string, len(s.timeframes[exchange]))
	for k, v := range s.timeframes[exchange] {
		out[k] = v
	}
	return out, nil
}

func (s *InMemorySource) FetchCandles(_ context.Context, exchange, symbol string, tf timeframe.Timeframe, since *time.Time, limit int) ([]candle.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = s.defaultPage
	}
	key := seriesKey{exchange: exchange, symbol: symbol, timeframe: tf}
	all := s.candles[key]

	start := 0
	if since != nil {
		for i, c := range all {
			if !c.Timestamp.Before(*since) {
				start = i
				break
			}
			start = i + 1
		}
	}
	if start >= len(all) {
		return nil, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	page := make([]candle.Candle, end-start)
	copy(page, all[start:end])
	return page, nil
}

func (s *InMemorySource) FirstCandle(_ context.Context, exchange, symbol string, tf timeframe.Timeframe) (*candle.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := seriesKey{exchange: exchange, symbol: symbol, timeframe: tf}
	all := s.candles[key]
	if len(all) == 0 {
		return nil, nil
	}
	first := all[0]
	return &first, nil
}

func (s *InMemorySource) Fees(_ context.Context, exchange, symbol string) (Fees, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fees[feeKey(exchange, symbol)], nil
}

func (s *InMemorySource) Precision(_ context.Context, exchange, symbol string) (Precision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.precision[feeKey(exchange, symbol)], nil
}
