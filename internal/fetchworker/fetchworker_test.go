package fetchworker

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"merco-go/internal/candle"
	"merco-go/internal/marketdata"
	"merco-go/internal/task"
	"merco-go/internal/timeframe"
)

func seedCandles(src *marketdata.InMemorySource, exchange, symbol string, tf timeframe.Timeframe, base time.Time, n int) []candle.Candle {
	var out []candle.Candle
	for i := 0; i < n; i++ {
		out = append(out, candle.Candle{
			Timestamp: base.Add(time.Duration(i) * tf.Duration()),
			Exchange:  exchange,
			Symbol:    symbol,
			Timeframe: tf,
			Open:      decimal.NewFromInt(100),
			High:      decimal.NewFromInt(101),
			Low:       decimal.NewFromInt(99),
			Close:     decimal.NewFromInt(100),
			Volume:    decimal.NewFromInt(1),
		})
	}
	src.SeedCandles(exchange, symbol, tf, out)
	return out
}

func fetchCfg(symbol, exchange string, tf timeframe.Timeframe) task.Config {
	return task.Config{FetchCandles: &task.FetchCandlesConfig{Symbol: symbol, Exchange: exchange, Timeframe: tf}}
}

func TestRunIngestsAllAvailableCandles(t *testing.T) {
	src := marketdata.NewInMemorySource()
	src.SetPageSize(3)
	base := time.Now().UTC().Add(-10 * time.Minute).Truncate(time.Minute)
	seedCandles(src, "binance", "BTC/USDT", timeframe.Minute1, base, 8)

	repo := candle.NewInMemoryRepository()
	w := New(src, repo)

	var lastProgress float64
	result, err := w.Run(context.Background(), fetchCfg("BTC/USDT", "binance", timeframe.Minute1), func(p float64) {
		lastProgress = p
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if lastProgress != 100 {
		t.Errorf("expected final progress 100, got %f", lastProgress)
	}

	got := result.(Result)
	if got.Records != 8 {
		t.Errorf("expected 8 records ingested, got %d", got.Records)
	}

	stored, err := repo.Range(context.Background(), "binance", "BTC/USDT", timeframe.Minute1, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(stored) != 8 {
		t.Fatalf("expected 8 stored candles, got %d", len(stored))
	}
}

func TestRunResumesFromLatestStoredCandle(t *testing.T) {
	src := marketdata.NewInMemorySource()
	base := time.Now().UTC().Add(-10 * time.Minute).Truncate(time.Minute)
	all := seedCandles(src, "binance", "BTC/USDT", timeframe.Minute1, base, 8)

	repo := candle.NewInMemoryRepository()
	// Pre-populate the repository with the first 3 candles, as if a
	// prior run had already stored them.
	if err := repo.InsertMany(context.Background(), all[:3]); err != nil {
		t.Fatalf("seed InsertMany: %v", err)
	}

	w := New(src, repo)
	result, err := w.Run(context.Background(), fetchCfg("BTC/USDT", "binance", timeframe.Minute1), func(float64) {})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := result.(Result)
	if got.Records != 5 {
		t.Errorf("expected to ingest only the 5 new candles, got %d", got.Records)
	}

	stored, err := repo.Range(context.Background(), "binance", "BTC/USDT", timeframe.Minute1, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(stored) != 8 {
		t.Fatalf("expected 8 total stored candles after resume, got %d", len(stored))
	}
}

func TestRunFailsWithNoCandlesAvailable(t *testing.T) {
	src := marketdata.NewInMemorySource() // nothing seeded
	repo := candle.NewInMemoryRepository()
	w := New(src, repo)

	_, err := w.Run(context.Background(), fetchCfg("BTC/USDT", "binance", timeframe.Minute1), func(float64) {})
	if err == nil {
		t.Fatal("expected an error when the source has no history at all")
	}
}

func TestRunFullyCaughtUpFinishesImmediately(t *testing.T) {
	src := marketdata.NewInMemorySource()
	base := time.Now().UTC().Add(-time.Minute).Truncate(time.Minute)
	all := seedCandles(src, "binance", "BTC/USDT", timeframe.Minute1, base, 1)

	repo := candle.NewInMemoryRepository()
	if err := repo.InsertMany(context.Background(), all); err != nil {
		t.Fatalf("seed InsertMany: %v", err)
	}

	w := New(src, repo)
	result, err := w.Run(context.Background(), fetchCfg("BTC/USDT", "binance", timeframe.Minute1), func(float64) {})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.(Result).Records != 0 {
		t.Errorf("expected 0 new records when already caught up, got %d", result.(Result).Records)
	}
}

func TestRunRejectsBacktestConfig(t *testing.T) {
	src := marketdata.NewInMemorySource()
	repo := candle.NewInMemoryRepository()
	w := New(src, repo)

	_, err := w.Run(context.Background(), task.Config{Backtest: &task.BacktestConfig{}}, func(float64) {})
	if err == nil {
		t.Fatal("expected an error for a non-FetchCandles config")
	}
}
