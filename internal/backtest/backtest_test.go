package backtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"merco-go/internal/candle"
	"merco-go/internal/marketdata"
	"merco-go/internal/task"
	"merco-go/internal/timeframe"
)

// fakeHost resolves a name to a canned Strategy, counting load/release
// calls so tests can assert the engine always releases what it loads.
type fakeHost struct {
	strategies map[string]Strategy
	loaded     int
	released   int
	loadErr    error
}

func (h *fakeHost) Load(name string) (Strategy, func() error, error) {
	if h.loadErr != nil {
		return nil, nil, h.loadErr
	}
	s, ok := h.strategies[name]
	if !ok {
		return nil, nil, fmt.Errorf("unknown strategy %q", name)
	}
	h.loaded++
	return s, func() error { h.released++; return nil }, nil
}

// strategyFunc adapts a plain function to the Strategy interface.
type strategyFunc func(account *StrategyAccount) error

func (f strategyFunc) Tick(account *StrategyAccount) error { return f(account) }

func seedBars(n int, start decimal.Decimal) []candle.Candle {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var out []candle.Candle
	price := start
	for i := 0; i < n; i++ {
		out = append(out, candle.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Exchange:  "binance",
			Symbol:    "BTC/USDT",
			Timeframe: timeframe.Minute1,
			Open:      price,
			High:      price.Add(decimal.NewFromInt(1)),
			Low:       price.Sub(decimal.NewFromInt(1)),
			Close:     price,
			Volume:    decimal.NewFromInt(1),
		})
		price = price.Add(decimal.NewFromInt(1))
	}
	return out
}

func backtestCfg(strategyName string) task.Config {
	return task.Config{Backtest: &task.BacktestConfig{
		StrategyName: strategyName,
		Exchange:     "binance",
		Symbol:       "BTC/USDT",
		Timeframe:    timeframe.Minute1,
	}}
}

func newFixture(t *testing.T, candles []candle.Candle) (candle.Repository, marketdata.Source) {
	t.Helper()
	repo := candle.NewInMemoryRepository()
	if len(candles) > 0 {
		if err := repo.InsertMany(context.Background(), candles); err != nil {
			t.Fatalf("seed InsertMany: %v", err)
		}
	}
	src := marketdata.NewInMemorySource()
	src.SeedFees("binance", "BTC/USDT", marketdata.Fees{
		Maker: decimal.NewFromFloat(0.001),
		Taker: decimal.NewFromFloat(0.002),
	})
	src.SeedPrecision("binance", "BTC/USDT", marketdata.Precision{
		Price: decimal.NewFromFloat(0.01),
		Size:  decimal.NewFromFloat(0.0001),
	})
	return repo, src
}

func TestRunReplaysEveryBarAndReportsFullProgress(t *testing.T) {
	repo, src := newFixture(t, seedBars(250, decimal.NewFromInt(100)))

	var ticks int
	host := &fakeHost{strategies: map[string]Strategy{
		"noop": strategyFunc(func(account *StrategyAccount) error {
			ticks++
			return nil
		}),
	}}

	e := New(repo, src, host)
	var lastProgress float64
	res, err := e.Run(context.Background(), backtestCfg("noop"), func(p float64) { lastProgress = p })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ticks != 250 {
		t.Errorf("expected 250 strategy ticks, got %d", ticks)
	}
	if lastProgress != 100 {
		t.Errorf("expected final progress 100, got %f", lastProgress)
	}
	if host.loaded != 1 || host.released != 1 {
		t.Errorf("expected exactly one load and one release, got loaded=%d released=%d", host.loaded, host.released)
	}

	result := res.(Result)
	if result.CandlesProcessed != 250 {
		t.Errorf("expected 250 candles processed, got %d", result.CandlesProcessed)
	}
	if !result.FinalBalance.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("expected untouched balance 10000, got %s", result.FinalBalance)
	}
}

func TestRunFailsWhenNoCandlesStored(t *testing.T) {
	repo, src := newFixture(t, nil)
	host := &fakeHost{strategies: map[string]Strategy{"noop": strategyFunc(func(*StrategyAccount) error { return nil })}}

	e := New(repo, src, host)
	_, err := e.Run(context.Background(), backtestCfg("noop"), func(float64) {})
	if err == nil {
		t.Fatal("expected an error when there is no stored history")
	}
}

func TestRunRejectsFetchCandlesConfig(t *testing.T) {
	repo, src := newFixture(t, seedBars(1, decimal.NewFromInt(100)))
	host := &fakeHost{strategies: map[string]Strategy{"noop": strategyFunc(func(*StrategyAccount) error { return nil })}}

	e := New(repo, src, host)
	_, err := e.Run(context.Background(), task.Config{FetchCandles: &task.FetchCandlesConfig{}}, func(float64) {})
	if err == nil {
		t.Fatal("expected an error for a non-Backtest config")
	}
}

func TestRunMarketBuyExecutesAtBarClose(t *testing.T) {
	repo, src := newFixture(t, seedBars(2, decimal.NewFromInt(100)))

	strategy := strategyFunc(func(account *StrategyAccount) error {
		if len(account.Trades) > 0 {
			return nil // only buy once
		}
		return account.MarketBuy(decimal.NewFromInt(1))
	})
	host := &fakeHost{strategies: map[string]Strategy{"buyer": strategy}}

	e := New(repo, src, host)
	res, err := e.Run(context.Background(), backtestCfg("buyer"), func(float64) {})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	result := res.(Result)
	if len(result.Trades) != 1 {
		t.Fatalf("expected exactly 1 trade, got %d", len(result.Trades))
	}
	if result.Trades[0].Kind != TradeMarketBuy {
		t.Errorf("expected a market_buy trade, got %s", result.Trades[0].Kind)
	}
	if !result.FinalPosition.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected final position 1, got %s", result.FinalPosition)
	}
}

func TestRunFillsRestingLimitOrderOnCrossingBar(t *testing.T) {
	// Bar 0 closes at 100 (low 99, high 101); bar 1 closes at 101 with its
	// low lowered to 97. A limit buy placed at 98 during bar 0 rests below
	// the close and should fill once bar 1's low crosses it.
	bars := seedBars(3, decimal.NewFromInt(100))
	bars[1].Low = decimal.NewFromInt(97)
	repo, src := newFixture(t, bars)

	strategy := strategyFunc(func(account *StrategyAccount) error {
		if len(account.CandleWindow) == 1 && len(account.Orders) == 0 && len(account.Trades) == 0 {
			_, err := account.LimitBuy(decimal.NewFromInt(98), decimal.NewFromInt(1))
			return err
		}
		return nil
	})
	host := &fakeHost{strategies: map[string]Strategy{"limiter": strategy}}

	e := New(repo, src, host)
	res, err := e.Run(context.Background(), backtestCfg("limiter"), func(float64) {})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	result := res.(Result)
	var limitFills int
	for _, tr := range result.Trades {
		if tr.Kind == TradeLimitBuy {
			limitFills++
		}
	}
	if limitFills != 1 {
		t.Errorf("expected the resting limit_buy to fill exactly once, got %d fills in %+v", limitFills, result.Trades)
	}
}

func TestRunCancelsUnfilledOrdersAtEnd(t *testing.T) {
	// A limit buy far below any bar's low never fills; it must be
	// cancelled (and its reservation refunded) when the backtest ends.
	bars := seedBars(3, decimal.NewFromInt(100))
	repo, src := newFixture(t, bars)

	strategy := strategyFunc(func(account *StrategyAccount) error {
		if len(account.CandleWindow) == 1 {
			_, err := account.LimitBuy(decimal.NewFromInt(1), decimal.NewFromInt(1))
			return err
		}
		return nil
	})
	host := &fakeHost{strategies: map[string]Strategy{"never-fills": strategy}}

	e := New(repo, src, host)
	res, err := e.Run(context.Background(), backtestCfg("never-fills"), func(float64) {})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	result := res.(Result)
	if !result.FinalBalance.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("expected the cancelled order's reservation fully refunded, got balance %s", result.FinalBalance)
	}
}

func TestRunWrapsStrategyPanicAsError(t *testing.T) {
	repo, src := newFixture(t, seedBars(2, decimal.NewFromInt(100)))
	strategy := strategyFunc(func(account *StrategyAccount) error {
		panic("boom")
	})
	host := &fakeHost{strategies: map[string]Strategy{"panicky": strategy}}

	e := New(repo, src, host)
	_, err := e.Run(context.Background(), backtestCfg("panicky"), func(float64) {})
	if err == nil {
		t.Fatal("expected a panicking strategy to surface as an error")
	}
	if host.released != 1 {
		t.Errorf("expected the strategy handle still released after a panic, got %d", host.released)
	}
}

func TestRunFailsWhenStrategyLoadFails(t *testing.T) {
	repo, src := newFixture(t, seedBars(1, decimal.NewFromInt(100)))
	host := &fakeHost{loadErr: fmt.Errorf("build failed")}

	e := New(repo, src, host)
	_, err := e.Run(context.Background(), backtestCfg("missing"), func(float64) {})
	if err == nil {
		t.Fatal("expected an error when the strategy fails to load")
	}
}
