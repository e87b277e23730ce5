package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"merco-go/internal/apperr"
	"merco-go/internal/candle"
	"merco-go/internal/marketdata"
	"merco-go/internal/task"
)

// Result is what a backtest task.Runner hands back as its final payload,
// per spec §4.4 step 6.
type Result struct {
	Exchange         string
	Symbol           string
	Timeframe        string
	CandlesProcessed int
	FinalBalance     decimal.Decimal
	FinalPosition    decimal.Decimal
	Trades           []Trade
}

// progressInterval is how often (in bars) the engine emits progress,
// per spec §4.4 step 5 and the backpressure note in §5: the backtest
// engine is CPU-bound and reports every 100 bars to bound event rate.
const progressInterval = 100

// Engine implements task.Runner, replaying stored candles through a
// strategy plugin and a virtual account.
type Engine struct {
	repo   candle.Repository
	source marketdata.Source
	host   Host
}

// New builds a backtest Engine over its collaborators.
func New(repo candle.Repository, source marketdata.Source, host Host) *Engine {
	return &Engine{repo: repo, source: source, host: host}
}

// Run executes one Backtest task to completion. cfg.FetchCandles must be
// nil; the orchestrator only dispatches Backtest configs here.
func (e *Engine) Run(ctx context.Context, cfg task.Config, report func(float64)) (any, error) {
	bt := cfg.Backtest
	if bt == nil {
		return nil, fmt.Errorf("backtest: expected a Backtest config")
	}

	candles, err := e.repo.Range(ctx, bt.Exchange, bt.Symbol, bt.Timeframe, time.Time{}, time.Time{})
	if err != nil {
		return nil, apperr.Repository("backtest: load candles", err)
	}
	total := len(candles)
	if total == 0 {
		return nil, fmt.Errorf("no candles available for backtest")
	}

	fees, err := e.source.Fees(ctx, bt.Exchange, bt.Symbol)
	if err != nil {
		return nil, apperr.Upstream("backtest: query fees", err)
	}
	precision, err := e.source.Precision(ctx, bt.Exchange, bt.Symbol)
	if err != nil {
		return nil, apperr.Upstream("backtest: query precision", err)
	}

	strategy, release, err := e.host.Load(bt.StrategyName)
	if err != nil {
		return nil, apperr.Plugin("backtest: load strategy", err)
	}
	defer release()

	account := NewAccount(fees, precision)

	for i, bar := range candles {
		account.CandleWindow = append(account.CandleWindow, bar)
		account.fillPrelude(bar)

		if err := tick(strategy, account); err != nil {
			return nil, apperr.Plugin("backtest: strategy tick", err)
		}

		if (i+1)%progressInterval == 0 {
			report(100 * float64(i+1) / float64(total))
		}
	}

	account.cancelAll()
	report(100)

	return Result{
		Exchange:         bt.Exchange,
		Symbol:           bt.Symbol,
		Timeframe:        bt.Timeframe.String(),
		CandlesProcessed: total,
		FinalBalance:     account.Balance,
		FinalPosition:    account.Position,
		Trades:           account.Trades,
	}, nil
}

// tick isolates a strategy panic into an error so one bad plugin fails
// its task, not the process — the isolation guarantee of spec §4.5.
func tick(strategy Strategy, account *StrategyAccount) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy panicked: %v", r)
		}
	}()
	return strategy.Tick(account)
}
