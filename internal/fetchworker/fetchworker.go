// Package fetchworker implements the resumable candle-ingestion loop of
// spec §4.3: drive a MarketDataSource to fill the candle repository,
// picking up from the last stored bar on every run instead of
// re-downloading history. It is wired into the task orchestrator as a
// task.Runner for task.TypeFetchCandles.
package fetchworker

import (
	"context"
	"fmt"
	"math"
	"time"

	"merco-go/internal/candle"
	"merco-go/internal/marketdata"
	"merco-go/internal/task"
)

// pageSize bounds each FetchCandles request. The source may return fewer
// (including a single bar); the worker makes progress regardless.
const pageSize = 500

// Worker implements task.Runner, draining a MarketDataSource into a
// candle.Repository.
type Worker struct {
	source marketdata.Source
	repo   candle.Repository
}

// New builds a fetch Worker over the given collaborators.
func New(source marketdata.Source, repo candle.Repository) *Worker {
	return &Worker{source: source, repo: repo}
}

// Run executes one FetchCandles task to completion. cfg.Backtest must be
// nil; the orchestrator only dispatches FetchCandles configs here.
func (w *Worker) Run(ctx context.Context, cfg task.Config, report func(float64)) (any, error) {
	fc := cfg.FetchCandles
	if fc == nil {
		return nil, fmt.Errorf("fetchworker: expected a FetchCandles config")
	}

	nextSince, err := w.resumePoint(ctx, fc)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	barMs := fc.Timeframe.Milliseconds()
	total := int(math.Ceil(float64(now.UnixMilli()-nextSince.UnixMilli()) / float64(barMs)))
	if total <= 0 {
		// Fully caught up, or clock skew put "now" before next_since.
		report(100)
		return result(fc, 0), nil
	}

	var count int
	for {
		if fc.End != nil && nextSince.After(*fc.End) {
			break
		}

		limit := pageSize
		page, err := w.source.FetchCandles(ctx, fc.Exchange, fc.Symbol, fc.Timeframe, &nextSince, limit)
		if err != nil {
			return nil, fmt.Errorf("fetchworker: fetch page: %w", err)
		}
		if len(page) == 0 {
			break
		}

		if fc.End != nil {
			page = truncateAfter(page, *fc.End)
			if len(page) == 0 {
				break
			}
		}

		if err := w.repo.InsertMany(ctx, page); err != nil {
			return nil, fmt.Errorf("fetchworker: insert page: %w", err)
		}

		last := page[len(page)-1].Timestamp
		advanced := last.Add(fc.Timeframe.Duration())
		if !advanced.After(nextSince) {
			// The source didn't move us forward; stop rather than spin.
			break
		}
		nextSince = advanced
		count += len(page)

		progress := 100 * float64(count) / float64(total)
		if progress > 100 {
			progress = 100
		}
		report(progress)
	}

	report(100)
	return result(fc, count), nil
}

// resumePoint implements spec §4.3 step 1: resume from one bar past the
// latest stored candle, or fall back to the source's earliest bar (or an
// explicit Start override) when the repository has nothing yet.
func (w *Worker) resumePoint(ctx context.Context, fc *task.FetchCandlesConfig) (time.Time, error) {
	latest, ok, err := w.repo.Latest(ctx, fc.Exchange, fc.Symbol, fc.Timeframe)
	if err != nil {
		return time.Time{}, fmt.Errorf("fetchworker: query latest candle: %w", err)
	}
	if ok {
		return latest.Timestamp.Add(fc.Timeframe.Duration()), nil
	}

	if fc.Start != nil {
		return *fc.Start, nil
	}

	first, err := w.source.FirstCandle(ctx, fc.Exchange, fc.Symbol, fc.Timeframe)
	if err != nil {
		return time.Time{}, fmt.Errorf("fetchworker: query first candle: %w", err)
	}
	if first == nil {
		return time.Time{}, fmt.Errorf("no candles available")
	}
	return first.Timestamp, nil
}

func truncateAfter(page []candle.Candle, end time.Time) []candle.Candle {
	for i, c := range page {
		if c.Timestamp.After(end) {
			return page[:i]
		}
	}
	return page
}

// Result is the opaque payload of a completed FetchCandles task.
type Result struct {
	Symbol    string
	Exchange  string
	Timeframe string
	Records   int
}

func result(fc *task.FetchCandlesConfig, records int) Result {
	return Result{
		Symbol:    fc.Symbol,
		Exchange:  fc.Exchange,
		Timeframe: fc.Timeframe.String(),
		Records:   records,
	}
}
