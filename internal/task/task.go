// Package task implements the task orchestrator: a concurrent job manager
// that tracks per-task lifecycle state and fans out lifecycle events to an
// arbitrary number of subscribers, modeled on the original's
// tasks::manager::TaskManager.
package task

import (
	"time"

	"github.com/google/uuid"

	"merco-go/internal/timeframe"
)

// Type identifies which runner executes a task.
type Type string

const (
	TypeFetchCandles Type = "fetch_candles"
	TypeBacktest     Type = "backtest"
)

// Status is a task's lifecycle state. The only legal transitions are
// Pending -> Running -> {Completed, Failed}; the orchestrator never
// re-enters Running from a terminal state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// FetchCandlesConfig drives the fetch worker: resumable candle ingestion
// for (exchange, symbol, timeframe) from an optional start to an optional
// end (both nil means "from the source's earliest bar to now").
type FetchCandlesConfig struct {
	Symbol    string
	Exchange  string
	Timeframe timeframe.Timeframe
	Start     *time.Time
	End       *time.Time
}

// BacktestConfig drives the backtest engine over stored history for a
// single (exchange, symbol, timeframe) using a named, already-built
// strategy plugin.
type BacktestConfig struct {
	StrategyName string
	Exchange     string
	Symbol       string
	Timeframe    timeframe.Timeframe
}

// Config is a closed union: exactly one of FetchCandles or Backtest is set.
type Config struct {
	FetchCandles *FetchCandlesConfig
	Backtest     *BacktestConfig
}

// Type reports which runner this config dispatches to.
func (c Config) Type() Type {
	if c.Backtest != nil {
		return TypeBacktest
	}
	return TypeFetchCandles
}

// Task is the orchestrator's record for one job.
type Task struct {
	ID           uuid.UUID
	Type         Type
	Status       Status
	Progress     float64
	Config       Config
	Result       any
	ErrorMessage string
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	UpdatedAt    time.Time
}

// New allocates a fresh Task in Pending state.
func New(config Config, now time.Time) Task {
	return Task{
		ID:        uuid.New(),
		Type:      config.Type(),
		Status:    StatusPending,
		Progress:  0,
		Config:    config,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// EventKind discriminates the variants of Event, mirroring the original's
// TaskEvent enum.
type EventKind string

const (
	EventCreate   EventKind = "create"
	EventProgress EventKind = "progress"
	EventStatus   EventKind = "status"
	EventComplete EventKind = "complete"
	EventFail     EventKind = "fail"
)

// Event is a single task-lifecycle notification broadcast over the event
// bus. Only the fields relevant to Kind are populated.
type Event struct {
	Kind     EventKind
	TaskID   uuid.UUID
	Task     *Task // set only for EventCreate
	Progress float64
	Status   Status
	Result   any
	Error    string
}
