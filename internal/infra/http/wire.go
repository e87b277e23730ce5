package httpapi

import (
	"time"

	"github.com/google/uuid"

	"merco-go/internal/backtest"
	"merco-go/internal/candle"
	"merco-go/internal/task"
)

// candleDTO is the §6 wire shape for a Candle: decimals as strings,
// timestamps as millisecond Unix integers.
type candleDTO struct {
	Timestamp int64  `json:"timestamp"`
	Exchange  string `json:"exchange"`
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
	Open      string `json:"open"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Close     string `json:"close"`
	Volume    string `json:"volume"`
}

func toCandleDTO(c candle.Candle) candleDTO {
	return candleDTO{
		Timestamp: c.Timestamp.UnixMilli(),
		Exchange:  c.Exchange,
		Symbol:    c.Symbol,
		Timeframe: c.Timeframe.String(),
		Open:      c.Open.String(),
		High:      c.High.String(),
		Low:       c.Low.String(),
		Close:     c.Close.String(),
		Volume:    c.Volume.String(),
	}
}

// taskDTO is the §6 wire shape for a Task.
type taskDTO struct {
	ID           uuid.UUID  `json:"id"`
	Type         string     `json:"type"`
	Status       string     `json:"status"`
	Progress     float64    `json:"progress"`
	Result       any        `json:"result,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

func toTaskDTO(t task.Task) taskDTO {
	return taskDTO{
		ID:           t.ID,
		Type:         string(t.Type),
		Status:       string(t.Status),
		Progress:     t.Progress,
		Result:       toResultDTO(t.Result),
		ErrorMessage: t.ErrorMessage,
		CreatedAt:    t.CreatedAt,
		StartedAt:    t.StartedAt,
		CompletedAt:  t.CompletedAt,
	}
}

// toResultDTO renders a task.Runner result for the wire, giving the
// backtest.Result's decimal fields the same string treatment as candles.
func toResultDTO(result any) any {
	switch r := result.(type) {
	case backtest.Result:
		trades := make([]tradeDTO, 0, len(r.Trades))
		for _, tr := range r.Trades {
			trades = append(trades, tradeDTO{
				Kind:   string(tr.Kind),
				Price:  tr.Price.String(),
				Amount: tr.Amount.String(),
				Fee:    tr.Fee.String(),
			})
		}
		return backtestResultDTO{
			Exchange:         r.Exchange,
			Symbol:           r.Symbol,
			Timeframe:        r.Timeframe,
			CandlesProcessed: r.CandlesProcessed,
			FinalBalance:     r.FinalBalance.String(),
			FinalPosition:    r.FinalPosition.String(),
			Trades:           trades,
		}
	default:
		return result
	}
}

type tradeDTO struct {
	Kind   string `json:"kind"`
	Price  string `json:"price"`
	Amount string `json:"amount"`
	Fee    string `json:"fee"`
}

type backtestResultDTO struct {
	Exchange         string     `json:"exchange"`
	Symbol           string     `json:"symbol"`
	Timeframe        string     `json:"timeframe"`
	CandlesProcessed int        `json:"candles_processed"`
	FinalBalance     string     `json:"final_balance"`
	FinalPosition    string     `json:"final_position"`
	Trades           []tradeDTO `json:"trades"`
}

// taskEventDTO is the §6 tagged-union wire shape for a task.Event.
type taskEventDTO struct {
	Type     string    `json:"type"`
	TaskID   uuid.UUID `json:"task_id"`
	Task     *taskDTO  `json:"task,omitempty"`
	Progress *float64  `json:"progress,omitempty"`
	Status   *string   `json:"status,omitempty"`
	Result   any       `json:"result,omitempty"`
	Error    *string   `json:"error,omitempty"`
}

func toTaskEventDTO(ev task.Event) taskEventDTO {
	dto := taskEventDTO{Type: string(ev.Kind), TaskID: ev.TaskID}
	if ev.Task != nil {
		t := toTaskDTO(*ev.Task)
		dto.Task = &t
	}
	switch ev.Kind {
	case task.EventProgress:
		dto.Progress = &ev.Progress
		status := string(ev.Status)
		dto.Status = &status
	case task.EventStatus:
		status := string(ev.Status)
		dto.Status = &status
	case task.EventComplete:
		dto.Result = toResultDTO(ev.Result)
	case task.EventFail:
		dto.Error = &ev.Error
	}
	return dto
}
