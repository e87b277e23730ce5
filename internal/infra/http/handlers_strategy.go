package httpapi

import (
	"encoding/json"
	"net/http"

	"merco-go/internal/apperr"
	"merco-go/internal/task"
	"merco-go/internal/timeframe"
)

type addStrategyRequest struct {
	Name string `json:"name" validate:"required"`
}

// handleStrategyAdd answers POST /strategy/add: scaffold a new strategy
// member directory in the plugin workspace.
func (s *Server) handleStrategyAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req addStrategyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteError(r.Context(), w, apperr.BadRequest("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		apperr.WriteError(r.Context(), w, apperr.BadRequest(err.Error()))
		return
	}

	if err := s.workspace.Add(req.Name); err != nil {
		apperr.WriteError(r.Context(), w, apperr.BadRequest(err.Error()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type backtestRequest struct {
	Name      string `json:"name" validate:"required"`
	Exchange  string `json:"exchange" validate:"required"`
	Symbol    string `json:"symbol" validate:"required"`
	Timeframe string `json:"timeframe" validate:"required"`
}

// handleStrategyBacktest answers POST /strategy/backtest: create a
// Backtest task over the named strategy.
func (s *Server) handleStrategyBacktest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req backtestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteError(r.Context(), w, apperr.BadRequest("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		apperr.WriteError(r.Context(), w, apperr.BadRequest(err.Error()))
		return
	}

	tf, err := timeframe.Parse(req.Timeframe)
	if err != nil {
		apperr.WriteError(r.Context(), w, apperr.BadRequest(err.Error()))
		return
	}
	if !s.workspace.Exists(req.Name) {
		apperr.WriteError(r.Context(), w, apperr.NotFound("strategy "+req.Name+" not found"))
		return
	}

	cfg := task.Config{Backtest: &task.BacktestConfig{
		StrategyName: req.Name,
		Exchange:     req.Exchange,
		Symbol:       req.Symbol,
		Timeframe:    tf,
	}}
	if _, err := s.orchestrator.CreateTask(r.Context(), cfg); err != nil {
		apperr.WriteError(r.Context(), w, apperr.Internal("create backtest task", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
