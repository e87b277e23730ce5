package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"merco-go/internal/apperr"
	"merco-go/internal/timeframe"
)

// handleCandles answers GET /candles?exchange&symbol&timeframe&start?&end?,
// adapted from the teacher's query-param list handler shape
// (handlers_trades.go's handleList).
func (s *Server) handleCandles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	exchange := q.Get("exchange")
	symbol := q.Get("symbol")
	tfTag := q.Get("timeframe")
	if exchange == "" || symbol == "" || tfTag == "" {
		apperr.WriteError(r.Context(), w, apperr.BadRequest("exchange, symbol and timeframe are required"))
		return
	}

	tf, err := timeframe.Parse(tfTag)
	if err != nil {
		apperr.WriteError(r.Context(), w, apperr.BadRequest(err.Error()))
		return
	}

	var start, end time.Time
	if raw := q.Get("start"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			apperr.WriteError(r.Context(), w, apperr.BadRequest("invalid start"))
			return
		}
		start = time.UnixMilli(ms).UTC()
	}
	if raw := q.Get("end"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			apperr.WriteError(r.Context(), w, apperr.BadRequest("invalid end"))
			return
		}
		end = time.UnixMilli(ms).UTC()
	}

	candles, err := s.repo.Range(r.Context(), exchange, symbol, tf, start, end)
	if err != nil {
		apperr.WriteError(r.Context(), w, apperr.Repository("list candles", err))
		return
	}

	dtos := make([]candleDTO, 0, len(candles))
	for _, c := range candles {
		dtos = append(dtos, toCandleDTO(c))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(dtos)
}
