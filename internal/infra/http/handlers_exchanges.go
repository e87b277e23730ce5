package httpapi

import (
	"encoding/json"
	"net/http"

	"merco-go/internal/apperr"
)

// handleExchanges answers GET /exchanges.
func (s *Server) handleExchanges(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	exchanges, err := s.source.ListExchanges(r.Context())
	if err != nil {
		apperr.WriteError(r.Context(), w, apperr.Upstream("list exchanges", err))
		return
	}
	writeJSON(w, exchanges)
}

// handleSymbols answers GET /symbols?exchange=.
func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	exchange := r.URL.Query().Get("exchange")
	if exchange == "" {
		apperr.WriteError(r.Context(), w, apperr.BadRequest("exchange is required"))
		return
	}
	symbols, err := s.source.ListSymbols(r.Context(), exchange)
	if err != nil {
		apperr.WriteError(r.Context(), w, apperr.Upstream("list symbols", err))
		return
	}
	writeJSON(w, symbols)
}

// handleTimeframes answers GET /timeframes?exchange=.
func (s *Server) handleTimeframes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	exchange := r.URL.Query().Get("exchange")
	if exchange == "" {
		apperr.WriteError(r.Context(), w, apperr.BadRequest("exchange is required"))
		return
	}
	tfs, err := s.source.ListTimeframes(r.Context(), exchange)
	if err != nil {
		apperr.WriteError(r.Context(), w, apperr.Upstream("list timeframes", err))
		return
	}
	out := make(map[string]string, len(tfs))
	for tf, label := range tfs {
		out[tf.String()] = label
	}
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
