package httpapi

import "net/http"

// handleMetrics answers GET /metrics with the Prometheus text exposition
// format, served directly from the registry passed into New.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.registry == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	s.registry.WriteText(w)
}
