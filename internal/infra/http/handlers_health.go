package httpapi

import "net/http"

// handleHealth answers the liveness probe — spec §6 wants a bare "OK",
// not a JSON envelope.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}
