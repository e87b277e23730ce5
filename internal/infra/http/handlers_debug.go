package httpapi

import (
	"net/http"

	"merco-go/internal/apperr"
)

// handleDebugError forces an Internal error, for smoke-testing the
// apperr -> HTTP envelope without needing a real failure — adapted from
// the original's handlers/info.rs::error.
func (s *Server) handleDebugError(w http.ResponseWriter, r *http.Request) {
	apperr.WriteError(r.Context(), w, apperr.Internal("forced debug error", nil))
}
