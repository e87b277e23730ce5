package middleware

import (
	"net/http"

	"merco-go/internal/obs"
)

const flowIDHeader = "X-Flow-ID"

// FlowID reads X-Flow-ID from the incoming request, generating one via
// obs.NewFlowID if absent, injects it into the request context, and echoes
// it back in the response header so a caller can correlate a fetch task
// with the backtest it triggers.
func FlowID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flowID := r.Header.Get(flowIDHeader)
		if flowID == "" {
			flowID = obs.NewFlowID()
		}

		ctx := obs.WithFlowID(r.Context(), flowID)
		w.Header().Set(flowIDHeader, flowID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
