package apperr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"merco-go/internal/obs"
)

// errorResponse is the wire shape of every non-2xx response: {error, message}.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError logs err at the severity its Kind dictates and writes the
// matching {error, message} JSON response. Any error that is not already
// an *Error is wrapped as Internal.
func WriteError(ctx context.Context, w http.ResponseWriter, err error) {
	appErr, ok := As(err)
	if !ok {
		appErr = Internal("unexpected error", err)
	}

	fields := map[string]any{"error_type": string(appErr.Kind)}
	if appErr.Err != nil {
		fields["cause"] = appErr.Err.Error()
	}
	obs.LogEvent(ctx, appErr.Kind.LogLevel(), "request_error", fields)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Kind.HTTPStatus())
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:   string(appErr.Kind),
		Message: appErr.Message,
	})
}

// IsNotFound is a convenience check used by handlers translating a
// repository "not found" into the right wire response.
func IsNotFound(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == KindNotFound
	}
	return false
}
