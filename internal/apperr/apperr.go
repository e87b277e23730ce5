// Package apperr defines the typed error used by every layer of this
// service, modeled on the original's AppError enum with the addition of
// Upstream and Plugin kinds specific to the market-data/backtest domain.
package apperr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"merco-go/internal/obs"
)

// Kind classifies an Error for HTTP status mapping and log severity.
type Kind string

const (
	KindNotFound   Kind = "NotFound"
	KindBadRequest Kind = "BadRequest"
	KindIO         Kind = "Io"
	KindRepository Kind = "Repository"
	KindUpstream   Kind = "Upstream" // the MarketDataSource adapter
	KindPlugin     Kind = "Plugin"   // strategy load/tick failures
	KindInternal   Kind = "Internal"
)

// Error is the typed error carried across API boundaries. Message is
// user-facing; Err, if set, is the wrapped underlying cause (logged but
// never returned verbatim to the client for non-user-facing kinds).
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// NotFound builds a KindNotFound error, user-facing, logged at warn.
func NotFound(message string) *Error { return newError(KindNotFound, message, nil) }

// BadRequest builds a KindBadRequest error, user-facing, logged at warn.
func BadRequest(message string) *Error { return newError(KindBadRequest, message, nil) }

// IO wraps an I/O failure, logged at error.
func IO(message string, cause error) *Error { return newError(KindIO, message, cause) }

// Repository wraps a candle-repository failure, logged at error.
func Repository(message string, cause error) *Error { return newError(KindRepository, message, cause) }

// Upstream wraps a MarketDataSource failure, logged at error.
func Upstream(message string, cause error) *Error { return newError(KindUpstream, message, cause) }

// Plugin wraps a strategy load/tick failure, logged at error. Used for
// decimal overflow, insufficient-funds, and precision-of-zero conditions
// per the backtest engine's error contract.
func Plugin(message string, cause error) *Error { return newError(KindPlugin, message, cause) }

// Internal wraps an unexpected failure, logged at error.
func Internal(message string, cause error) *Error { return newError(KindInternal, message, cause) }

// IsNotFound reports whether err is a KindNotFound *Error.
func IsNotFound(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == KindNotFound
}

// As reports whether err (or something it wraps) is an *Error, returning it.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HTTPStatus maps a Kind to its response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// LogLevel reports whether this kind is logged at warn (user-facing) or
// error (everything else), matching the original's IntoResponse dispatch.
func (k Kind) LogLevel() string {
	switch k {
	case KindNotFound, KindBadRequest:
		return "warn"
	default:
		return "error"
	}
}

// errorResponse is the wire shape every handler error maps to.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError translates err into the {error, message} envelope and
// matching status code, logging it at the severity its Kind calls for
// first — the single dispatch point every HTTP handler funnels through,
// mirroring errors.rs's IntoResponse impl.
func WriteError(ctx context.Context, w http.ResponseWriter, err error) {
	appErr, ok := As(err)
	if !ok {
		appErr = Internal("unexpected error", err)
	}

	fields := map[string]any{"kind": string(appErr.Kind)}
	if appErr.Err != nil {
		fields["cause"] = appErr.Err.Error()
	}
	obs.LogEvent(ctx, appErr.Kind.LogLevel(), "http_error", fields)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Kind.HTTPStatus())
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:   string(appErr.Kind),
		Message: appErr.Message,
	})
}
