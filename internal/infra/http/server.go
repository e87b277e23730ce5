// Package httpapi implements the external HTTP surface of spec §6: task
// creation and inspection, the task event SSE stream, candle queries,
// and strategy management, on top of the task orchestrator, candle
// repository, market-data source and strategy host.
package httpapi

import (
	"net/http"

	"merco-go/internal/candle"
	"merco-go/internal/infra/http/middleware"
	"merco-go/internal/marketdata"
	"merco-go/internal/obs"
	"merco-go/internal/strategyhost"
	"merco-go/internal/task"
)

// Server wires the HTTP surface over this service's core collaborators,
// the way services/jax-api/internal/infra/http.Server wires its mux over
// libs/auth and libs/middleware.
type Server struct {
	mux *http.ServeMux

	orchestrator *task.Orchestrator
	repo         candle.Repository
	source       marketdata.Source
	workspace    *strategyhost.Workspace
	registry     *obs.Registry

	cors      middleware.CORSConfig
	jwt       *middleware.JWTVerifier
	rateLimit *middleware.RateLimiter
}

// Deps bundles Server's collaborators so New takes one argument instead
// of a long positional list.
type Deps struct {
	Orchestrator *task.Orchestrator
	Repo         candle.Repository
	Source       marketdata.Source
	Workspace    *strategyhost.Workspace
	Registry     *obs.Registry // nil disables /metrics

	CORS      middleware.CORSConfig
	JWT       *middleware.JWTVerifier // nil disables auth, matching the teacher's dev-mode fallback
	RateLimit *middleware.RateLimiter
}

// New builds a Server and registers every route.
func New(deps Deps) *Server {
	s := &Server{
		mux:          http.NewServeMux(),
		orchestrator: deps.Orchestrator,
		repo:         deps.Repo,
		source:       deps.Source,
		workspace:    deps.Workspace,
		registry:     deps.Registry,
		cors:         deps.CORS,
		jwt:          deps.JWT,
		rateLimit:    deps.RateLimit,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/metrics", s.handleMetrics)
	s.mux.HandleFunc("/debug/error", s.handleDebugError)

	s.mux.HandleFunc("/exchanges", s.handleExchanges)
	s.mux.HandleFunc("/symbols", s.handleSymbols)
	s.mux.HandleFunc("/timeframes", s.handleTimeframes)
	s.mux.HandleFunc("/candles", s.handleCandles)

	s.mux.HandleFunc("/tasks", s.handleTasksCollection)
	s.mux.HandleFunc("/tasks/stream", s.handleTaskStream)
	s.mux.HandleFunc("/tasks/fetch", s.protect(s.handleCreateFetchTask))
	s.mux.HandleFunc("/tasks/", s.handleTaskByID)

	s.mux.HandleFunc("/strategy/add", s.protect(s.handleStrategyAdd))
	s.mux.HandleFunc("/strategy/backtest", s.protect(s.handleStrategyBacktest))
}

// protect wraps a handler with bearer-token auth when a JWTVerifier is
// configured; otherwise requests pass through unauthenticated, matching
// services/jax-api/internal/infra/http.Server.protect's development-mode
// fallback.
func (s *Server) protect(next http.HandlerFunc) http.HandlerFunc {
	if s.jwt == nil {
		return next
	}
	return s.jwt.Middleware(next)
}

// Handler returns the fully wrapped handler: rate limiting and CORS
// applied outermost, mirroring services/jax-api/internal/infra/http.Server.Handler.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = middleware.RequestLog(h)
	h = middleware.FlowID(h)
	if s.rateLimit != nil {
		h = s.rateLimit.Middleware(h)
	}
	h = middleware.CORS(s.cors)(h)
	return h
}
