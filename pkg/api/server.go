package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/derrickgolden/easyisp-engine/pkg/connectivity"
	"github.com/derrickgolden/easyisp-engine/pkg/httputil"
	"github.com/derrickgolden/easyisp-engine/pkg/observability"
	"github.com/derrickgolden/easyisp-engine/pkg/payments"
	"github.com/derrickgolden/easyisp-engine/pkg/radius"
	"github.com/derrickgolden/easyisp-engine/pkg/subscribers"
)

// Server wires the engine's HTTP API: subscriber accounts, live status and
// payment reconciliation, all under /api/v1.
type Server struct {
	router  *mux.Router
	logger  *observability.Logger
	metrics *observability.Metrics
}

// Deps collects everything the API needs. Source may be nil when the
// accounting feed is not configured; the sessions endpoint then returns 503.
type Deps struct {
	Subscribers subscribers.Service
	Payments    *payments.Engine
	Source      connectivity.StatusSource
	Watcher     *connectivity.Manager
	Profiles    *radius.ProfileSet
	Logger      *observability.Logger
	Metrics     *observability.Metrics
}

// NewServer creates the API server and registers all routes.
func NewServer(deps Deps) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		logger:  deps.Logger,
		metrics: deps.Metrics,
	}

	chain := []mux.MiddlewareFunc{
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(deps.Logger),
		httputil.RecoveryMiddleware(deps.Logger),
		httputil.ContentTypeMiddleware,
		httputil.MaxBytesMiddleware(1 << 20),
	}
	if deps.Metrics != nil {
		chain = append(chain, observability.HTTPMetricsMiddleware(deps.Metrics))
	}
	s.router.Use(chain...)

	v1 := s.router.PathPrefix("/api/v1").Subrouter()

	NewSubscriberHandlers(deps.Subscribers, deps.Source, deps.Profiles, deps.Metrics).RegisterRoutes(v1)
	NewWatchHandlers(deps.Watcher).RegisterRoutes(v1)
	NewPaymentHandlers(deps.Payments, deps.Logger).RegisterRoutes(v1)

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}
