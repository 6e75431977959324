// Package http exposes the insight engine as a local, read-only JSON API.
// Every endpoint is a pure read over the stores; the server never writes.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/CryptoSharon/hive-stats/internal/insight"
	"github.com/CryptoSharon/hive-stats/internal/metrics"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the local-only defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "127.0.0.1",
		Port:         8080,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Pinger reports store connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server serves the insight API.
type Server struct {
	router   *mux.Router
	server   *http.Server
	engine   *insight.Engine
	pinger   Pinger
	metrics  *metrics.Registry
	gatherer prometheus.Gatherer
}

// NewServer creates the HTTP server around an insight engine.
func NewServer(config ServerConfig, engine *insight.Engine, pinger Pinger, m *metrics.Registry, gatherer prometheus.Gatherer) *Server {
	defaults := DefaultServerConfig()
	if config.Host == "" {
		config.Host = defaults.Host
	}
	if config.Port == 0 {
		config.Port = defaults.Port
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = defaults.ReadTimeout
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.IdleTimeout == 0 {
		config.IdleTimeout = defaults.IdleTimeout
	}

	s := &Server{
		router:   mux.NewRouter(),
		engine:   engine,
		pinger:   pinger,
		metrics:  m,
		gatherer: gatherer,
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestLoggingMiddleware)

	s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(s.jsonContentTypeMiddleware)
	api.HandleFunc("/summary", s.handleSummary).Methods("GET")
	api.HandleFunc("/yoy", s.handleYearOverYear).Methods("GET")
	api.HandleFunc("/correlation", s.handleCorrelation).Methods("GET")
	api.HandleFunc("/distribution", s.handleDistribution).Methods("GET")
	api.HandleFunc("/weekly", s.handleWeekly).Methods("GET")
}

// requestLoggingMiddleware logs every request with its status and latency.
func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Start begins serving and blocks until the listener fails or closes.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("starting insight API server")
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down insight API server")
	return s.server.Shutdown(ctx)
}

// responseWrapper captures the status code for logging.
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}
