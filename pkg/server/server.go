// Package server provides the chatgate HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"mercator-hq/chatgate/pkg/config"
	"mercator-hq/chatgate/pkg/proxy"
	"mercator-hq/chatgate/pkg/proxy/handlers"
	"mercator-hq/chatgate/pkg/proxy/middleware"
	"mercator-hq/chatgate/pkg/security/auth"
	"mercator-hq/chatgate/pkg/telemetry/health"
	"mercator-hq/chatgate/pkg/telemetry/metrics"
	"mercator-hq/chatgate/pkg/telemetry/tracing"
)

// Gateway serves chat turns and admits clients. *gateway.Gateway
// implements it.
type Gateway interface {
	handlers.TurnHandler
	middleware.AdmissionChecker
}

// Dependencies are the components the server routes to. Gateway and
// Health are required.
type Dependencies struct {
	Gateway  Gateway
	Analyzer handlers.Analyzer
	Provider handlers.ProviderStatus
	Health   *health.Checker
	Metrics  *metrics.Collector

	// Keys validates client API keys when security.auth.enabled is set.
	Keys auth.APIKeyStore

	Logger *slog.Logger
}

// Server is the chatgate HTTP server.
type Server struct {
	config  *config.Config
	deps    Dependencies
	logger  *slog.Logger
	handler http.Handler
	trusted *proxy.TrustedProxies

	httpServer   *http.Server
	listener     net.Listener
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a server and assembles its routes.
func NewServer(cfg *config.Config, deps Dependencies) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("server: config is required")
	}
	if deps.Gateway == nil {
		return nil, fmt.Errorf("server: gateway is required")
	}
	if deps.Health == nil {
		return nil, fmt.Errorf("server: health checker is required")
	}
	if cfg.Security.Auth.Enabled && deps.Keys == nil {
		return nil, fmt.Errorf("server: authentication is enabled but no key store was given")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	trusted, err := proxy.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	s := &Server{
		config:       cfg,
		deps:         deps,
		logger:       logger,
		trusted:      trusted,
		shutdownChan: make(chan struct{}),
	}
	s.handler = s.setupRoutes()
	return s, nil
}

// Start listens on the configured address and serves until ctx is
// cancelled, RequestShutdown is called or the listener fails. It shuts
// down gracefully before returning.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	ln, err := net.Listen("tcp", s.config.Server.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.Server.ListenAddress, err)
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:        s.handler,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		IdleTimeout:    s.config.Server.IdleTimeout,
		MaxHeaderBytes: s.config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting chatgate server", "address", ln.Addr().String())

		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	case <-s.shutdownChan:
		s.logger.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// RequestShutdown asks a running Start to shut down and return.
func (s *Server) RequestShutdown() {
	select {
	case <-s.shutdownChan:
	default:
		close(s.shutdownChan)
	}
}

// Shutdown gracefully shuts down the server, waiting up to
// server.shutdown_timeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.Server.ShutdownTimeout.String())

		shutdownCtx := ctx
		if s.config.Server.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
			defer cancel()
		}

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("chatgate server stopped")
	})

	return shutdownErr
}

// setupRoutes registers the routes and wraps them in the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := s.routes()

	var handler http.Handler = mux

	// Innermost first.
	handler = middleware.RateLimitMiddleware(s.deps.Gateway,
		middleware.WithRateLimitMetrics(s.deps.Metrics),
		middleware.WithRateLimitLogger(s.logger),
		middleware.WithTrustedProxies(s.trusted),
	)(handler)

	if s.config.Security.Auth.Enabled {
		authMW := auth.NewAPIKeyMiddleware(s.deps.Keys,
			[]auth.APIKeySource{auth.HeaderSource(s.config.Security.Auth.Header)},
			auth.WithPathPrefix("/api/"),
			auth.WithLogger(s.logger),
			auth.WithErrorWriter(writeAuthError),
		)
		handler = authMW.Handle(handler)
	}

	handler = tracing.HTTPMiddleware(handler)
	handler = middleware.CORSMiddleware(&s.config.Server.CORS)(handler)
	handler = middleware.MetricsMiddleware(s.deps.Metrics, mux)(handler)
	handler = middleware.LoggingMiddleware(s.logger)(handler)
	handler = middleware.RequestIDMiddleware(handler)

	// Recovery middleware (outermost)
	handler = middleware.RecoveryMiddleware(s.logger)(handler)

	return handler
}

// routes builds the request router.
func (s *Server) routes() *http.ServeMux {
	limits := proxy.Limits{
		MaxBodyBytes:     s.config.Server.MaxBodyBytes,
		MaxMessageLength: s.config.Gateway.MaxMessageLength,
	}

	mux := http.NewServeMux()

	mux.Handle("POST /api/chat", handlers.NewChatHandler(s.deps.Gateway, limits, s.logger))
	mux.Handle("POST /api/chat/stream", handlers.NewStreamHandler(s.deps.Gateway, limits, s.logger))
	mux.Handle("DELETE /api/chat/{"+handlers.ConversationIDPathValue+"}",
		handlers.NewConversationHandler(s.deps.Gateway, s.logger))

	if s.deps.Analyzer != nil {
		analysis := handlers.NewAnalysisHandler(s.deps.Analyzer, limits, s.logger)
		mux.HandleFunc("POST /api/analysis/document", analysis.Document)
		mux.HandleFunc("POST /api/analysis/classify", analysis.Classify)
		mux.HandleFunc("POST /api/analysis/batch", analysis.Batch)
	}

	mux.HandleFunc("GET /health", s.deps.Health.LivenessHandler())
	mux.HandleFunc("GET /ready", s.deps.Health.ReadinessHandler())
	if s.deps.Provider != nil {
		mux.Handle("GET /health/provider", handlers.NewProviderHealthHandler(s.deps.Provider))
	}

	if m := s.config.Telemetry.Metrics; m.Enabled && m.Path != "" && s.deps.Metrics != nil {
		mux.Handle("GET "+m.Path, s.deps.Metrics.Handler())
	}

	return mux
}

// writeAuthError renders authentication failures in the API error format.
func writeAuthError(w http.ResponseWriter, _ *http.Request, _ int, err error) {
	_ = proxy.WriteErrorResponse(w, proxy.HandleError(err))
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the address the server is listening on, or "" before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}
