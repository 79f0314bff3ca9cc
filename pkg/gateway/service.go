package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"mercator-hq/chatgate/pkg/config"
	"mercator-hq/chatgate/pkg/limits/ratelimit"
	"mercator-hq/chatgate/pkg/providers"
	"mercator-hq/chatgate/pkg/session"
	"mercator-hq/chatgate/pkg/telemetry/metrics"
)

// Service owns the conversation state of a running gateway: the rate
// limiter, the session store, the expiry reaper and the Gateway on top of
// them. It is created once per process, started, and closed on shutdown.
type Service struct {
	limiter *ratelimit.Limiter
	store   *session.Store
	reaper  *session.Reaper
	gateway *Gateway
	logger  *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
}

type serviceOptions struct {
	metrics *metrics.Collector
	tracer  trace.Tracer
	logger  *slog.Logger
	now     func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

// WithServiceMetrics records gateway, limiter and reaper metrics on c.
func WithServiceMetrics(c *metrics.Collector) ServiceOption {
	return func(o *serviceOptions) {
		o.metrics = c
	}
}

// WithServiceTracer traces turns on t.
func WithServiceTracer(t trace.Tracer) ServiceOption {
	return func(o *serviceOptions) {
		o.tracer = t
	}
}

// WithServiceLogger sets the logger shared by the service's components.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// WithServiceClock replaces the clock of the limiter, store and reaper.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(o *serviceOptions) {
		o.now = now
	}
}

// NewService builds a Service from cfg. cfg is expected to have been
// validated; construction errors still surface for programmatic callers.
func NewService(provider providers.Provider, cfg *config.Config, opts ...ServiceOption) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("service: config is required")
	}

	o := serviceOptions{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	limiter, err := ratelimit.NewLimiter(ratelimit.Config{
		Requests: cfg.Limits.Rate.Requests,
		Window:   cfg.Limits.Rate.Window,
	}, ratelimit.WithClock(o.now))
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}

	store := session.NewStore(cfg.Sessions.MaxTurns, session.WithStoreClock(o.now))

	reaper := session.NewReaper(store,
		session.ReaperConfig{TTL: cfg.Sessions.TTL, Interval: cfg.Sessions.SweepInterval},
		session.WithCompactor(limiter),
		session.WithReaperClock(o.now),
		session.WithReaperLogger(o.logger.With("component", "session.reaper")),
		session.WithSweepHook(func(r session.SweepResult) {
			o.metrics.UpdateSessions(store.Len(), r.Evicted)
		}),
	)

	gw, err := New(provider, store, limiter, Config{
		UpstreamTimeout: cfg.Gateway.UpstreamTimeout,
		SystemPrompt:    cfg.Gateway.SystemPrompt,
		Defaults: Options{
			Model:       cfg.Provider.Model,
			Temperature: cfg.Provider.Temperature,
			MaxTokens:   cfg.Provider.MaxTokens,
		},
	},
		WithMetrics(o.metrics),
		WithTracer(o.tracer),
		WithLogger(o.logger.With("component", "gateway")),
	)
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}

	return &Service{
		limiter: limiter,
		store:   store,
		reaper:  reaper,
		gateway: gw,
		logger:  o.logger,
	}, nil
}

// Start schedules the reaper. It stops when ctx is cancelled or Close is
// called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("service already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	if err := s.reaper.Start(ctx); err != nil {
		cancel()
		return fmt.Errorf("failed to start session reaper: %w", err)
	}
	s.cancel = cancel
	s.started = true
	return nil
}

// Close stops the reaper and waits for a running sweep. Conversations are
// volatile and are dropped with the process.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.cancel()
	s.reaper.Stop()
	s.started = false

	s.logger.Info("service closed", "conversations_dropped", s.store.Len())
	return nil
}

// Gateway returns the turn handler.
func (s *Service) Gateway() *Gateway {
	return s.gateway
}

// Store returns the session store.
func (s *Service) Store() *session.Store {
	return s.store
}

// Limiter returns the rate limiter.
func (s *Service) Limiter() *ratelimit.Limiter {
	return s.limiter
}

// Reaper returns the expiry reaper.
func (s *Service) Reaper() *session.Reaper {
	return s.reaper
}
