package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"mercator-hq/chatgate/pkg/limits/ratelimit"
	"mercator-hq/chatgate/pkg/providers"
	"mercator-hq/chatgate/pkg/session"
	"mercator-hq/chatgate/pkg/telemetry/logging"
	"mercator-hq/chatgate/pkg/telemetry/metrics"
	"mercator-hq/chatgate/pkg/telemetry/tracing"
)

// Turn modes, used as the "mode" metric label.
const (
	ModeComplete = "complete"
	ModeStream   = "stream"
)

// Turn outcomes, used as the "outcome" metric label.
const (
	OutcomeOK            = "ok"
	OutcomeRateLimited   = "rate_limited"
	OutcomeUpstreamError = "upstream_error"
	OutcomeInterrupted   = "interrupted"
	OutcomeCanceled      = "canceled"
)

// Options are the per-call model parameters.
type Options struct {
	// Model overrides the configured model when set.
	Model string

	// Temperature overrides the configured temperature when non-nil. A
	// pointer so that an explicit 0 is honoured.
	Temperature *float64

	// MaxTokens overrides the configured reply bound when positive.
	MaxTokens int
}

// Config configures a Gateway.
type Config struct {
	// UpstreamTimeout bounds each model invocation, streaming included.
	UpstreamTimeout time.Duration

	// SystemPrompt primes conversations whose request carries none.
	SystemPrompt string

	// Defaults fill in whatever a request's Options leave unset.
	Defaults Options
}

// TurnRequest is one user turn.
type TurnRequest struct {
	// ConversationID selects the conversation. Empty starts a new one with
	// a freshly minted id.
	ConversationID string

	// Message is the user's text. Must not be empty.
	Message string

	// SystemPrompt overrides Config.SystemPrompt for this turn.
	SystemPrompt string

	// Stream selects a *Stream result instead of *Completed.
	Stream bool

	Options Options
}

// Result is either *Completed or *Stream.
type Result interface {
	result()
}

// Completed is the result of a non-streaming turn.
type Completed struct {
	ConversationID string
	Text           string
	TokensUsed     int
	Model          string
	FinishReason   string
}

func (*Completed) result() {}

// Gateway runs chat turns: it loads history, invokes the provider and
// persists the exchange.
type Gateway struct {
	provider providers.Provider
	store    *session.Store
	limiter  *ratelimit.Limiter
	config   Config

	metrics *metrics.Collector
	tracer  trace.Tracer
	logger  *slog.Logger
	newID   func() string
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithMetrics records turn metrics on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(g *Gateway) {
		g.metrics = c
	}
}

// WithTracer creates the gateway.HandleTurn and provider.invoke spans on t.
func WithTracer(t trace.Tracer) Option {
	return func(g *Gateway) {
		if t != nil {
			g.tracer = t
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithIDGenerator replaces the conversation id generator.
func WithIDGenerator(fn func() string) Option {
	return func(g *Gateway) {
		if fn != nil {
			g.newID = fn
		}
	}
}

// New creates a Gateway. A nil limiter admits every client.
func New(provider providers.Provider, store *session.Store, limiter *ratelimit.Limiter, config Config, opts ...Option) (*Gateway, error) {
	if provider == nil {
		return nil, errors.New("gateway: provider is required")
	}
	if store == nil {
		return nil, errors.New("gateway: session store is required")
	}
	if config.UpstreamTimeout < 0 {
		return nil, fmt.Errorf("gateway: upstream timeout must not be negative, got %v", config.UpstreamTimeout)
	}

	g := &Gateway{
		provider: provider,
		store:    store,
		limiter:  limiter,
		config:   config,
		tracer:   noop.NewTracerProvider().Tracer(tracing.InstrumentationName),
		logger:   slog.Default(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Check runs an admission check for clientID and records it. Callers that
// need the window details for response headers use Check; everyone else
// uses Admit.
func (g *Gateway) Check(clientID string) *ratelimit.CheckResult {
	if g.limiter == nil {
		return &ratelimit.CheckResult{Identity: clientID, Allowed: true, Remaining: -1}
	}
	result := g.limiter.Check(clientID)
	g.metrics.RecordRateLimit(result.Allowed)
	if !result.Allowed {
		g.logger.Warn("rate limit exceeded",
			"client", clientID,
			"limit", result.Limit,
			"retry_after", result.RetryAfter,
		)
	}
	return result
}

// Admit returns an error matching ErrRateLimitExceeded when clientID has
// used up its window. A rejection records nothing.
func (g *Gateway) Admit(clientID string) error {
	return g.Check(clientID).Err()
}

// ClearConversation drops a conversation. Clearing an unknown id is a no-op.
func (g *Gateway) ClearConversation(id string) {
	g.store.Clear(id)
	g.logger.Debug("conversation cleared", "conversation_id", id)
}

// History returns the stored turns of a conversation.
func (g *Gateway) History(id string) []session.Turn {
	return g.store.History(id)
}

// HandleTurn runs one user turn. The result is a *Completed or, when
// req.Stream is set, a *Stream whose fragments the caller must drain.
//
// On failure nothing is persisted. Provider failures match
// ErrUpstreamFailure; a cancelled ctx yields context.Canceled.
func (g *Gateway) HandleTurn(ctx context.Context, req TurnRequest) (Result, error) {
	if req.Message == "" {
		return nil, fmt.Errorf("%w: message is empty", ErrInvalidTurn)
	}

	mode := ModeComplete
	if req.Stream {
		mode = ModeStream
	}

	id := req.ConversationID
	if id == "" {
		id = g.newID()
	}
	ctx = logging.WithConversationID(ctx, id)

	ctx, span := g.tracer.Start(ctx, "gateway.HandleTurn")

	history := g.store.History(id)
	isNew := len(history) == 0
	tracing.SetTurnAttributes(span, id, mode, isNew, len(history))

	t := &turn{
		gateway: g,
		id:      id,
		mode:    mode,
		user:    session.Turn{Role: session.RoleUser, Text: req.Message},
		span:    span,
	}

	prompt := req.SystemPrompt
	if prompt == "" {
		prompt = g.config.SystemPrompt
	}
	if prompt != "" && (isNew || history[0].Role != session.RoleSystem) {
		sys := session.Turn{Role: session.RoleSystem, Text: prompt}
		history = append([]session.Turn{sys}, history...)
		if isNew {
			t.seed = &sys
		}
	}

	providerReq := g.buildRequest(history, t.user, req.Options, req.Stream)
	tracing.SetProviderAttributes(span, g.provider.GetName(), providerReq.Model)

	if req.Stream {
		return g.stream(ctx, t, providerReq)
	}
	return g.complete(ctx, t, providerReq)
}

func (g *Gateway) complete(ctx context.Context, t *turn, req *providers.CompletionRequest) (Result, error) {
	defer t.span.End()

	start := time.Now()
	resp, err := g.invoke(ctx, req)
	latency := time.Since(start)
	if err != nil {
		return nil, t.fail(ctx, err, latency)
	}

	t.persist(resp.Content)

	model := resp.Model
	if model == "" {
		model = req.Model
	}
	tracing.SetTokenAttributes(t.span, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
	tracing.SetStatus(t.span, nil)
	g.metrics.RecordTurn(ModeComplete, OutcomeOK, latency, resp.Usage.TotalTokens)

	g.logger.InfoContext(ctx, "chat turn completed",
		"model", model,
		"finish_reason", resp.FinishReason,
		"total_tokens", resp.Usage.TotalTokens,
		"provider_latency_ms", latency.Milliseconds(),
	)

	return &Completed{
		ConversationID: t.id,
		Text:           resp.Content,
		TokensUsed:     resp.Usage.TotalTokens,
		Model:          model,
		FinishReason:   resp.FinishReason,
	}, nil
}

func (g *Gateway) stream(ctx context.Context, t *turn, req *providers.CompletionRequest) (Result, error) {
	callCtx, cancel := g.withTimeout(ctx)
	callCtx, invokeSpan := g.tracer.Start(callCtx, "provider.invoke")

	start := time.Now()
	chunks, err := g.provider.StreamCompletion(callCtx, req)
	if err == nil && chunks == nil {
		err = &UpstreamError{Op: ModeStream, Provider: g.provider.GetName(), Cause: errNoStream}
	}
	if err != nil {
		err = g.classify(ctx, callCtx, ModeStream, err, 0)
		tracing.SetError(invokeSpan, err)
		tracing.SetStatus(invokeSpan, err)
		invokeSpan.End()
		cancel()

		err = t.fail(ctx, err, time.Since(start))
		t.span.End()
		return nil, err
	}

	s := newStream(t, req.Model)
	go s.pump(ctx, callCtx, cancel, invokeSpan, chunks, start)
	return s, nil
}

// invoke runs a non-streaming call under the upstream timeout. A missing
// or empty reply is an *UpstreamError.
func (g *Gateway) invoke(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	callCtx, cancel := g.withTimeout(ctx)
	defer cancel()

	callCtx, span := g.tracer.Start(callCtx, "provider.invoke")
	defer span.End()

	resp, err := g.provider.SendCompletion(callCtx, req)
	if err == nil && (resp == nil || resp.Content == "") {
		err = &UpstreamError{Op: ModeComplete, Provider: g.provider.GetName(), Cause: errEmptyResponse}
	}
	if err != nil {
		err = g.classify(ctx, callCtx, ModeComplete, err, 0)
		tracing.SetError(span, err)
		tracing.SetStatus(span, err)
		return nil, err
	}
	tracing.SetStatus(span, nil)
	return resp, nil
}

// Complete runs a stateless one-shot request: no conversation is read or
// written and no admission check is made.
func (g *Gateway) Complete(ctx context.Context, turns []session.Turn, opts Options) (*providers.CompletionResponse, error) {
	if len(turns) == 0 {
		return nil, fmt.Errorf("%w: no turns", ErrInvalidTurn)
	}

	messages := make([]providers.Message, len(turns))
	for i, turn := range turns {
		messages[i] = providers.Message{Role: string(turn.Role), Content: turn.Text}
	}
	req := g.applyOptions(&providers.CompletionRequest{Messages: messages}, opts)

	start := time.Now()
	resp, err := g.invoke(ctx, req)
	if err != nil {
		return nil, err
	}
	g.logger.DebugContext(ctx, "one-shot completion finished",
		"model", resp.Model,
		"total_tokens", resp.Usage.TotalTokens,
		"provider_latency_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

func (g *Gateway) buildRequest(history []session.Turn, user session.Turn, opts Options, stream bool) *providers.CompletionRequest {
	messages := make([]providers.Message, 0, len(history)+1)
	for _, turn := range history {
		messages = append(messages, providers.Message{Role: string(turn.Role), Content: turn.Text})
	}
	messages = append(messages, providers.Message{Role: string(user.Role), Content: user.Text})

	return g.applyOptions(&providers.CompletionRequest{Messages: messages, Stream: stream}, opts)
}

func (g *Gateway) applyOptions(req *providers.CompletionRequest, opts Options) *providers.CompletionRequest {
	defaults := g.config.Defaults

	req.Model = defaults.Model
	if opts.Model != "" {
		req.Model = opts.Model
	}
	if defaults.Temperature != nil {
		req.Temperature = *defaults.Temperature
	}
	if opts.Temperature != nil {
		req.Temperature = *opts.Temperature
	}
	req.MaxTokens = defaults.MaxTokens
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	return req
}

func (g *Gateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.config.UpstreamTimeout > 0 {
		return context.WithTimeout(ctx, g.config.UpstreamTimeout)
	}
	return context.WithCancel(ctx)
}

// classify maps a provider failure onto the gateway taxonomy. ctx is the
// caller's context and callCtx the timeout-bound child used for the call.
func (g *Gateway) classify(ctx, callCtx context.Context, op string, err error, fragments int) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return context.Canceled
	}

	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return err
	}

	timedOut := providers.IsTimeout(err) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(callCtx.Err(), context.DeadlineExceeded)

	return &UpstreamError{
		Op:        op,
		Provider:  g.provider.GetName(),
		Timeout:   timedOut,
		Fragments: fragments,
		Cause:     err,
	}
}

// turn carries the state of one HandleTurn call through to persistence.
type turn struct {
	gateway *Gateway
	id      string
	mode    string
	seed    *session.Turn
	user    session.Turn
	span    trace.Span
}

// persist writes the user turn and then the assistant turn, priming a new
// conversation with its system turn first.
func (t *turn) persist(reply string) {
	store := t.gateway.store
	if t.seed != nil {
		store.Seed(t.id, *t.seed)
	}
	store.Append(t.id, t.user)
	store.Append(t.id, session.Turn{Role: session.RoleAssistant, Text: reply})
}

// fail records a failed turn and returns err.
func (t *turn) fail(ctx context.Context, err error, latency time.Duration) error {
	g := t.gateway
	tracing.SetError(t.span, err)
	tracing.SetStatus(t.span, err)

	outcome := OutcomeUpstreamError
	var upstream *UpstreamError
	switch {
	case errors.Is(err, context.Canceled):
		outcome = OutcomeCanceled
		g.logger.InfoContext(ctx, "chat turn canceled by caller", "mode", t.mode)
	case errors.As(err, &upstream) && upstream.Interrupted():
		outcome = OutcomeInterrupted
		g.logger.WarnContext(ctx, "chat stream interrupted",
			"fragments", upstream.Fragments,
			"error", err,
		)
	default:
		g.logger.ErrorContext(ctx, "chat turn failed",
			"mode", t.mode,
			"error", err,
			"provider_latency_ms", latency.Milliseconds(),
		)
	}
	g.metrics.RecordTurn(t.mode, outcome, latency, 0)
	return err
}
