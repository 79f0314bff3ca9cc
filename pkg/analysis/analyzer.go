package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"mercator-hq/chatgate/pkg/gateway"
	"mercator-hq/chatgate/pkg/providers"
	"mercator-hq/chatgate/pkg/session"
)

// Limits on analysis inputs.
const (
	MinCategories = 2
	MaxCategories = 10
	MaxBatchTexts = 10

	// DefaultConcurrency bounds the upstream calls a batch makes at once.
	DefaultConcurrency = 4
)

// Completer runs a stateless completion. *gateway.Gateway implements it.
type Completer interface {
	Complete(ctx context.Context, turns []session.Turn, opts gateway.Options) (*providers.CompletionResponse, error)
}

// ValidationError reports analysis input rejected before any upstream call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Analyzer runs the structured analysis operations. All calls are made at
// temperature 0 and leave no conversation behind.
type Analyzer struct {
	completer   Completer
	concurrency int
	logger      *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithConcurrency bounds the concurrent upstream calls of Batch.
func WithConcurrency(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an Analyzer on top of c.
func New(c Completer, opts ...Option) *Analyzer {
	a := &Analyzer{
		completer:   c,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ask sends a single user prompt at temperature 0.
func (a *Analyzer) ask(ctx context.Context, prompt string) (*providers.CompletionResponse, error) {
	zero := 0.0
	return a.completer.Complete(ctx,
		[]session.Turn{{Role: session.RoleUser, Text: prompt}},
		gateway.Options{Temperature: &zero},
	)
}
