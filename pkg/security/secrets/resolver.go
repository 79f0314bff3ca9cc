package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"mercator-hq/chatgate/pkg/config"
)

// referencePattern matches ${secret:name}.
var referencePattern = regexp.MustCompile(`\$\{secret:([^}]*)\}`)

// Resolver looks secrets up across its sources in order and caches the
// values it finds.
type Resolver struct {
	sources []Source
	cache   *cache
	logger  *slog.Logger
}

// Option configures a Resolver.
type Option func(*resolverOptions)

type resolverOptions struct {
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// WithCacheTTL sets how long resolved values are reused. Zero disables
// caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *resolverOptions) { o.ttl = ttl }
}

// WithClock overrides the cache clock.
func WithClock(now func() time.Time) Option {
	return func(o *resolverOptions) { o.now = now }
}

// WithLogger sets the resolver logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolverOptions) { o.logger = logger }
}

// NewResolver creates a resolver over sources, consulted in order.
func NewResolver(sources []Source, opts ...Option) *Resolver {
	o := resolverOptions{now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Resolver{
		sources: sources,
		cache:   newCache(o.ttl, o.now),
		logger:  o.logger,
	}
}

// NewFromConfig builds the environment source and, when a directory is
// configured, the directory source behind it. The directory source is
// returned so the caller can watch it; it is nil without a directory.
func NewFromConfig(cfg *config.SecretsConfig, logger *slog.Logger) (*Resolver, *DirSource, error) {
	if logger == nil {
		logger = slog.Default()
	}

	sources := []Source{NewEnvSource(cfg.EnvPrefix)}

	var dir *DirSource
	if cfg.Dir != "" {
		var err error
		dir, err = NewDirSource(cfg.Dir, logger)
		if err != nil {
			return nil, nil, err
		}
		sources = append(sources, dir)
	}

	return NewResolver(sources, WithCacheTTL(cfg.CacheTTL), WithLogger(logger)), dir, nil
}

// Lookup returns the named secret from the first source that has it.
func (r *Resolver) Lookup(ctx context.Context, name string) (string, error) {
	if value, ok := r.cache.get(name); ok {
		return value, nil
	}

	var errs []error
	for _, source := range r.sources {
		value, err := source.Lookup(ctx, name)
		if err == nil {
			r.cache.set(name, value)
			r.logger.Debug("secret resolved", "name", redact(name), "source", source.Name())
			return value, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("secret %q from %s: %w", name, source.Name(), err)
		}
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return "", fmt.Errorf("secret %q: %w (no sources configured)", name, ErrNotFound)
	}
	return "", fmt.Errorf("secret %q: %w", name, errors.Join(errs...))
}

// Expand replaces every ${secret:name} in s with the secret's value.
// Strings without references are returned unchanged.
func (r *Resolver) Expand(ctx context.Context, s string) (string, error) {
	if !strings.Contains(s, "${secret:") {
		return s, nil
	}

	var firstErr error
	out := referencePattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}
		name := referencePattern.FindStringSubmatch(match)[1]
		if name == "" {
			firstErr = fmt.Errorf("empty secret reference %q", match)
			return match
		}
		value, err := r.Lookup(ctx, name)
		if err != nil {
			firstErr = err
			return match
		}
		return value
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// ResolveConfig expands secret references in the provider API key and
// every client API key of cfg, in place.
func (r *Resolver) ResolveConfig(ctx context.Context, cfg *config.Config) error {
	key, err := r.Expand(ctx, cfg.Provider.APIKey)
	if err != nil {
		return fmt.Errorf("provider.api_key: %w", err)
	}
	cfg.Provider.APIKey = key

	for i := range cfg.Security.Auth.Keys {
		key, err := r.Expand(ctx, cfg.Security.Auth.Keys[i].Key)
		if err != nil {
			return fmt.Errorf("security.auth.keys[%d].key: %w", i, err)
		}
		cfg.Security.Auth.Keys[i].Key = key
	}
	return nil
}

// Invalidate drops every cached value.
func (r *Resolver) Invalidate() {
	r.cache.clear()
	r.logger.Debug("secret cache cleared")
}

// redact keeps the ends of a secret name for logs.
func redact(name string) string {
	if len(name) <= 4 {
		return "***"
	}
	return name[:2] + "..." + name[len(name)-2:]
}
