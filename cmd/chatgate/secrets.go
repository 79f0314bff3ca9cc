package main

import (
	"context"
	"log/slog"
	"sync"

	"mercator-hq/chatgate/pkg/config"
	"mercator-hq/chatgate/pkg/security/auth"
	"mercator-hq/chatgate/pkg/security/secrets"
)

// keyReloader re-resolves client API keys into the validator. It keeps the
// unresolved keys so secret rotation can be applied without re-reading the
// configuration file.
type keyReloader struct {
	resolver  *secrets.Resolver
	validator *auth.APIKeyValidator
	logger    *slog.Logger

	mu  sync.Mutex
	raw []config.APIKeyConfig
}

func newKeyReloader(resolver *secrets.Resolver, validator *auth.APIKeyValidator, raw []config.APIKeyConfig, logger *slog.Logger) *keyReloader {
	return &keyReloader{
		resolver:  resolver,
		validator: validator,
		logger:    logger,
		raw:       append([]config.APIKeyConfig(nil), raw...),
	}
}

// configChanged installs the keys of a reloaded configuration.
func (k *keyReloader) configChanged(ctx context.Context, next *config.Config) {
	k.mu.Lock()
	k.raw = append([]config.APIKeyConfig(nil), next.Security.Auth.Keys...)
	k.mu.Unlock()

	k.reload(ctx, "config")
}

// secretsChanged drops cached secrets and re-resolves the current keys.
func (k *keyReloader) secretsChanged(ctx context.Context) {
	k.resolver.Invalidate()
	k.reload(ctx, "secrets")
}

func (k *keyReloader) reload(ctx context.Context, reason string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	resolved := &config.Config{}
	resolved.Security.Auth.Keys = append([]config.APIKeyConfig(nil), k.raw...)
	if err := k.resolver.ResolveConfig(ctx, resolved); err != nil {
		k.logger.Error("api key reload failed, keeping current keys", "reason", reason, "error", err)
		return
	}

	k.validator.Replace(auth.KeysFromConfig(resolved.Security.Auth.Keys))
	k.logger.Info("api keys reloaded", "reason", reason, "keys", k.validator.Len())
}
