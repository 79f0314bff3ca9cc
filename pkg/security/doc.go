/*
Package security groups chatgate's client authentication and secret handling.

# API Key Authentication

Package auth validates client API keys on /api/ routes:

	validator := auth.NewAPIKeyValidator(auth.KeysFromConfig(cfg.Security.Auth.Keys))
	mw := auth.NewAPIKeyMiddleware(validator,
		[]auth.APIKeySource{auth.HeaderSource(cfg.Security.Auth.Header)},
		auth.WithPathPrefix("/api/"),
	)

	handler = mw.Handle(handler)

Authenticated requests are rate limited per key name rather than per IP.

# Secrets

Package secrets resolves ${secret:name} references in provider.api_key and
security.auth.keys from CHATGATE_SECRET_* environment variables or a mounted
secrets directory:

	resolver, _, err := secrets.NewFromConfig(&cfg.Security.Secrets, logger)
	if err != nil {
		return err
	}
	err = resolver.ResolveConfig(ctx, cfg)
*/
package security
