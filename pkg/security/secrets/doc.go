/*
Package secrets resolves ${secret:name} references in chatgate configuration.

Credentials such as the upstream provider key or client API keys can be kept
out of the configuration file by writing a reference instead of the value:

	provider:
	  api_key: ${secret:openai-api-key}
	security:
	  auth:
	    keys:
	      - name: web
	        key: ${secret:web-client-key}

# Sources

A Resolver consults its sources in order:

  - EnvSource reads CHATGATE_SECRET_OPENAI_API_KEY for "openai-api-key"
    (the prefix is security.secrets.env_prefix).
  - DirSource reads the file security.secrets.dir/openai-api-key, the layout
    of a Kubernetes secret volume. Files must be mode 0600 or 0400.

A source that does not hold a secret reports ErrNotFound and the next one
is tried. Any other failure, such as an insecure file mode, stops the lookup.

# Usage

	resolver, dir, err := secrets.NewFromConfig(&cfg.Security.Secrets, logger)
	if err != nil {
		return err
	}
	if err := resolver.ResolveConfig(ctx, cfg); err != nil {
		return err
	}

Resolved values are cached for security.secrets.cache_ttl. When the
directory is watched with DirSource.Watch, call Resolver.Invalidate from the
change callback so rotated files are picked up on the next resolution.

Secret names are redacted in logs and values are never logged.
*/
package secrets
