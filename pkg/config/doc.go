// Package config provides configuration management for chatgate.
//
// Configuration is read from a YAML file, completed with defaults, and
// overridden from the environment:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("chatgate.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention CHATGATE_SECTION_FIELD:
//
//   - CHATGATE_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - CHATGATE_SERVER_TRUSTED_PROXIES overrides server.trusted_proxies (comma separated)
//   - CHATGATE_PROVIDER_API_KEY overrides provider.api_key
//   - CHATGATE_LIMITS_RATE_REQUESTS overrides limits.rate.requests
//   - CHATGATE_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// When provider.api_key is still empty, OPENAI_API_KEY or ANTHROPIC_API_KEY
// is used depending on provider.type.
//
// Values of the form ${secret:name} in provider.api_key and
// security.auth.keys are left as-is here and resolved by package secrets.
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Reloading
//
// Watcher observes the file with fsnotify and hands every valid new
// configuration to a callback. The configuration itself is never global;
// callers pass *Config to the constructors that need it.
package config
