package config

import (
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
	"time"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any rule fails. All field errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateProvider(&cfg.Provider)...)
	errs = append(errs, validateLimits(&cfg.Limits)...)
	errs = append(errs, validateSessions(&cfg.Sessions)...)
	errs = append(errs, validateGateway(&cfg.Gateway)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateSecurity(&cfg.Security)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid listen address %q: %v", cfg.ListenAddress, err),
		})
	}

	for i, entry := range cfg.TrustedProxies {
		if !validProxyEntry(entry) {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("server.trusted_proxies[%d]", i),
				Message: fmt.Sprintf("%q is not an IP address or CIDR", entry),
			})
		}
	}

	timeouts := []struct {
		field string
		value time.Duration
	}{
		{"server.read_timeout", cfg.ReadTimeout},
		{"server.write_timeout", cfg.WriteTimeout},
		{"server.idle_timeout", cfg.IdleTimeout},
		{"server.shutdown_timeout", cfg.ShutdownTimeout},
	}
	for _, t := range timeouts {
		if t.value < 0 {
			errs = append(errs, FieldError{Field: t.field, Message: "timeout must not be negative"})
		}
	}

	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}
	if cfg.MaxHeaderBytes > 10*1024*1024 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes exceeds reasonable limit (10MB)",
		})
	}
	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_body_bytes",
			Message: "max body bytes must be non-negative",
		})
	}

	if cfg.CORS.Enabled && cfg.CORS.AllowCredentials {
		for _, origin := range cfg.CORS.AllowedOrigins {
			if origin == "*" {
				errs = append(errs, FieldError{
					Field:   "server.cors.allowed_origins",
					Message: "wildcard origin cannot be combined with allow_credentials",
				})
				break
			}
		}
	}

	return errs
}

func validateProvider(cfg *ProviderConfig) []FieldError {
	var errs []FieldError

	switch cfg.Type {
	case "openai", "anthropic":
		if cfg.APIKey == "" {
			errs = append(errs, FieldError{
				Field:   "provider.api_key",
				Message: fmt.Sprintf("API key is required for provider type %q", cfg.Type),
			})
		}
	case "generic":
		if cfg.BaseURL == "" {
			errs = append(errs, FieldError{
				Field:   "provider.base_url",
				Message: "base URL is required for generic providers",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "provider.type",
			Message: fmt.Sprintf("invalid provider type %q: must be 'openai', 'anthropic', or 'generic'", cfg.Type),
		})
	}

	if cfg.BaseURL != "" {
		if u, err := url.Parse(cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, FieldError{
				Field:   "provider.base_url",
				Message: fmt.Sprintf("invalid URL %q", cfg.BaseURL),
			})
		}
	}

	if cfg.Model == "" {
		errs = append(errs, FieldError{Field: "provider.model", Message: "model is required"})
	}
	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{Field: "provider.timeout", Message: "timeout must be positive"})
	}
	if cfg.MaxRetries < 0 {
		errs = append(errs, FieldError{Field: "provider.max_retries", Message: "max retries must be non-negative"})
	}
	if cfg.Temperature != nil && (*cfg.Temperature < 0 || *cfg.Temperature > 2) {
		errs = append(errs, FieldError{
			Field:   "provider.temperature",
			Message: fmt.Sprintf("temperature %v out of range [0, 2]", *cfg.Temperature),
		})
	}
	if cfg.MaxTokens < 0 {
		errs = append(errs, FieldError{Field: "provider.max_tokens", Message: "max tokens must be non-negative"})
	}

	return errs
}

func validateLimits(cfg *LimitsConfig) []FieldError {
	var errs []FieldError

	if cfg.Rate.Requests < 0 {
		errs = append(errs, FieldError{
			Field:   "limits.rate.requests",
			Message: "requests must be non-negative",
		})
	}
	if cfg.Rate.Window < 0 {
		errs = append(errs, FieldError{
			Field:   "limits.rate.window",
			Message: "window must be non-negative",
		})
	}

	return errs
}

func validateSessions(cfg *SessionsConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxTurns < 1 {
		errs = append(errs, FieldError{
			Field:   "sessions.max_turns",
			Message: "max turns must be at least 1",
		})
	}
	if cfg.TTL <= 0 {
		errs = append(errs, FieldError{
			Field:   "sessions.ttl",
			Message: "ttl must be positive",
		})
	}
	if cfg.SweepInterval < time.Second {
		errs = append(errs, FieldError{
			Field:   "sessions.sweep_interval",
			Message: "sweep interval must be at least 1s",
		})
	}

	return errs
}

func validateGateway(cfg *GatewayConfig) []FieldError {
	var errs []FieldError

	if cfg.UpstreamTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "gateway.upstream_timeout",
			Message: "upstream timeout must be positive",
		})
	}
	if cfg.MaxMessageLength < 1 {
		errs = append(errs, FieldError{
			Field:   "gateway.max_message_length",
			Message: "max message length must be at least 1",
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with '/'",
		})
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "endpoint is required when tracing is enabled",
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	return errs
}

func validateSecurity(cfg *SecurityConfig) []FieldError {
	var errs []FieldError

	if cfg.Secrets.CacheTTL < 0 {
		errs = append(errs, FieldError{
			Field:   "security.secrets.cache_ttl",
			Message: "cache ttl must not be negative",
		})
	}

	if !cfg.Auth.Enabled {
		return errs
	}

	if cfg.Auth.Header == "" {
		errs = append(errs, FieldError{
			Field:   "security.auth.header",
			Message: "header is required when authentication is enabled",
		})
	}

	active := 0
	seen := make(map[string]bool)
	for i, key := range cfg.Auth.Keys {
		field := fmt.Sprintf("security.auth.keys[%d].key", i)
		if key.Key == "" {
			errs = append(errs, FieldError{Field: field, Message: "key is required"})
			continue
		}
		if seen[key.Key] {
			errs = append(errs, FieldError{Field: field, Message: "duplicate key"})
		}
		seen[key.Key] = true
		if !key.Disabled {
			active++
		}
	}
	if active == 0 {
		errs = append(errs, FieldError{
			Field:   "security.auth.keys",
			Message: "at least one enabled key is required when authentication is enabled",
		})
	}

	return errs
}

func validProxyEntry(entry string) bool {
	if _, err := netip.ParsePrefix(entry); err == nil {
		return true
	}
	_, err := netip.ParseAddr(entry)
	return err == nil
}
