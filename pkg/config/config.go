package config

import "time"

// Config is the root configuration structure for chatgate.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts, and CORS.
	Server ServerConfig `yaml:"server"`

	// Provider configures the upstream model provider.
	Provider ProviderConfig `yaml:"provider"`

	// Limits contains per-client admission limits.
	Limits LimitsConfig `yaml:"limits"`

	// Sessions contains conversation history retention settings.
	Sessions SessionsConfig `yaml:"sessions"`

	// Gateway contains completion gateway settings.
	Gateway GatewayConfig `yaml:"gateway"`

	// Telemetry contains logging, metrics, and tracing configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Security contains client authentication settings.
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8000", "0.0.0.0:8000").
	// Default: "127.0.0.1:8000"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Streaming replies can run long, so keep this above
	// gateway.upstream_timeout or set it to zero.
	// Default: 0 (no timeout)
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request when
	// keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes limits the size of request bodies.
	// Default: 1048576 (1MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// TrustedProxies lists the peers (IPs or CIDRs) whose X-Forwarded-For
	// header is believed when identifying clients. Requests from any other
	// peer are identified by their transport address.
	// Default: empty (X-Forwarded-For is ignored)
	TrustedProxies []string `yaml:"trusted_proxies"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS (Cross-Origin Resource Sharing) configuration.
type CORSConfig struct {
	// Enabled controls whether CORS is enabled.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins is a list of allowed origins for CORS requests.
	// Default: ["http://localhost:3000"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods is a list of allowed HTTP methods.
	// Default: ["GET", "POST", "DELETE", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders is a list of allowed request headers.
	// Default: ["Content-Type", "X-API-Key", "X-Request-ID"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// ExposedHeaders is a list of headers exposed to the client.
	// Default: ["X-Request-ID", "X-Conversation-ID", "Retry-After"]
	ExposedHeaders []string `yaml:"exposed_headers"`

	// MaxAge is the preflight cache lifetime in seconds.
	// Default: 3600
	MaxAge int `yaml:"max_age"`

	// AllowCredentials controls whether credentials are allowed.
	// Default: true
	AllowCredentials bool `yaml:"allow_credentials"`
}

// ProviderConfig contains configuration for the upstream model provider.
type ProviderConfig struct {
	// Type selects the adapter.
	// Options: "openai", "anthropic", "generic"
	// Default: "openai"
	Type string `yaml:"type"`

	// BaseURL overrides the provider's API endpoint. Required for "generic".
	BaseURL string `yaml:"base_url"`

	// APIKey is the authentication key for the provider. When empty it is
	// read from OPENAI_API_KEY or ANTHROPIC_API_KEY depending on Type.
	APIKey string `yaml:"api_key"`

	// Model is the model name sent upstream.
	// Default: "gpt-4-turbo"
	Model string `yaml:"model"`

	// Timeout bounds a single non-streaming provider call.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the maximum number of retry attempts for failed requests.
	// Default: 3
	MaxRetries int `yaml:"max_retries"`

	// Temperature is the default sampling temperature for chat turns.
	// Default: 0.7
	Temperature *float64 `yaml:"temperature"`

	// MaxTokens is the default completion budget.
	// Default: 2000
	MaxTokens int `yaml:"max_tokens"`
}

// LimitsConfig contains admission limits.
type LimitsConfig struct {
	// Rate is the per-client sliding window.
	Rate RateConfig `yaml:"rate"`
}

// RateConfig configures the per-client sliding window limiter. A zero
// Requests with a non-zero Window rejects every request; a zero Window
// admits every request.
type RateConfig struct {
	// Requests is the number of admissions allowed per window.
	// Default: 100
	Requests int `yaml:"requests"`

	// Window is the length of the sliding window.
	// Default: 60s
	Window time.Duration `yaml:"window"`
}

// SessionsConfig contains conversation history retention settings.
type SessionsConfig struct {
	// MaxTurns is the maximum number of turns kept per conversation.
	// Default: 20
	MaxTurns int `yaml:"max_turns"`

	// TTL is how long an untouched conversation is kept.
	// Default: 60m
	TTL time.Duration `yaml:"ttl"`

	// SweepInterval is how often expired conversations are evicted.
	// Default: 5m
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// GatewayConfig contains completion gateway settings.
type GatewayConfig struct {
	// UpstreamTimeout bounds a whole turn, streaming included.
	// Default: 120s
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"`

	// SystemPrompt is used when a request does not supply one.
	SystemPrompt string `yaml:"system_prompt"`

	// MaxMessageLength is the maximum user message length in characters.
	// Default: 10000
	MaxMessageLength int `yaml:"max_message_length"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "chatgate"
	Namespace string `yaml:"namespace"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "chatgate"
	ServiceName string `yaml:"service_name"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Insecure disables TLS for the OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure"`
}

// SecurityConfig contains client authentication and secret resolution
// settings.
type SecurityConfig struct {
	// Auth contains API key authentication configuration.
	Auth AuthConfig `yaml:"auth"`

	// Secrets controls how ${secret:name} references are resolved.
	Secrets SecretsConfig `yaml:"secrets"`
}

// SecretsConfig configures resolution of ${secret:name} references in
// provider.api_key and security.auth.keys.
type SecretsConfig struct {
	// EnvPrefix is prepended to the upper-cased secret name to form the
	// environment variable that holds it.
	// Default: "CHATGATE_SECRET_"
	EnvPrefix string `yaml:"env_prefix"`

	// Dir is a directory of one-file-per-secret mounts. Files must be
	// mode 0600 or 0400. Empty disables file lookup.
	Dir string `yaml:"dir"`

	// CacheTTL bounds how long a resolved value is reused.
	// Default: 5m
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// AuthConfig contains API key authentication configuration.
type AuthConfig struct {
	// Enabled controls whether API keys are required on /api/ routes.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Header is the request header carrying the key.
	// Default: "X-API-Key"
	Header string `yaml:"header"`

	// Keys is the list of accepted API keys.
	Keys []APIKeyConfig `yaml:"keys"`

	// Watch reloads Keys when the configuration file changes.
	// Default: false
	Watch bool `yaml:"watch"`
}

// APIKeyConfig contains configuration for a single API key.
type APIKeyConfig struct {
	// Key is the API key value.
	Key string `yaml:"key"`

	// Name identifies the key's owner in logs.
	Name string `yaml:"name"`

	// Disabled rejects the key without removing it from the file.
	Disabled bool `yaml:"disabled"`
}
