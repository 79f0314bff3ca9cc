package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8000"
	DefaultReadTimeout     = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB
	DefaultMaxBodyBytes    = 1048576 // 1MB

	// CORS defaults
	DefaultCORSEnabled          = true
	DefaultCORSOrigin           = "http://localhost:3000"
	DefaultCORSMaxAge           = 3600 // 1 hour
	DefaultCORSAllowCredentials = true

	// Provider defaults
	DefaultProviderType        = "openai"
	DefaultProviderModel       = "gpt-4-turbo"
	DefaultProviderTimeout     = 60 * time.Second
	DefaultProviderMaxRetries  = 3
	DefaultProviderTemperature = 0.7
	DefaultProviderMaxTokens   = 2000

	// Rate limit defaults
	DefaultRateRequests = 100
	DefaultRateWindow   = 60 * time.Second

	// Session defaults
	DefaultSessionMaxTurns      = 20
	DefaultSessionTTL           = 60 * time.Minute
	DefaultSessionSweepInterval = 5 * time.Minute

	// Gateway defaults
	DefaultUpstreamTimeout  = 120 * time.Second
	DefaultMaxMessageLength = 10000

	// Telemetry defaults
	DefaultLoggingLevel        = "info"
	DefaultLoggingFormat       = "json"
	DefaultMetricsEnabled      = true
	DefaultMetricsPath         = "/metrics"
	DefaultMetricsNamespace    = "chatgate"
	DefaultTracingEndpoint     = "localhost:4317"
	DefaultTracingServiceName  = "chatgate"
	DefaultTracingSamplingRate = 1.0

	// Security defaults
	DefaultAuthHeader      = "X-API-Key"
	DefaultSecretEnvPrefix = "CHATGATE_SECRET_"
	DefaultSecretCacheTTL  = 5 * time.Minute
)

// ApplyDefaults fills every unset field of cfg with its default value.
// Fields that are already set are left alone.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	applyCORSDefaults(cfg)

	// Provider defaults
	applyProviderDefaults(&cfg.Provider)

	// Rate limit defaults. An entirely empty block gets the defaults; a
	// partially set one is taken literally so that zero values keep their
	// meaning.
	if cfg.Limits.Rate.Requests == 0 && cfg.Limits.Rate.Window == 0 {
		cfg.Limits.Rate.Requests = DefaultRateRequests
		cfg.Limits.Rate.Window = DefaultRateWindow
	}

	// Session defaults
	if cfg.Sessions.MaxTurns == 0 {
		cfg.Sessions.MaxTurns = DefaultSessionMaxTurns
	}
	if cfg.Sessions.TTL == 0 {
		cfg.Sessions.TTL = DefaultSessionTTL
	}
	if cfg.Sessions.SweepInterval == 0 {
		cfg.Sessions.SweepInterval = DefaultSessionSweepInterval
	}

	// Gateway defaults
	if cfg.Gateway.UpstreamTimeout == 0 {
		cfg.Gateway.UpstreamTimeout = DefaultUpstreamTimeout
	}
	if cfg.Gateway.MaxMessageLength == 0 {
		cfg.Gateway.MaxMessageLength = DefaultMaxMessageLength
	}

	// Telemetry defaults
	applyTelemetryDefaults(&cfg.Telemetry)

	// Security defaults
	if cfg.Security.Auth.Header == "" {
		cfg.Security.Auth.Header = DefaultAuthHeader
	}
	if cfg.Security.Secrets.EnvPrefix == "" {
		cfg.Security.Secrets.EnvPrefix = DefaultSecretEnvPrefix
	}
	if cfg.Security.Secrets.CacheTTL == 0 {
		cfg.Security.Secrets.CacheTTL = DefaultSecretCacheTTL
	}
}

func applyCORSDefaults(cfg *Config) {
	cors := &cfg.Server.CORS

	// An untouched block means the operator wants the defaults, including
	// the boolean ones.
	untouched := !cors.Enabled &&
		len(cors.AllowedOrigins) == 0 &&
		len(cors.AllowedMethods) == 0 &&
		len(cors.AllowedHeaders) == 0 &&
		len(cors.ExposedHeaders) == 0 &&
		cors.MaxAge == 0 &&
		!cors.AllowCredentials
	if untouched {
		cors.Enabled = DefaultCORSEnabled
		cors.AllowCredentials = DefaultCORSAllowCredentials
	}

	if len(cors.AllowedOrigins) == 0 {
		cors.AllowedOrigins = []string{DefaultCORSOrigin}
	}
	if len(cors.AllowedMethods) == 0 {
		cors.AllowedMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	}
	if len(cors.AllowedHeaders) == 0 {
		cors.AllowedHeaders = []string{"Content-Type", "X-API-Key", "X-Request-ID"}
	}
	if len(cors.ExposedHeaders) == 0 {
		cors.ExposedHeaders = []string{"X-Request-ID", "X-Conversation-ID", "Retry-After"}
	}
	if cors.MaxAge == 0 {
		cors.MaxAge = DefaultCORSMaxAge
	}
}

func applyProviderDefaults(p *ProviderConfig) {
	if p.Type == "" {
		p.Type = DefaultProviderType
	}
	if p.Model == "" {
		p.Model = DefaultProviderModel
	}
	if p.Timeout == 0 {
		p.Timeout = DefaultProviderTimeout
	}
	if p.MaxRetries == 0 {
		p.MaxRetries = DefaultProviderMaxRetries
	}
	if p.Temperature == nil {
		t := DefaultProviderTemperature
		p.Temperature = &t
	}
	if p.MaxTokens == 0 {
		p.MaxTokens = DefaultProviderMaxTokens
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLoggingLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLoggingFormat
	}

	if !t.Metrics.Enabled && t.Metrics.Path == "" && t.Metrics.Namespace == "" {
		t.Metrics.Enabled = DefaultMetricsEnabled
	}
	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}

	if t.Tracing.Endpoint == "" {
		t.Tracing.Endpoint = DefaultTracingEndpoint
		t.Tracing.Insecure = true
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultTracingServiceName
	}
	if t.Tracing.SampleRatio == 0 {
		t.Tracing.SampleRatio = DefaultTracingSamplingRate
	}
}
