package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path,
// applies default values, and validates the result. Environment variables
// are not consulted; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	cfg, err := readConfig(path)
	if err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention CHATGATE_SECTION_FIELD (e.g., CHATGATE_SERVER_LISTEN_ADDRESS)
// and always take precedence over the file. An empty path loads defaults and
// environment only.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		var err error
		if cfg, err = readConfig(path); err != nil {
			return nil, err
		}
	}

	ApplyDefaults(cfg)
	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML and applies defaults without validating.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

func readConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}
	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Malformed values are ignored and the file value is kept.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv("CHATGATE_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	envDuration("CHATGATE_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("CHATGATE_SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("CHATGATE_SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	if val := os.Getenv("CHATGATE_SERVER_TRUSTED_PROXIES"); val != "" {
		cfg.Server.TrustedProxies = splitList(val)
	}
	if val := os.Getenv("CHATGATE_SERVER_CORS_ALLOWED_ORIGINS"); val != "" {
		cfg.Server.CORS.AllowedOrigins = splitList(val)
	}

	// Provider overrides
	if val := os.Getenv("CHATGATE_PROVIDER_TYPE"); val != "" {
		cfg.Provider.Type = val
	}
	if val := os.Getenv("CHATGATE_PROVIDER_BASE_URL"); val != "" {
		cfg.Provider.BaseURL = val
	}
	if val := os.Getenv("CHATGATE_PROVIDER_API_KEY"); val != "" {
		cfg.Provider.APIKey = val
	}
	if val := os.Getenv("CHATGATE_PROVIDER_MODEL"); val != "" {
		cfg.Provider.Model = val
	}
	envDuration("CHATGATE_PROVIDER_TIMEOUT", &cfg.Provider.Timeout)
	envInt("CHATGATE_PROVIDER_MAX_RETRIES", &cfg.Provider.MaxRetries)
	envInt("CHATGATE_PROVIDER_MAX_TOKENS", &cfg.Provider.MaxTokens)
	if val := os.Getenv("CHATGATE_PROVIDER_TEMPERATURE"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Provider.Temperature = &f
		}
	}
	if cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = vendorAPIKey(cfg.Provider.Type)
	}

	// Limits overrides
	envInt("CHATGATE_LIMITS_RATE_REQUESTS", &cfg.Limits.Rate.Requests)
	envDuration("CHATGATE_LIMITS_RATE_WINDOW", &cfg.Limits.Rate.Window)

	// Session overrides
	envInt("CHATGATE_SESSIONS_MAX_TURNS", &cfg.Sessions.MaxTurns)
	envDuration("CHATGATE_SESSIONS_TTL", &cfg.Sessions.TTL)
	envDuration("CHATGATE_SESSIONS_SWEEP_INTERVAL", &cfg.Sessions.SweepInterval)

	// Gateway overrides
	envDuration("CHATGATE_GATEWAY_UPSTREAM_TIMEOUT", &cfg.Gateway.UpstreamTimeout)
	if val := os.Getenv("CHATGATE_GATEWAY_SYSTEM_PROMPT"); val != "" {
		cfg.Gateway.SystemPrompt = val
	}

	// Telemetry overrides
	if val := os.Getenv("CHATGATE_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("CHATGATE_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	envBool("CHATGATE_TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envBool("CHATGATE_TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	if val := os.Getenv("CHATGATE_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val := os.Getenv("CHATGATE_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}

	// Security overrides
	envBool("CHATGATE_SECURITY_AUTH_ENABLED", &cfg.Security.Auth.Enabled)
	if val := os.Getenv("CHATGATE_SECURITY_AUTH_KEYS"); val != "" {
		keys := make([]APIKeyConfig, 0)
		for i, key := range splitList(val) {
			keys = append(keys, APIKeyConfig{Key: key, Name: fmt.Sprintf("env-%d", i)})
		}
		cfg.Security.Auth.Keys = keys
	}
	if val := os.Getenv("CHATGATE_SECURITY_SECRETS_DIR"); val != "" {
		cfg.Security.Secrets.Dir = val
	}
}

// vendorAPIKey returns the provider SDK's conventional environment variable.
func vendorAPIKey(providerType string) string {
	switch providerType {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return ""
	}
}

func envDuration(name string, dst *time.Duration) {
	if val := os.Getenv(name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func envInt(name string, dst *int) {
	if val := os.Getenv(name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envBool(name string, dst *bool) {
	if val := os.Getenv(name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
