package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// minimalConfig returns a defaulted configuration that passes validation.
func minimalConfig() *Config {
	cfg := &Config{Provider: ProviderConfig{APIKey: "sk-test"}}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(minimalConfig()); err != nil {
		t.Errorf("expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	err := Validate(&Config{})
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	var validationErr ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(validationErr.Errors) < 2 {
		t.Errorf("expected multiple errors, got %d", len(validationErr.Errors))
	}
	if !strings.Contains(validationErr.Error(), "validation failed with") {
		t.Errorf("error message should mention multiple errors: %s", validationErr.Error())
	}
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Config)
		errorField string
	}{
		{
			name:       "bad listen address",
			mutate:     func(c *Config) { c.Server.ListenAddress = "localhost" },
			errorField: "server.listen_address",
		},
		{
			name:       "negative read timeout",
			mutate:     func(c *Config) { c.Server.ReadTimeout = -time.Second },
			errorField: "server.read_timeout",
		},
		{
			name: "wildcard origin with credentials",
			mutate: func(c *Config) {
				c.Server.CORS.AllowedOrigins = []string{"*"}
			},
			errorField: "server.cors.allowed_origins",
		},
		{
			name:       "malformed trusted proxy",
			mutate:     func(c *Config) { c.Server.TrustedProxies = []string{"10.0.0.0/8", "proxy.internal"} },
			errorField: "server.trusted_proxies[1]",
		},
		{
			name:       "unknown provider type",
			mutate:     func(c *Config) { c.Provider.Type = "bedrock" },
			errorField: "provider.type",
		},
		{
			name:       "missing api key",
			mutate:     func(c *Config) { c.Provider.APIKey = "" },
			errorField: "provider.api_key",
		},
		{
			name: "generic without base url",
			mutate: func(c *Config) {
				c.Provider.Type = "generic"
				c.Provider.APIKey = ""
			},
			errorField: "provider.base_url",
		},
		{
			name:       "malformed base url",
			mutate:     func(c *Config) { c.Provider.BaseURL = "not a url" },
			errorField: "provider.base_url",
		},
		{
			name: "temperature above range",
			mutate: func(c *Config) {
				temp := 2.5
				c.Provider.Temperature = &temp
			},
			errorField: "provider.temperature",
		},
		{
			name:       "negative rate requests",
			mutate:     func(c *Config) { c.Limits.Rate.Requests = -1 },
			errorField: "limits.rate.requests",
		},
		{
			name:       "negative rate window",
			mutate:     func(c *Config) { c.Limits.Rate.Window = -time.Second },
			errorField: "limits.rate.window",
		},
		{
			name:       "zero max turns",
			mutate:     func(c *Config) { c.Sessions.MaxTurns = 0 },
			errorField: "sessions.max_turns",
		},
		{
			name:       "sub-second sweep",
			mutate:     func(c *Config) { c.Sessions.SweepInterval = time.Millisecond },
			errorField: "sessions.sweep_interval",
		},
		{
			name:       "zero upstream timeout",
			mutate:     func(c *Config) { c.Gateway.UpstreamTimeout = 0 },
			errorField: "gateway.upstream_timeout",
		},
		{
			name:       "bad log level",
			mutate:     func(c *Config) { c.Telemetry.Logging.Level = "verbose" },
			errorField: "telemetry.logging.level",
		},
		{
			name:       "sample ratio out of range",
			mutate:     func(c *Config) { c.Telemetry.Tracing.SampleRatio = 1.5 },
			errorField: "telemetry.tracing.sample_ratio",
		},
		{
			name:       "auth without keys",
			mutate:     func(c *Config) { c.Security.Auth.Enabled = true },
			errorField: "security.auth.keys",
		},
		{
			name: "auth with only disabled keys",
			mutate: func(c *Config) {
				c.Security.Auth.Enabled = true
				c.Security.Auth.Keys = []APIKeyConfig{{Key: "a", Disabled: true}}
			},
			errorField: "security.auth.keys",
		},
		{
			name: "duplicate auth key",
			mutate: func(c *Config) {
				c.Security.Auth.Enabled = true
				c.Security.Auth.Keys = []APIKeyConfig{{Key: "a"}, {Key: "a"}}
			},
			errorField: "security.auth.keys[1].key",
		},
		{
			name:       "negative secret cache ttl",
			mutate:     func(c *Config) { c.Security.Secrets.CacheTTL = -time.Second },
			errorField: "security.secrets.cache_ttl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := minimalConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}

			var validationErr ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}

			found := false
			for _, fe := range validationErr.Errors {
				if fe.Field == tt.errorField {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("expected error for field %q, got: %v", tt.errorField, validationErr.Errors)
			}
		})
	}
}

func TestValidate_TrustedProxiesAcceptAddressesAndPrefixes(t *testing.T) {
	cfg := minimalConfig()
	cfg.Server.TrustedProxies = []string{"10.0.0.0/8", "192.168.1.7", "::1", "fd00::/8"}
	if err := Validate(cfg); err != nil {
		t.Errorf("expected trusted proxies to be valid, got %v", err)
	}
}

func TestValidate_ZeroRateLimitsAreValid(t *testing.T) {
	cfg := minimalConfig()
	cfg.Limits.Rate = RateConfig{Requests: 0, Window: time.Minute}
	if err := Validate(cfg); err != nil {
		t.Errorf("expected zero capacity to be valid, got %v", err)
	}

	cfg.Limits.Rate = RateConfig{Requests: 5, Window: 0}
	if err := Validate(cfg); err != nil {
		t.Errorf("expected zero window to be valid, got %v", err)
	}
}
