package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chatgate.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "0.0.0.0:8080"
  read_timeout: "60s"
provider:
  api_key: "test-key-123"
  timeout: "30s"
  max_retries: 5
telemetry:
  logging:
    level: "debug"
    format: "text"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:8080" {
		t.Errorf("expected listen address 0.0.0.0:8080, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 60*time.Second {
		t.Errorf("expected read timeout 60s, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Provider.MaxRetries != 5 {
		t.Errorf("expected max retries 5, got %d", cfg.Provider.MaxRetries)
	}
	if cfg.Telemetry.Logging.Format != "text" {
		t.Errorf("expected text format, got %q", cfg.Telemetry.Logging.Format)
	}
	if cfg.Sessions.MaxTurns != DefaultSessionMaxTurns {
		t.Errorf("expected default max turns, got %d", cfg.Sessions.MaxTurns)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantMsg string
	}{
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") },
			wantMsg: "failed to read",
		},
		{
			name:    "invalid yaml",
			path:    func(t *testing.T) string { return writeConfig(t, "server: [") },
			wantMsg: "failed to parse",
		},
		{
			name:    "fails validation",
			path:    func(t *testing.T) string { return writeConfig(t, "sessions:\n  max_turns: -1\n") },
			wantMsg: "validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(tt.path(t))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error containing %q, got %v", tt.wantMsg, err)
			}
		})
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "127.0.0.1:8000"
provider:
  api_key: "file-key"
limits:
  rate:
    requests: 100
    window: 60s
`)

	t.Setenv("CHATGATE_SERVER_LISTEN_ADDRESS", "0.0.0.0:9999")
	t.Setenv("CHATGATE_PROVIDER_API_KEY", "env-key")
	t.Setenv("CHATGATE_PROVIDER_TEMPERATURE", "0.2")
	t.Setenv("CHATGATE_LIMITS_RATE_REQUESTS", "5")
	t.Setenv("CHATGATE_LIMITS_RATE_WINDOW", "10s")
	t.Setenv("CHATGATE_SESSIONS_TTL", "not-a-duration")
	t.Setenv("CHATGATE_SECURITY_AUTH_ENABLED", "true")
	t.Setenv("CHATGATE_SECURITY_AUTH_KEYS", "k1, k2")
	t.Setenv("CHATGATE_SECURITY_SECRETS_DIR", "/run/secrets/chatgate")
	t.Setenv("CHATGATE_SERVER_TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() failed: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9999" {
		t.Errorf("expected env listen address, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Provider.APIKey != "env-key" {
		t.Errorf("expected env API key, got %q", cfg.Provider.APIKey)
	}
	if *cfg.Provider.Temperature != 0.2 {
		t.Errorf("expected temperature 0.2, got %v", *cfg.Provider.Temperature)
	}
	if cfg.Limits.Rate.Requests != 5 || cfg.Limits.Rate.Window != 10*time.Second {
		t.Errorf("expected 5 per 10s, got %d per %v", cfg.Limits.Rate.Requests, cfg.Limits.Rate.Window)
	}
	if cfg.Sessions.TTL != DefaultSessionTTL {
		t.Errorf("expected malformed override to be ignored, got %v", cfg.Sessions.TTL)
	}
	if !cfg.Security.Auth.Enabled || len(cfg.Security.Auth.Keys) != 2 || cfg.Security.Auth.Keys[1].Key != "k2" {
		t.Errorf("unexpected auth config: %+v", cfg.Security.Auth)
	}
	if len(cfg.Server.TrustedProxies) != 2 || cfg.Server.TrustedProxies[1] != "127.0.0.1" {
		t.Errorf("expected env trusted proxies, got %v", cfg.Server.TrustedProxies)
	}
	if cfg.Security.Secrets.Dir != "/run/secrets/chatgate" {
		t.Errorf("expected env secrets dir, got %q", cfg.Security.Secrets.Dir)
	}
	if cfg.Security.Secrets.EnvPrefix != DefaultSecretEnvPrefix || cfg.Security.Secrets.CacheTTL != DefaultSecretCacheTTL {
		t.Errorf("expected secrets defaults, got %+v", cfg.Security.Secrets)
	}
}

func TestLoadConfigWithEnvOverrides_NoFile(t *testing.T) {
	t.Setenv("CHATGATE_PROVIDER_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-vendor")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() failed: %v", err)
	}
	if cfg.Provider.APIKey != "sk-vendor" {
		t.Errorf("expected vendor API key fallback, got %q", cfg.Provider.APIKey)
	}
	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("expected default listen address, got %q", cfg.Server.ListenAddress)
	}
}

func TestLoadConfigWithEnvOverrides_AnthropicKey(t *testing.T) {
	t.Setenv("CHATGATE_PROVIDER_API_KEY", "")
	t.Setenv("CHATGATE_PROVIDER_TYPE", "anthropic")
	t.Setenv("CHATGATE_PROVIDER_MODEL", "claude-3-5-haiku-latest")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() failed: %v", err)
	}
	if cfg.Provider.APIKey != "sk-ant" {
		t.Errorf("expected anthropic key, got %q", cfg.Provider.APIKey)
	}
}

func TestLoadConfigWithEnvOverrides_MissingKey(t *testing.T) {
	t.Setenv("CHATGATE_PROVIDER_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	_, err := LoadConfigWithEnvOverrides("")
	if err == nil || !strings.Contains(err.Error(), "provider.api_key") {
		t.Errorf("expected provider.api_key error, got %v", err)
	}
}
