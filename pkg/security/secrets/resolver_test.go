package secrets

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"mercator-hq/chatgate/pkg/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mapSource serves secrets from a map and counts lookups.
type mapSource struct {
	name   string
	values map[string]string
	err    error

	mu    sync.Mutex
	calls int
}

func (s *mapSource) Lookup(_ context.Context, name string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.err != nil {
		return "", s.err
	}
	if v, ok := s.values[name]; ok {
		return v, nil
	}
	return "", ErrNotFound
}

func (s *mapSource) Name() string { return s.name }

func (s *mapSource) lookups() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestResolver_Lookup_Order(t *testing.T) {
	first := &mapSource{name: "first", values: map[string]string{"shared": "from-first"}}
	second := &mapSource{name: "second", values: map[string]string{"shared": "from-second", "only-second": "two"}}
	r := NewResolver([]Source{first, second}, WithLogger(quietLogger()))

	tests := []struct {
		name string
		want string
	}{
		{"shared", "from-first"},
		{"only-second", "two"},
	}
	for _, tt := range tests {
		got, err := r.Lookup(context.Background(), tt.name)
		if err != nil {
			t.Fatalf("Lookup(%q) failed: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("Lookup(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}

	if _, err := r.Lookup(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestResolver_Lookup_SourceFailureStops(t *testing.T) {
	broken := &mapSource{name: "broken", err: errors.New("permission denied")}
	fallback := &mapSource{name: "fallback", values: map[string]string{"k": "v"}}
	r := NewResolver([]Source{broken, fallback}, WithLogger(quietLogger()))

	_, err := r.Lookup(context.Background(), "k")
	if err == nil || !strings.Contains(err.Error(), "permission denied") {
		t.Fatalf("Expected source failure to be reported, got %v", err)
	}
	if fallback.lookups() != 0 {
		t.Error("Expected fallback not to be consulted after a real failure")
	}
}

func TestResolver_Cache(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	source := &mapSource{name: "map", values: map[string]string{"k": "v"}}
	r := NewResolver([]Source{source},
		WithCacheTTL(time.Minute),
		WithClock(func() time.Time { return now }),
		WithLogger(quietLogger()),
	)

	for i := 0; i < 3; i++ {
		if _, err := r.Lookup(context.Background(), "k"); err != nil {
			t.Fatal(err)
		}
	}
	if source.lookups() != 1 {
		t.Errorf("Expected 1 source lookup while cached, got %d", source.lookups())
	}

	now = now.Add(time.Minute)
	if _, err := r.Lookup(context.Background(), "k"); err != nil {
		t.Fatal(err)
	}
	if source.lookups() != 2 {
		t.Errorf("Expected expired entry to be refetched, got %d lookups", source.lookups())
	}

	r.Invalidate()
	if r.cache.len() != 0 {
		t.Errorf("Expected empty cache after Invalidate, got %d entries", r.cache.len())
	}
}

func TestResolver_Expand(t *testing.T) {
	source := &mapSource{name: "map", values: map[string]string{"user": "alice", "pass": "s3cret"}}
	r := NewResolver([]Source{source}, WithLogger(quietLogger()))

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "no reference", input: "sk-plain", want: "sk-plain"},
		{name: "whole value", input: "${secret:pass}", want: "s3cret"},
		{name: "embedded", input: "${secret:user}:${secret:pass}@db", want: "alice:s3cret@db"},
		{name: "missing", input: "${secret:nope}", wantErr: true},
		{name: "empty name", input: "${secret:}", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Expand(context.Background(), tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expand() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Expand() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolver_ResolveConfig(t *testing.T) {
	source := &mapSource{name: "map", values: map[string]string{
		"openai-api-key": "sk-upstream",
		"web-key":        "cg_web",
	}}
	r := NewResolver([]Source{source}, WithLogger(quietLogger()))

	cfg := &config.Config{}
	cfg.Provider.APIKey = "${secret:openai-api-key}"
	cfg.Security.Auth.Keys = []config.APIKeyConfig{
		{Key: "${secret:web-key}", Name: "web"},
		{Key: "literal", Name: "cli"},
	}

	if err := r.ResolveConfig(context.Background(), cfg); err != nil {
		t.Fatalf("ResolveConfig failed: %v", err)
	}
	if cfg.Provider.APIKey != "sk-upstream" {
		t.Errorf("Expected provider key to be resolved, got %q", cfg.Provider.APIKey)
	}
	if cfg.Security.Auth.Keys[0].Key != "cg_web" || cfg.Security.Auth.Keys[1].Key != "literal" {
		t.Errorf("Unexpected client keys: %+v", cfg.Security.Auth.Keys)
	}

	cfg.Security.Auth.Keys = []config.APIKeyConfig{{Key: "${secret:gone}"}}
	err := r.ResolveConfig(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "security.auth.keys[0].key") {
		t.Errorf("Expected error naming the field, got %v", err)
	}
}

func TestNewFromConfig(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, "from-dir", "dir-value", 0o400)
	t.Setenv("TEST_SECRET_FROM_ENV", "env-value")

	r, source, err := NewFromConfig(&config.SecretsConfig{
		EnvPrefix: "TEST_SECRET_",
		Dir:       dir,
		CacheTTL:  time.Minute,
	}, quietLogger())
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	if source == nil {
		t.Fatal("Expected a directory source")
	}

	for name, want := range map[string]string{"from-env": "env-value", "from-dir": "dir-value"} {
		got, err := r.Lookup(context.Background(), name)
		if err != nil {
			t.Fatalf("Lookup(%q) failed: %v", name, err)
		}
		if got != want {
			t.Errorf("Lookup(%q) = %q, want %q", name, got, want)
		}
	}

	if _, source, err := NewFromConfig(&config.SecretsConfig{EnvPrefix: "X_"}, nil); err != nil || source != nil {
		t.Errorf("Expected env-only resolver, got source=%v err=%v", source, err)
	}
}

func TestRedact(t *testing.T) {
	if got := redact("abc"); got != "***" {
		t.Errorf("redact(short) = %q", got)
	}
	if got := redact("openai-api-key"); got != "op...ey" {
		t.Errorf("redact() = %q, want op...ey", got)
	}
}
