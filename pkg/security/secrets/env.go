package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvSource reads secrets from environment variables.
//
// The secret name is upper-cased, hyphens and dots become underscores and
// the prefix is prepended, so with prefix "CHATGATE_SECRET_" the secret
// "openai-api-key" is read from CHATGATE_SECRET_OPENAI_API_KEY.
type EnvSource struct {
	Prefix string

	// lookup is os.LookupEnv outside tests.
	lookup func(string) (string, bool)
}

// NewEnvSource creates an environment source with the given prefix.
func NewEnvSource(prefix string) *EnvSource {
	return &EnvSource{Prefix: prefix, lookup: os.LookupEnv}
}

// Lookup returns the variable's value. Unset and empty variables are
// reported as ErrNotFound.
func (s *EnvSource) Lookup(_ context.Context, name string) (string, error) {
	variable := s.Variable(name)
	value, ok := s.lookup(variable)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: environment variable %s is not set", ErrNotFound, variable)
	}
	return value, nil
}

// Name returns "env".
func (s *EnvSource) Name() string {
	return "env"
}

// Variable returns the environment variable that holds the named secret.
func (s *EnvSource) Variable(name string) string {
	upper := strings.ToUpper(name)
	upper = strings.NewReplacer("-", "_", ".", "_").Replace(upper)
	return s.Prefix + upper
}
