package auth

import (
	"errors"
	"fmt"

	"mercator-hq/chatgate/pkg/config"
)

var (
	// ErrMissingKey is returned when a request carries no API key.
	ErrMissingKey = errors.New("missing API key")

	// ErrInvalidKey is returned when the presented key is not accepted.
	ErrInvalidKey = errors.New("invalid API key")

	// ErrKeyDisabled is a configured key that has been switched off. It
	// matches ErrInvalidKey.
	ErrKeyDisabled = fmt.Errorf("%w: key disabled", ErrInvalidKey)
)

// APIKeyInfo represents an API key with metadata
type APIKeyInfo struct {
	Key     string
	Name    string
	Enabled bool
}

// APIKeyStore stores and validates API keys
type APIKeyStore interface {
	Validate(key string) (*APIKeyInfo, error)
	List() []*APIKeyInfo
}

// KeysFromConfig converts the configured allow-list. Keys without a name
// are named after their position.
func KeysFromConfig(keys []config.APIKeyConfig) []*APIKeyInfo {
	out := make([]*APIKeyInfo, 0, len(keys))
	for i, k := range keys {
		name := k.Name
		if name == "" {
			name = fmt.Sprintf("key-%d", i)
		}
		out = append(out, &APIKeyInfo{Key: k.Key, Name: name, Enabled: !k.Disabled})
	}
	return out
}
