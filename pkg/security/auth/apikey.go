package auth

import (
	"sort"
	"sync"
)

// APIKeyValidator validates API keys against a configured set of keys. The
// set can be swapped at runtime with Replace.
type APIKeyValidator struct {
	mu   sync.RWMutex
	keys map[string]*APIKeyInfo
}

// NewAPIKeyValidator creates a new API key validator with the given keys
func NewAPIKeyValidator(keys []*APIKeyInfo) *APIKeyValidator {
	return &APIKeyValidator{keys: index(keys)}
}

func index(keys []*APIKeyInfo) map[string]*APIKeyInfo {
	keyMap := make(map[string]*APIKeyInfo, len(keys))
	for _, key := range keys {
		if key == nil || key.Key == "" {
			continue
		}
		keyMap[key.Key] = key
	}
	return keyMap
}

// Validate checks if the given API key is valid and returns its info.
// Errors match ErrInvalidKey.
func (v *APIKeyValidator) Validate(key string) (*APIKeyInfo, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	info, ok := v.keys[key]
	if !ok {
		return nil, ErrInvalidKey
	}

	if !info.Enabled {
		return nil, ErrKeyDisabled
	}

	return info, nil
}

// List returns all configured API keys, ordered by name.
func (v *APIKeyValidator) List() []*APIKeyInfo {
	v.mu.RLock()
	defer v.mu.RUnlock()

	keys := make([]*APIKeyInfo, 0, len(v.keys))
	for _, key := range v.keys {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Name < keys[j].Name })
	return keys
}

// Replace swaps the whole key set atomically. Requests in flight see either
// the old or the new set, never a mix.
func (v *APIKeyValidator) Replace(keys []*APIKeyInfo) {
	next := index(keys)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.keys = next
}

// Len returns the number of configured keys, disabled ones included.
func (v *APIKeyValidator) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.keys)
}
