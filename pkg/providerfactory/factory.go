// Package providerfactory builds a providers.Provider from configuration.
package providerfactory

import (
	"fmt"
	"log/slog"

	"mercator-hq/chatgate/pkg/providers"
	"mercator-hq/chatgate/pkg/providers/anthropic"
	"mercator-hq/chatgate/pkg/providers/openai"
)

// NewProvider creates a provider instance based on the configuration.
//
// Supported provider types:
//   - "openai": OpenAI API
//   - "anthropic": Anthropic Messages API
//   - "generic": OpenAI-compatible APIs (Ollama, LM Studio, vLLM, etc.)
//
// When config.Type is empty it is inferred from the provider name.
//
// Example:
//
//	provider, err := providerfactory.NewProvider(providers.ProviderConfig{
//	    Name:   "openai",
//	    Type:   "openai",
//	    APIKey: "sk-...",
//	})
//	if err != nil {
//	    return err
//	}
//	defer provider.Close()
func NewProvider(config providers.ProviderConfig) (providers.Provider, error) {
	providerType := config.Type
	if providerType == "" {
		providerType = inferProviderType(config.Name)
		config.Type = providerType
	}
	if config.Name == "" {
		config.Name = providerType
	}

	slog.Debug("creating provider",
		"name", config.Name,
		"type", providerType,
		"base_url", config.BaseURL,
	)

	var provider providers.Provider
	var err error

	switch providerType {
	case providers.TypeOpenAI:
		provider, err = openai.NewProvider(config)

	case providers.TypeAnthropic:
		provider, err = anthropic.NewProvider(config)

	case providers.TypeGeneric:
		provider, err = openai.NewCompatibleProvider(config)

	default:
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "type",
			Message:  fmt.Sprintf("unsupported provider type: %q (supported: openai, anthropic, generic)", providerType),
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create provider %q: %w", config.Name, err)
	}

	slog.Info("provider created",
		"name", config.Name,
		"type", providerType,
	)

	return provider, nil
}

func inferProviderType(name string) string {
	switch name {
	case providers.TypeOpenAI, "":
		return providers.TypeOpenAI
	case providers.TypeAnthropic:
		return providers.TypeAnthropic
	default:
		return providers.TypeGeneric
	}
}
