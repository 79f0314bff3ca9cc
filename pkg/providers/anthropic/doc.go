// Package anthropic implements the Anthropic provider adapter on top of the
// official Go SDK (github.com/anthropics/anthropic-sdk-go).
//
// System messages in the request are joined into the top-level system prompt,
// since the Messages API only accepts alternating user and assistant turns.
// Temperatures above 1 are clamped to the API's maximum.
//
//	provider, err := anthropic.NewProvider(providers.ProviderConfig{
//	    Name:   "anthropic",
//	    Type:   providers.TypeAnthropic,
//	    APIKey: os.Getenv("ANTHROPIC_API_KEY"),
//	})
package anthropic
