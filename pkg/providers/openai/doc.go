// Package openai implements the OpenAI chat completions adapter.
//
// It also serves any server that implements the same API (vLLM, Ollama,
// LocalAI) through NewCompatibleProvider, which does not require an API key.
//
// # Basic Usage
//
//	provider, err := openai.NewProvider(providers.ProviderConfig{
//	    Name:    "openai",
//	    Type:    providers.TypeOpenAI,
//	    APIKey:  os.Getenv("OPENAI_API_KEY"),
//	    Timeout: 60 * time.Second,
//	})
//	if err != nil {
//	    return err
//	}
//	defer provider.Close()
//
// # Streaming
//
// Streaming requests set stream_options.include_usage so the final chunk
// carries token usage. A stream that ends without the [DONE] sentinel is
// reported as a *providers.StreamError.
package openai
