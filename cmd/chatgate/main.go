// Chatgate is an HTTP gateway for conversational LLM traffic.
//
// It keeps per-conversation history in memory, limits clients with a
// sliding window and relays completions from one upstream provider, either
// whole or as Server-Sent Events.
//
// Usage:
//
//	# Start the gateway
//	chatgate run --config config.yaml
//
//	# Reload API keys when the file changes
//	chatgate run --config config.yaml --watch
//
//	# Check a configuration file
//	chatgate validate --config config.yaml
//
//	# Generate a client API key
//	chatgate keys generate --name web
//
//	# Show version information
//	chatgate version
package main

func main() {
	Execute()
}
