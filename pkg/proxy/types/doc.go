// Package types defines the JSON request and response bodies of the chatgate
// HTTP API.
//
// Request types:
//   - ChatRequest: body of /api/chat and /api/chat/stream
//   - DocumentRequest, ClassifyRequest, BatchRequest: /api/analysis/*
//
// Response types:
//   - ChatResponse: non-streaming chat reply
//   - ContentEvent: one streamed fragment, sent as `data: {"content": "..."}`
//   - ErrorEvent: the event that ends a failed stream
//
// Error types:
//   - ErrorResponse: every non-2xx JSON body, {"error": {message, type, param, code}}
//
// Analysis replies are encoded straight from the analysis package's result
// types, which carry their own JSON tags.
package types
