// Package handlers provides the HTTP endpoint handlers of chatgate.
//
// Chat handlers run turns through a TurnHandler (*gateway.Gateway):
//   - ChatHandler: POST /api/chat, one JSON reply
//   - StreamHandler: POST /api/chat/stream, Server-Sent Events
//   - ConversationHandler: DELETE /api/chat/{conversation_id}
//
// AnalysisHandler serves /api/analysis/document, /classify and /batch
// through an Analyzer (*analysis.Analyzer). ProviderHealthHandler reports
// the provider's passive health at /health/provider.
//
// # Request Flow
//
// Each handler follows the same pattern:
//
//  1. Parse and validate the body (proxy.ParseChatRequest, proxy.DecodeJSON)
//  2. Run the operation
//  3. Map any error with proxy.HandleError and write it
//  4. Write the JSON reply or the event stream
//
// Streaming replies commit to 200 only once the provider has accepted the
// call, so a refused call is still a JSON error with a meaningful status.
// A failure after that point is reported as an SSE error event.
package handlers
