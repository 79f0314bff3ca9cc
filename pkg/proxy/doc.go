// Package proxy holds the HTTP edge of chatgate: request parsing and
// validation, error mapping and JSON/SSE response writing.
//
// Handlers live in the handlers subpackage, middleware in middleware and
// the wire types in types. The server package assembles them.
//
// # Requests
//
// ParseChatRequest decodes a chat turn with a bounded body read and checks
// it before any state is touched:
//
//	{"message": "Hello", "conversation_id": "…", "temperature": 0.7}
//
// message is required and limited in characters, not bytes. temperature
// must lie in [0, 2] and max_tokens must be positive when present.
//
// # Errors
//
// HandleError maps errors from the gateway, rate limiter, authentication
// and validation to a status and body:
//
//	{
//	  "error": {
//	    "message": "Rate limit exceeded: 20 requests per window",
//	    "type": "rate_limit_exceeded",
//	    "code": "rate_limited"
//	  }
//	}
//
// Provider error text is logged but never sent to clients.
//
// # Streaming
//
// Streamed replies use Server-Sent Events. Each fragment is one event,
// followed by a terminal marker or an error event:
//
//	data: {"content":"Hel"}
//
//	data: {"content":"lo"}
//
//	data: [DONE]
package proxy
