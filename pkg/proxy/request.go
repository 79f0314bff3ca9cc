package proxy

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"unicode/utf8"

	"mercator-hq/chatgate/pkg/proxy/types"
)

const (
	// DefaultMaxBodyBytes is the request body limit used when none is
	// configured (1MB).
	DefaultMaxBodyBytes = 1 << 20

	// DefaultMaxMessageLength is the chat message limit in characters used
	// when none is configured.
	DefaultMaxMessageLength = 10000

	// MaxTemperature is the largest accepted sampling temperature.
	MaxTemperature = 2.0

	// RequestIDHeader is the HTTP header for request ID propagation.
	RequestIDHeader = "X-Request-ID"

	// ConversationIDHeader carries the conversation id of a streamed reply,
	// which cannot go in the body.
	ConversationIDHeader = "X-Conversation-ID"

	// ForwardedForHeader lists the client and proxy addresses, client first.
	ForwardedForHeader = "X-Forwarded-For"
)

// Limits bounds what the request parsers accept.
type Limits struct {
	// MaxBodyBytes is the largest accepted body. Zero means
	// DefaultMaxBodyBytes.
	MaxBodyBytes int64

	// MaxMessageLength is the largest accepted chat message in characters.
	// Zero means DefaultMaxMessageLength.
	MaxMessageLength int
}

func (l Limits) maxBodyBytes() int64 {
	if l.MaxBodyBytes <= 0 {
		return DefaultMaxBodyBytes
	}
	return l.MaxBodyBytes
}

func (l Limits) maxMessageLength() int {
	if l.MaxMessageLength <= 0 {
		return DefaultMaxMessageLength
	}
	return l.MaxMessageLength
}

// DecodeJSON reads at most limits.MaxBodyBytes of the request body and
// unmarshals it into v. Oversized, empty and malformed bodies come back as a
// *RequestError.
//
// Example usage:
//
//	var body types.DocumentRequest
//	if err := DecodeJSON(r, limits, &body); err != nil {
//	    WriteErrorResponse(w, HandleError(err))
//	    return
//	}
func DecodeJSON(r *http.Request, limits Limits, v any) error {
	maxBytes := limits.maxBodyBytes()

	// Read one byte past the limit so an exactly-full body is accepted.
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}

	if int64(len(body)) > maxBytes {
		return &RequestError{
			Message: fmt.Sprintf("request body exceeds maximum size of %d bytes", maxBytes),
			Code:    types.CodeRequestTooLarge,
			Param:   "body",
		}
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return &RequestError{
			Message: "request body is empty",
			Code:    types.CodeInvalidJSON,
			Param:   "body",
		}
	}

	if err := json.Unmarshal(body, v); err != nil {
		return &RequestError{
			Message: fmt.Sprintf("invalid JSON: %v", err),
			Code:    types.CodeInvalidJSON,
			Param:   "body",
		}
	}
	return nil
}

// ParseChatRequest parses and validates the body of a chat request.
//
// Validation:
//   - message is required and at most limits.MaxMessageLength characters
//   - temperature, when present, is within [0, 2]
//   - max_tokens, when present, is positive
func ParseChatRequest(r *http.Request, limits Limits) (*types.ChatRequest, error) {
	var req types.ChatRequest
	if err := DecodeJSON(r, limits, &req); err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Message) == "" {
		return nil, &RequestError{
			Message: "message is required",
			Code:    types.CodeMissingField,
			Param:   "message",
		}
	}
	if n, maxLen := utf8.RuneCountInString(req.Message), limits.maxMessageLength(); n > maxLen {
		return nil, &RequestError{
			Message: fmt.Sprintf("message is %d characters, maximum is %d", n, maxLen),
			Code:    types.CodeInvalidValue,
			Param:   "message",
		}
	}

	if req.Temperature != nil && (*req.Temperature < 0 || *req.Temperature > MaxTemperature) {
		return nil, &RequestError{
			Message: fmt.Sprintf("temperature must be between 0 and %g", MaxTemperature),
			Code:    types.CodeInvalidValue,
			Param:   "temperature",
		}
	}

	if req.MaxTokens != nil && *req.MaxTokens <= 0 {
		return nil, &RequestError{
			Message: "max_tokens must be positive",
			Code:    types.CodeInvalidValue,
			Param:   "max_tokens",
		}
	}

	return &req, nil
}

// ClientIP returns the address a request originated from. It is the host
// part of RemoteAddr unless that peer is one of trusted, in which case
// X-Forwarded-For is walked from the right and the first hop that is not a
// trusted proxy is returned. A nil trusted set ignores X-Forwarded-For.
func ClientIP(r *http.Request, trusted *TrustedProxies) string {
	peer := remoteHost(r.RemoteAddr)
	if !trusted.ContainsString(peer) {
		return peer
	}

	hops := forwardedHops(r.Header.Values(ForwardedForHeader))
	for i := len(hops) - 1; i >= 0; i-- {
		if !trusted.ContainsString(hops[i]) {
			return hops[i]
		}
	}
	if len(hops) > 0 {
		return hops[0]
	}
	return peer
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// forwardedHops flattens every X-Forwarded-For header into hops, client
// first.
func forwardedHops(values []string) []string {
	var hops []string
	for _, value := range values {
		for _, hop := range strings.Split(value, ",") {
			if hop = strings.TrimSpace(hop); hop != "" {
				hops = append(hops, hop)
			}
		}
	}
	return hops
}

// ExtractRequestID extracts the request ID from the X-Request-ID header.
// If the header is not present, it returns an empty string.
//
// This allows clients to provide their own request IDs for correlation.
// If not provided, the middleware will generate one.
func ExtractRequestID(r *http.Request) string {
	return r.Header.Get(RequestIDHeader)
}

// RequestError represents a request parsing or validation error.
type RequestError struct {
	Message string
	Code    string
	Param   string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return e.Message
}

// ToErrorResponse converts a RequestError to an error response.
func (e *RequestError) ToErrorResponse() *types.ErrorResponse {
	return types.NewInvalidRequestError(e.Message, e.Param, e.Code)
}
