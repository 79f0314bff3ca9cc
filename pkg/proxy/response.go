package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"mercator-hq/chatgate/pkg/gateway"
	"mercator-hq/chatgate/pkg/proxy/types"
)

// FormatChatResponse converts a completed turn into the /api/chat reply body.
//
// Example usage:
//
//	result, err := gw.HandleTurn(ctx, turn)
//	if err != nil {
//	    return err
//	}
//	resp := FormatChatResponse(result.(*gateway.Completed), time.Now())
func FormatChatResponse(c *gateway.Completed, createdAt time.Time) *types.ChatResponse {
	return &types.ChatResponse{
		Response:       c.Text,
		ConversationID: c.ConversationID,
		TokensUsed:     c.TokensUsed,
		Model:          c.Model,
		CreatedAt:      createdAt.UTC(),
	}
}

// WriteJSONResponse writes a JSON response to the HTTP response writer.
// It sets the appropriate content-type header and handles marshaling errors.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON response: %w", err)
	}

	return nil
}

// WriteErrorResponse writes an error response.
// It extracts the appropriate HTTP status code from the error type.
func WriteErrorResponse(w http.ResponseWriter, errResp *types.ErrorResponse) error {
	statusCode := errResp.Error.HTTPStatusCode()
	return WriteJSONResponse(w, statusCode, errResp)
}

// WriteSSEContent writes one streamed fragment in Server-Sent Events format:
//
//	data: {"content":"..."}
//
// Followed by two newlines (\n\n).
func WriteSSEContent(w http.ResponseWriter, content string) error {
	return writeSSEData(w, types.ContentEvent{Content: content})
}

// WriteSSEDone writes the final "[DONE]" marker for SSE streams.
// This signals to the client that the stream has completed.
func WriteSSEDone(w http.ResponseWriter) error {
	if _, err := fmt.Fprint(w, "data: [DONE]\n\n"); err != nil {
		return fmt.Errorf("failed to write SSE done marker: %w", err)
	}

	flush(w)
	return nil
}

// WriteSSEError writes an error in SSE format. A stream that ends with an
// error event gets no [DONE] marker.
func WriteSSEError(w http.ResponseWriter, errResp *types.ErrorResponse) error {
	return writeSSEData(w, types.ErrorEvent{Error: errResp.Error})
}

func writeSSEData(w http.ResponseWriter, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal SSE event: %w", err)
	}

	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("failed to write SSE event: %w", err)
	}

	// Flush immediately for real-time streaming
	flush(w)
	return nil
}

func flush(w http.ResponseWriter) {
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// SetSSEHeaders sets the appropriate headers for Server-Sent Events streaming.
func SetSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}
