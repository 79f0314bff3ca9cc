package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"mercator-hq/chatgate/pkg/gateway"
	"mercator-hq/chatgate/pkg/proxy"
	"mercator-hq/chatgate/pkg/proxy/types"
)

// ConversationIDPathValue is the path wildcard naming the conversation in
// DELETE /api/chat/{conversation_id}.
const ConversationIDPathValue = "conversation_id"

// base holds what every chat handler needs.
type base struct {
	turns  TurnHandler
	limits proxy.Limits
	logger *slog.Logger
	now    func() time.Time
}

func newBase(turns TurnHandler, limits proxy.Limits, logger *slog.Logger) base {
	if logger == nil {
		logger = slog.Default()
	}
	return base{turns: turns, limits: limits, logger: logger, now: time.Now}
}

// toTurnRequest converts a parsed body into a gateway turn.
func toTurnRequest(req *types.ChatRequest, stream bool) gateway.TurnRequest {
	turn := gateway.TurnRequest{
		ConversationID: req.ConversationID,
		Message:        req.Message,
		SystemPrompt:   req.SystemPrompt,
		Stream:         stream,
		Options: gateway.Options{
			Temperature: req.Temperature,
		},
	}
	if req.MaxTokens != nil {
		turn.Options.MaxTokens = *req.MaxTokens
	}
	return turn
}

// writeError writes err as a JSON error response. Nothing is written once
// the client has gone away.
func (b *base) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		b.logger.DebugContext(ctx, "client disconnected", "error", err)
		return
	}

	errResp := proxy.HandleError(err)
	if err := proxy.WriteErrorResponse(w, errResp); err != nil {
		b.logger.ErrorContext(ctx, "failed to write error response", "error", err)
	}
}

// ChatHandler serves POST /api/chat.
type ChatHandler struct {
	base
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(turns TurnHandler, limits proxy.Limits, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{base: newBase(turns, limits, logger)}
}

// ServeHTTP implements http.Handler.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	chatReq, err := proxy.ParseChatRequest(r, h.limits)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to parse request", "error", err)
		h.writeError(ctx, w, err)
		return
	}

	h.logger.DebugContext(ctx, "processing chat request",
		"conversation_id", chatReq.ConversationID,
		"message_chars", len(chatReq.Message),
	)

	result, err := h.turns.HandleTurn(ctx, toTurnRequest(chatReq, false))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	completed, ok := result.(*gateway.Completed)
	if !ok {
		h.writeError(ctx, w, fmt.Errorf("unexpected turn result %T", result))
		return
	}

	h.logger.InfoContext(ctx, "chat request completed",
		"conversation_id", completed.ConversationID,
		"total_tokens", completed.TokensUsed,
		"total_latency_ms", time.Since(startTime).Milliseconds(),
	)

	if err := proxy.WriteJSONResponse(w, http.StatusOK, proxy.FormatChatResponse(completed, h.now())); err != nil {
		h.logger.ErrorContext(ctx, "failed to write response", "error", err)
	}
}

// StreamHandler serves POST /api/chat/stream as Server-Sent Events.
//
// Each fragment is sent as `data: {"content": "..."}`. A stream that
// finishes normally ends with `data: [DONE]`; one that fails ends with
// `data: {"error": {...}}` and no [DONE]. Errors raised before the first
// fragment, such as validation failures, the provider refusing the call or
// the provider stream failing immediately, are plain JSON error responses.
type StreamHandler struct {
	base
}

// NewStreamHandler creates a new streaming handler.
func NewStreamHandler(turns TurnHandler, limits proxy.Limits, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{base: newBase(turns, limits, logger)}
}

// ServeHTTP implements http.Handler.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	chatReq, err := proxy.ParseChatRequest(r, h.limits)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to parse request", "error", err)
		h.writeError(ctx, w, err)
		return
	}

	result, err := h.turns.HandleTurn(ctx, toTurnRequest(chatReq, true))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	stream, ok := result.(*gateway.Stream)
	if !ok {
		h.writeError(ctx, w, fmt.Errorf("unexpected turn result %T", result))
		return
	}

	// Headers wait for the first fragment so that a stream failing before
	// it can still be answered with a JSON error and a real status.
	started := false
	start := func() {
		started = true
		w.Header().Set(proxy.ConversationIDHeader, stream.ConversationID())
		proxy.SetSSEHeaders(w)
		w.WriteHeader(http.StatusOK)
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
	}

	sent := 0
	for fragment := range stream.Fragments() {
		if !started {
			start()
		}
		if err := proxy.WriteSSEContent(w, fragment.Text); err != nil {
			// Returning cancels the request context, which stops the stream.
			h.logger.WarnContext(ctx, "failed to write SSE fragment",
				"fragments_sent", sent,
				"error", err,
			)
			return
		}
		sent++
	}

	if err := stream.Err(); err != nil {
		if ctx.Err() != nil {
			h.logger.WarnContext(ctx, "client disconnected during streaming",
				"fragments_sent", sent,
			)
			return
		}
		if !started {
			h.writeError(ctx, w, err)
			return
		}
		if err := proxy.WriteSSEError(w, proxy.HandleError(err)); err != nil {
			h.logger.ErrorContext(ctx, "failed to write SSE error", "error", err)
		}
		return
	}

	if !started {
		start()
	}
	if err := proxy.WriteSSEDone(w); err != nil {
		h.logger.ErrorContext(ctx, "failed to write SSE done marker", "error", err)
		return
	}

	h.logger.InfoContext(ctx, "chat stream request completed",
		"conversation_id", stream.ConversationID(),
		"fragments_sent", sent,
		"total_tokens", stream.Usage().TotalTokens,
		"total_latency_ms", time.Since(startTime).Milliseconds(),
	)
}

// ConversationHandler serves DELETE /api/chat/{conversation_id}.
type ConversationHandler struct {
	base
}

// NewConversationHandler creates a handler that clears conversations.
func NewConversationHandler(turns TurnHandler, logger *slog.Logger) *ConversationHandler {
	return &ConversationHandler{base: newBase(turns, proxy.Limits{}, logger)}
}

// ServeHTTP implements http.Handler. Clearing an unknown conversation
// succeeds.
func (h *ConversationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue(ConversationIDPathValue)
	if id == "" {
		h.writeError(r.Context(), w, &proxy.RequestError{
			Message: "conversation_id is required",
			Code:    types.CodeMissingField,
			Param:   ConversationIDPathValue,
		})
		return
	}

	h.turns.ClearConversation(id)
	h.logger.InfoContext(r.Context(), "conversation cleared", "conversation_id", id)
	w.WriteHeader(http.StatusNoContent)
}
