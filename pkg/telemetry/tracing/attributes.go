package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys use the "chatgate.*" namespace.
const (
	AttrConversationID = "chatgate.conversation_id"
	AttrMode           = "chatgate.mode"
	AttrNewSession     = "chatgate.new_conversation"
	AttrHistoryTurns   = "chatgate.history_turns"
	AttrFragments      = "chatgate.fragments"

	AttrProvider = "chatgate.provider"
	AttrModel    = "chatgate.model"

	AttrTokensPrompt     = "chatgate.tokens.prompt"
	AttrTokensCompletion = "chatgate.tokens.completion"
	AttrTokensTotal      = "chatgate.tokens.total"
)

// SetTurnAttributes sets conversation attributes on a span.
func SetTurnAttributes(span trace.Span, conversationID, mode string, newConversation bool, historyTurns int) {
	span.SetAttributes(
		attribute.String(AttrConversationID, conversationID),
		attribute.String(AttrMode, mode),
		attribute.Bool(AttrNewSession, newConversation),
		attribute.Int(AttrHistoryTurns, historyTurns),
	)
}

// SetProviderAttributes sets provider-related attributes on a span.
func SetProviderAttributes(span trace.Span, provider, model string) {
	span.SetAttributes(
		attribute.String(AttrProvider, provider),
		attribute.String(AttrModel, model),
	)
}

// SetTokenAttributes sets token usage on a span.
func SetTokenAttributes(span trace.Span, promptTokens, completionTokens, totalTokens int) {
	span.SetAttributes(
		attribute.Int(AttrTokensPrompt, promptTokens),
		attribute.Int(AttrTokensCompletion, completionTokens),
		attribute.Int(AttrTokensTotal, totalTokens),
	)
}
