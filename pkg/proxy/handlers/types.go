package handlers

import (
	"context"

	"mercator-hq/chatgate/pkg/analysis"
	"mercator-hq/chatgate/pkg/gateway"
	"mercator-hq/chatgate/pkg/providers"
)

// TurnHandler runs chat turns. *gateway.Gateway implements it.
type TurnHandler interface {
	HandleTurn(ctx context.Context, req gateway.TurnRequest) (gateway.Result, error)
	ClearConversation(id string)
}

// Analyzer runs the structured analysis operations. *analysis.Analyzer
// implements it.
type Analyzer interface {
	Document(ctx context.Context, text string) (*analysis.DocumentAnalysis, error)
	Classify(ctx context.Context, text string, categories []string) (*analysis.Classification, error)
	Batch(ctx context.Context, texts []string, op analysis.Operation) (*analysis.BatchResult, error)
}

// ProviderStatus reports on the configured upstream.
type ProviderStatus interface {
	GetName() string
	GetType() string
	GetHealth() providers.ProviderHealth
}
