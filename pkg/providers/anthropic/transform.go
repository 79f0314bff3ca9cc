package anthropic

import (
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"mercator-hq/chatgate/pkg/providers"
)

// DefaultMaxTokens is sent when the request leaves MaxTokens at zero; the
// Messages API requires an explicit value.
const DefaultMaxTokens = 1024

// buildParams converts a provider-agnostic request. System messages are
// lifted into the top-level system prompt because the Messages API only
// accepts user and assistant turns.
func buildParams(req *providers.CompletionRequest) sdk.MessageNewParams {
	var system []string
	messages := make([]sdk.MessageParam, 0, len(req.Messages))

	for _, m := range req.Messages {
		switch m.Role {
		case providers.RoleSystem:
			system = append(system, m.Content)
		case providers.RoleAssistant:
			messages = append(messages, sdk.NewAssistantMessage(sdk.NewTextBlock(m.Content)))
		default:
			messages = append(messages, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		}
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	params := sdk.MessageNewParams{
		Model:       sdk.Model(req.Model),
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: param.NewOpt(clampTemperature(req.Temperature)),
	}
	if len(system) > 0 {
		params.System = []sdk.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}
	return params
}

// clampTemperature maps the OpenAI range [0, 2] onto Anthropic's [0, 1].
func clampTemperature(t float64) float64 {
	if t > 1 {
		return 1
	}
	if t < 0 {
		return 0
	}
	return t
}

func transformResponse(msg *sdk.Message) *providers.CompletionResponse {
	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	input := int(msg.Usage.InputTokens)
	output := int(msg.Usage.OutputTokens)
	return &providers.CompletionResponse{
		ID:           msg.ID,
		Model:        string(msg.Model),
		Content:      text.String(),
		FinishReason: normalizeStopReason(msg.StopReason),
		Usage: providers.TokenUsage{
			PromptTokens:     input,
			CompletionTokens: output,
			TotalTokens:      input + output,
		},
	}
}

func normalizeStopReason(reason sdk.StopReason) string {
	switch reason {
	case sdk.StopReasonEndTurn, sdk.StopReasonStopSequence:
		return providers.FinishReasonStop
	case sdk.StopReasonMaxTokens:
		return providers.FinishReasonLength
	default:
		return string(reason)
	}
}
