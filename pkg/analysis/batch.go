package analysis

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Operation selects what Batch does to each text.
type Operation string

const (
	OpSummarize Operation = "summarize"
	OpSentiment Operation = "sentiment"
)

// PreviewLength is how much of each input text a BatchItem echoes back.
const PreviewLength = 100

// BatchItem is the result for one input text.
type BatchItem struct {
	// Text is the input, cut to PreviewLength characters plus "...".
	Text   string `json:"text"`
	Result string `json:"result"`
	Tokens int    `json:"tokens"`
}

// BatchResult holds the items in input order.
type BatchResult struct {
	Results     []BatchItem `json:"results"`
	TotalTokens int         `json:"total_tokens"`
}

func (op Operation) prompt(text string) (string, error) {
	switch op {
	case OpSummarize:
		return "Summarize in one sentence: " + text, nil
	case OpSentiment:
		return "Sentiment (POSITIVE/NEGATIVE/NEUTRAL): " + text + "\nReply with just the word.", nil
	default:
		return "", &ValidationError{Field: "operation", Message: fmt.Sprintf("unknown operation %q", string(op))}
	}
}

// Batch applies op to every text concurrently. The first failure cancels
// the remaining calls and is returned.
func (a *Analyzer) Batch(ctx context.Context, texts []string, op Operation) (*BatchResult, error) {
	if n := len(texts); n < 1 || n > MaxBatchTexts {
		return nil, &ValidationError{
			Field:   "texts",
			Message: fmt.Sprintf("need between 1 and %d texts, got %d", MaxBatchTexts, n),
		}
	}
	if _, err := op.prompt(""); err != nil {
		return nil, err
	}

	items := make([]BatchItem, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, text := range texts {
		g.Go(func() error {
			prompt, _ := op.prompt(text)
			resp, err := a.ask(gctx, prompt)
			if err != nil {
				return fmt.Errorf("batch item %d: %w", i, err)
			}
			items[i] = BatchItem{
				Text:   preview(text),
				Result: resp.Content,
				Tokens: resp.Usage.TotalTokens,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &BatchResult{Results: items}
	for _, item := range items {
		out.TotalTokens += item.Tokens
	}
	a.logger.DebugContext(ctx, "batch analysis finished",
		"operation", string(op),
		"texts", len(texts),
		"total_tokens", out.TotalTokens,
	)
	return out, nil
}

// preview cuts text to PreviewLength characters.
func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= PreviewLength {
		return text
	}
	return string(runes[:PreviewLength]) + "..."
}
