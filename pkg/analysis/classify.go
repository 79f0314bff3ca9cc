package analysis

import (
	"context"
	"fmt"
	"strings"
)

// Classification is the result of Classify.
type Classification struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Classify assigns text to one of categories, of which there must be
// between MinCategories and MaxCategories.
func (a *Analyzer) Classify(ctx context.Context, text string, categories []string) (*Classification, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ValidationError{Field: "text", Message: "must not be empty"}
	}
	if n := len(categories); n < MinCategories || n > MaxCategories {
		return nil, &ValidationError{
			Field:   "categories",
			Message: fmt.Sprintf("need between %d and %d categories, got %d", MinCategories, MaxCategories, n),
		}
	}

	prompt := fmt.Sprintf(`Classify the text into ONE of the following categories: %s
Text: %q
Reply with JSON:
{"category": "CATEGORY", "confidence": 0.0-1.0, "reasoning": "explanation"}
JSON only:`, strings.Join(categories, ", "), text)

	resp, err := a.ask(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var out Classification
	err = decode(resp.Content, &out,
		field{path: "category", kind: isString},
		field{path: "confidence", kind: isNumber},
	)
	if err == nil && strings.TrimSpace(out.Category) == "" {
		err = malformed(resp.Content, "empty category")
	}
	if err != nil {
		a.logger.WarnContext(ctx, "classification reply rejected", "error", err)
		return nil, err
	}
	return &out, nil
}
