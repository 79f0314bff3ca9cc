package analysis

import (
	"context"
	"strings"
)

// Sentiment is the overall tone of a text.
type Sentiment struct {
	// Sentiment is POSITIVE, NEGATIVE or NEUTRAL.
	Sentiment   string  `json:"sentiment"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// Entity is a named entity found in a document.
type Entity struct {
	Text string `json:"text"`

	// Type is PERSON, ORG, LOCATION or DATE.
	Type  string `json:"type"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// DocumentAnalysis is the result of Document.
type DocumentAnalysis struct {
	Summary    string    `json:"summary"`
	Sentiment  Sentiment `json:"sentiment"`
	Entities   []Entity  `json:"entities"`
	KeyPoints  []string  `json:"key_points"`
	TokensUsed int       `json:"tokens_used"`
}

const documentPrompt = `Analyze the following document and return JSON with exactly this structure:
{
  "summary": "2-3 sentence summary",
  "sentiment": {
    "sentiment": "POSITIVE|NEGATIVE|NEUTRAL",
    "confidence": 0.0-1.0,
    "explanation": "short explanation"
  },
  "entities": [
    {"text": "entity", "type": "PERSON|ORG|LOCATION|DATE", "start": 0, "end": 10}
  ],
  "key_points": ["Point 1", "Point 2", "Point 3"]
}

Document:
`

// Document summarizes text and extracts its sentiment, entities and key
// points.
func (a *Analyzer) Document(ctx context.Context, text string) (*DocumentAnalysis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ValidationError{Field: "text", Message: "must not be empty"}
	}

	resp, err := a.ask(ctx, documentPrompt+text+"\n\nJSON only, no markdown:")
	if err != nil {
		return nil, err
	}

	var out DocumentAnalysis
	err = decode(resp.Content, &out,
		field{path: "summary", kind: isString},
		field{path: "sentiment", kind: isObject},
		field{path: "sentiment.sentiment", kind: isString},
		field{path: "key_points", kind: isArray},
	)
	if err != nil {
		a.logger.WarnContext(ctx, "document analysis reply rejected", "error", err)
		return nil, err
	}

	if out.Entities == nil {
		out.Entities = []Entity{}
	}
	out.TokensUsed = resp.Usage.TotalTokens
	return &out, nil
}
