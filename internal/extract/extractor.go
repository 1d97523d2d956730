package extract

import (
	"context"
	"fmt"

	"github.com/wagebud/wagebud/internal/ollama"
	"github.com/wagebud/wagebud/internal/profile"
)

// Chatter is the slice of the Ollama client the extractor needs.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []ollama.Message, schema *ollama.Schema) (string, error)
}

// Extractor asks the generation collaborator to pull profile fields out of a
// pivot-language utterance. The current partial profile is included in the
// prompt so the model updates rather than starts over; the merge is still
// redone defensively downstream because the model's output is untrusted.
type Extractor struct {
	client Chatter
	model  string
}

// NewExtractor creates an Extractor using the given client and model name.
func NewExtractor(client Chatter, model string) *Extractor {
	return &Extractor{client: client, model: model}
}

// Extract returns the raw candidate text produced by the model for the given
// utterance and current profile. The caller validates it with Validate.
func (e *Extractor) Extract(ctx context.Context, text string, current profile.Profile) (string, error) {
	messages, err := BuildPrompt(text, current)
	if err != nil {
		return "", fmt.Errorf("building extraction prompt: %w", err)
	}

	raw, err := e.client.Chat(ctx, e.model, messages, extractionSchema())
	if err != nil {
		return "", fmt.Errorf("extraction chat: %w", err)
	}
	return raw, nil
}

// extractionSchema nudges the model toward the expected shape. Output is
// still validated; the schema is a hint, not a guarantee.
func extractionSchema() *ollama.Schema {
	props := map[string]ollama.SchemaProperty{
		"age":              {Type: "string", Description: "Age bucket, e.g. 25-34"},
		"years_experience": {Type: "string", Description: "Experience bucket, e.g. 3-5"},
		"education":        {Type: "string", Description: "Highest education level"},
		"gender":           {Type: "string", Description: "Male, Female or Other"},
		"country":          {Type: "string", Description: "Country name in English"},
		"industry":         {Type: "string", Description: "Industry sector"},
		"missingFields":    {Type: "array", Description: "Field names still unknown after this message"},
		"nextQuestion":     {Type: "string", Description: "One short question asking for a missing field"},
	}
	return &ollama.Schema{Type: "object", Properties: props}
}
