package extract

import (
	"encoding/json"
	"fmt"

	"github.com/wagebud/wagebud/internal/ollama"
	"github.com/wagebud/wagebud/internal/profile"
)

const extractionSystemPrompt = `You are a profile extraction engine for a wage estimation service. From the user's message, extract any of the following fields. Your output must be ONLY a single valid JSON object. Do not include any other text, prose, or markdown.

Fields and allowed values:
- "age": one of "18-24", "25-34", "35-44", "45-54", "55-64", "65+" (bucket an exact age, e.g. 28 becomes "25-34")
- "years_experience": one of "0-2", "3-5", "6-10", "11-20", "20+"
- "education": one of "High School", "Bachelor's", "Master's", "PhD", "Other"
- "gender": one of "Male", "Female", "Other"
- "country": the country name in English
- "industry": one of "Technology", "Healthcare", "Finance", "Education", "Manufacturing", "Retail", "Other"

Rules:
- Set a field to null when the message and the known profile give no value for it.
- Never erase a value from the known profile; repeat it or improve it.
- "missingFields" lists the field names that are still null after this message.
- "nextQuestion" is one short, friendly question asking for a missing field, or null when nothing is missing.`

// BuildPrompt constructs the chat messages for one extraction call. The known
// profile is serialized into the prompt so the model merges instead of
// overwriting blindly.
func BuildPrompt(text string, current profile.Profile) ([]ollama.Message, error) {
	known, err := json.Marshal(current)
	if err != nil {
		return nil, err
	}

	return []ollama.Message{
		{Role: "system", Content: extractionSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Known profile:\n%s\n\nUser message:\n%s", known, text)},
	}, nil
}
