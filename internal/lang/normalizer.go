// Package lang detects the language of incoming text and translates between
// it and the pivot language (English) using the generation collaborator.
// Everything here is best-effort: a detection or translation failure degrades
// to passing text through unchanged, it never blocks a turn.
package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/wagebud/wagebud/internal/extract"
	"github.com/wagebud/wagebud/internal/ollama"
)

// Pivot is the ISO-639 tag of the language all extraction runs in.
const Pivot = "en"

// Chatter is the slice of the Ollama client this package needs.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []ollama.Message, schema *ollama.Schema) (string, error)
}

// Normalizer detects the language of a message and produces its
// pivot-language rendering.
type Normalizer struct {
	client Chatter
	model  string
}

// NewNormalizer creates a Normalizer using the given client and model name.
func NewNormalizer(client Chatter, model string) *Normalizer {
	return &Normalizer{client: client, model: model}
}

const detectPrompt = `Detect the language of the user's message and translate it to English. Respond with ONLY a JSON object: {"language": "<ISO-639-1 code>", "translated": "<English translation>"}. If the message is already English, set "language" to "en" and return the message unchanged in "translated".`

type detection struct {
	Language   string `json:"language"`
	Translated string `json:"translated"`
}

// Normalize returns the pivot-language version of text and the detected
// language tag. On any failure it assumes the text is already pivot-language
// and returns it unchanged with tag "en".
func (n *Normalizer) Normalize(ctx context.Context, text string) (string, string) {
	raw, err := n.client.Chat(ctx, n.model, []ollama.Message{
		{Role: "system", Content: detectPrompt},
		{Role: "user", Content: text},
	}, detectionSchema())
	if err != nil {
		slog.Warn("language detection chat failed, assuming pivot language", "error", err)
		return text, Pivot
	}

	d, err := parseDetection(raw)
	if err != nil {
		slog.Warn("language detection output unparseable, assuming pivot language", "error", err)
		return text, Pivot
	}

	tag := strings.ToLower(strings.TrimSpace(d.Language))
	if tag == "" {
		tag = Pivot
	}
	translated := strings.TrimSpace(d.Translated)
	if translated == "" {
		return text, Pivot
	}
	return translated, tag
}

// parseDetection recovers the {language, translated} object from model
// output that may be fenced or surrounded by noise.
func parseDetection(raw string) (detection, error) {
	span, ok := extract.LocateJSON(raw)
	if !ok {
		return detection{}, fmt.Errorf("no JSON object in detection output")
	}

	var d detection
	if err := json.Unmarshal([]byte(span), &d); err != nil {
		fixed, repairErr := jsonrepair.JSONRepair(span)
		if repairErr != nil {
			return detection{}, err
		}
		if err := json.Unmarshal([]byte(fixed), &d); err != nil {
			return detection{}, err
		}
	}
	return d, nil
}

func detectionSchema() *ollama.Schema {
	return &ollama.Schema{
		Type: "object",
		Properties: map[string]ollama.SchemaProperty{
			"language":   {Type: "string", Description: "ISO-639-1 code of the input language"},
			"translated": {Type: "string", Description: "English translation of the input"},
		},
		Required: []string{"language", "translated"},
	}
}
