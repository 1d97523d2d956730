// Package explain produces a short rationale for a successful prediction.
// It is an enhancement stage: every failure path degrades to a generic
// explanation instead of surfacing an error.
package explain

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/wagebud/wagebud/internal/ollama"
	"github.com/wagebud/wagebud/internal/profile"
)

// maxFactors bounds the keyFactors list in the final result.
const maxFactors = 3

// Chatter is the slice of the Ollama client this package needs.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []ollama.Message, schema *ollama.Schema) (string, error)
}

// Explainer asks the collaborator for a one-sentence explanation and ranked
// contributing factors for a predicted wage.
type Explainer struct {
	client Chatter
	model  string
}

// New creates an Explainer using the given client and model name.
func New(client Chatter, model string) *Explainer {
	return &Explainer{client: client, model: model}
}

const formatInstruction = `You explain wage estimates. Answer in EXACTLY this format, nothing else:

EXPLANATION: <one or two sentences explaining the estimate>
FACTORS:
1. <most influential profile factor>
2. <second factor>
3. <third factor>`

var (
	explanationRe   = regexp.MustCompile(`(?m)^\s*EXPLANATION:\s*(.+)$`)
	factorsHeaderRe = regexp.MustCompile(`(?m)^\s*FACTORS:`)
	factorRe        = regexp.MustCompile(`(?m)^\s*\d+[.)]\s*(.+)$`)
)

// fallbackFactors is substituted whenever fewer than three factors can be
// parsed, so the success contract (three non-empty factors) always holds.
var fallbackFactors = []string{
	"Country and local labor market",
	"Years of professional experience",
	"Education level",
}

// Explain returns an explanation sentence and up to three ranked factors for
// the wage predicted from the given profile. It never fails: malformed or
// missing collaborator output degrades to a generic explanation.
func (e *Explainer) Explain(ctx context.Context, p profile.Profile, wage float64) (string, []string) {
	serialized, err := json.Marshal(p)
	if err != nil {
		// Profile is plain strings; this cannot realistically fail.
		serialized = []byte("{}")
	}

	query := fmt.Sprintf("Profile: %s\nPredicted yearly wage: %.0f\n\nWhy this estimate?", serialized, wage)
	raw, err := e.client.Chat(ctx, e.model, []ollama.Message{
		{Role: "system", Content: formatInstruction},
		{Role: "user", Content: query},
	}, nil)
	if err != nil {
		slog.Warn("explanation chat failed, using fallback", "error", err)
		return genericExplanation(wage), fallbackFactors
	}

	explanation, factors := parseExplanation(raw)
	if explanation == "" {
		explanation = genericExplanation(wage)
	}
	if len(factors) < maxFactors {
		factors = fallbackFactors
	}
	return explanation, factors
}

// parseExplanation extracts the EXPLANATION line and numbered factors from
// model output, tolerating extra surrounding text. Only lines after the
// FACTORS: header count as factors; a numbered enumeration inside the
// explanation itself must not leak into the list.
func parseExplanation(raw string) (string, []string) {
	var explanation string
	if m := explanationRe.FindStringSubmatch(raw); m != nil {
		explanation = strings.TrimSpace(m[1])
	}

	loc := factorsHeaderRe.FindStringIndex(raw)
	if loc == nil {
		return explanation, nil
	}

	var factors []string
	for _, m := range factorRe.FindAllStringSubmatch(raw[loc[1]:], maxFactors) {
		if f := strings.TrimSpace(m[1]); f != "" {
			factors = append(factors, f)
		}
	}
	return explanation, factors
}

func genericExplanation(wage float64) string {
	return fmt.Sprintf("The estimate of %.0f reflects typical wages for profiles with this combination of experience, education, location, and industry.", wage)
}
