package lang

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wagebud/wagebud/internal/ollama"
)

// Localizer translates final user-facing text back into the language the
// turn arrived in.
type Localizer struct {
	client Chatter
	model  string
}

// NewLocalizer creates a Localizer using the given client and model name.
func NewLocalizer(client Chatter, model string) *Localizer {
	return &Localizer{client: client, model: model}
}

// Localize translates text into the language identified by tag. When tag is
// the pivot language, or the translation fails for any reason, the input is
// returned unchanged.
func (l *Localizer) Localize(ctx context.Context, tag, text string) string {
	if tag == "" || tag == Pivot || text == "" {
		return text
	}

	prompt := fmt.Sprintf("Translate the following text into the language with ISO-639-1 code %q. Respond with ONLY the translation, no explanations.", tag)
	out, err := l.client.Chat(ctx, l.model, []ollama.Message{
		{Role: "system", Content: prompt},
		{Role: "user", Content: text},
	}, nil)
	if err != nil {
		slog.Warn("localization chat failed, returning pivot-language text", "language", tag, "error", err)
		return text
	}

	translated := strings.TrimSpace(out)
	if translated == "" {
		return text
	}
	return translated
}
