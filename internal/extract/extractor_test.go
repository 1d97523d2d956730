package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/wagebud/wagebud/internal/ollama"
	"github.com/wagebud/wagebud/internal/profile"
)

// mockChatter implements Chatter for testing.
type mockChatter struct {
	response string
	err      error
	messages []ollama.Message
}

func (m *mockChatter) Chat(ctx context.Context, model string, messages []ollama.Message, schema *ollama.Schema) (string, error) {
	m.messages = messages
	return m.response, m.err
}

func TestExtract_PromptIncludesKnownProfile(t *testing.T) {
	mock := &mockChatter{response: `{"age":"25-34"}`}
	e := NewExtractor(mock, "mistral")

	age := "25-34"
	current := profile.Profile{Age: &age}

	if _, err := e.Extract(context.Background(), "I work in finance", current); err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	if len(mock.messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(mock.messages))
	}
	if mock.messages[0].Role != "system" {
		t.Errorf("first message role = %q, want system", mock.messages[0].Role)
	}
	user := mock.messages[1].Content
	if !strings.Contains(user, `"age":"25-34"`) {
		t.Errorf("user message does not contain serialized profile: %q", user)
	}
	if !strings.Contains(user, "I work in finance") {
		t.Errorf("user message does not contain the utterance: %q", user)
	}
}

func TestExtract_ReturnsRawModelOutput(t *testing.T) {
	mock := &mockChatter{response: "```json\n{\"country\":\"Brazil\"}\n```"}
	e := NewExtractor(mock, "mistral")

	raw, err := e.Extract(context.Background(), "I'm from Brazil", profile.Profile{})
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if raw != mock.response {
		t.Errorf("Extract() = %q, want untouched model output", raw)
	}
}
