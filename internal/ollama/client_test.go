package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChat_ReturnsAssistantContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q, want /api/chat", r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req["model"] != "mistral" {
			t.Errorf("model = %v, want mistral", req["model"])
		}
		if req["stream"] != false {
			t.Errorf("stream = %v, want false", req["stream"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": "hello"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	got, err := c.Chat(context.Background(), "mistral", []Message{{Role: "user", Content: "hi"}}, nil)
	if err != nil {
		t.Fatalf("Chat() error: %v", err)
	}
	if got != "hello" {
		t.Errorf("Chat() = %q, want %q", got, "hello")
	}
}

func TestChat_SchemaSetsFormat(t *testing.T) {
	var gotFormat any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		gotFormat = req["format"]
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": "{}"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	schema := &Schema{
		Type:       "object",
		Properties: map[string]SchemaProperty{"language": {Type: "string"}},
	}
	if _, err := c.Chat(context.Background(), "mistral", []Message{{Role: "user", Content: "hi"}}, schema); err != nil {
		t.Fatalf("Chat() error: %v", err)
	}
	if gotFormat == nil {
		t.Error("format not set in request when schema provided")
	}
}

func TestChat_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.Chat(context.Background(), "nope", []Message{{Role: "user", Content: "hi"}}, nil); err == nil {
		t.Error("Chat() error = nil, want non-nil on HTTP 404")
	}
}

func TestHasModel_MatchesTagSuffix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]string{{"name": "mistral:latest"}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	if !c.HasModel(context.Background(), "mistral") {
		t.Error("HasModel(mistral) = false, want true for mistral:latest")
	}
	if c.HasModel(context.Background(), "llama3") {
		t.Error("HasModel(llama3) = true, want false")
	}
}

func TestIsRunning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	c := New(srv.URL)
	if !c.IsRunning(context.Background()) {
		t.Error("IsRunning() = false for healthy server")
	}
	srv.Close()
	if c.IsRunning(context.Background()) {
		t.Error("IsRunning() = true for closed server")
	}
}
