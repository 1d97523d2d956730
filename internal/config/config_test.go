package config

import (
	"testing"
)

// memBackend is an in-memory Backend for tests.
type memBackend struct {
	data map[string]any
}

func (m *memBackend) GetString(key string) (string, bool, error) {
	v, ok := m.data[key]
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

func (m *memBackend) GetInt(key string) (int, bool, error) {
	v, ok := m.data[key]
	if !ok {
		return 0, false, nil
	}
	return v.(int), true, nil
}

func (m *memBackend) SetString(key, val string) error {
	m.data[key] = val
	return nil
}

func (m *memBackend) SetInt(key string, val int) error {
	m.data[key] = val
	return nil
}

func TestDefaults(t *testing.T) {
	cfg, err := loadWith(&memBackend{data: map[string]any{}})
	if err != nil {
		t.Fatalf("loadWith() error: %v", err)
	}

	if cfg.Server.Port != 4200 {
		t.Errorf("Server.Port = %d, want 4200", cfg.Server.Port)
	}
	if cfg.Ollama.BaseURL != "http://localhost:11434" {
		t.Errorf("Ollama.BaseURL = %q", cfg.Ollama.BaseURL)
	}
	if cfg.Ollama.ChatModel != "mistral" {
		t.Errorf("Ollama.ChatModel = %q, want mistral", cfg.Ollama.ChatModel)
	}
	if cfg.Predictor.BaseURL != "http://localhost:8000" {
		t.Errorf("Predictor.BaseURL = %q", cfg.Predictor.BaseURL)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
}

func TestBackendOverridesDefaults(t *testing.T) {
	b := &memBackend{data: map[string]any{
		"server.port":        5300,
		"ollama.chat_model":  "llama3.1",
		"predictor.base_url": "http://predictor.internal:9000",
	}}

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("loadWith() error: %v", err)
	}

	if cfg.Server.Port != 5300 {
		t.Errorf("Server.Port = %d, want 5300", cfg.Server.Port)
	}
	if cfg.Ollama.ChatModel != "llama3.1" {
		t.Errorf("Ollama.ChatModel = %q, want llama3.1", cfg.Ollama.ChatModel)
	}
	if cfg.Predictor.BaseURL != "http://predictor.internal:9000" {
		t.Errorf("Predictor.BaseURL = %q", cfg.Predictor.BaseURL)
	}
}

func TestEnvOverridesBackend(t *testing.T) {
	t.Setenv("WAGEBUD_SERVER_PORT", "6100")
	t.Setenv("WAGEBUD_PREDICTOR_BASE_URL", "http://env-wins:8000")

	b := &memBackend{data: map[string]any{
		"server.port":        5300,
		"predictor.base_url": "http://file-loses:8000",
	}}

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("loadWith() error: %v", err)
	}

	if cfg.Server.Port != 6100 {
		t.Errorf("Server.Port = %d, want env override 6100", cfg.Server.Port)
	}
	if cfg.Predictor.BaseURL != "http://env-wins:8000" {
		t.Errorf("Predictor.BaseURL = %q, want env override", cfg.Predictor.BaseURL)
	}
}

func TestEnvOverride_InvalidIntIgnored(t *testing.T) {
	t.Setenv("WAGEBUD_SERVER_PORT", "not-a-number")

	cfg, err := loadWith(&memBackend{data: map[string]any{}})
	if err != nil {
		t.Fatalf("loadWith() error: %v", err)
	}
	if cfg.Server.Port != 4200 {
		t.Errorf("Server.Port = %d, want default 4200 when env invalid", cfg.Server.Port)
	}
}

func TestShowAllCoversEverySpec(t *testing.T) {
	infos := ShowAll(defaults())
	if len(infos) != len(specs) {
		t.Fatalf("ShowAll() returned %d keys, want %d", len(infos), len(specs))
	}
	for _, info := range infos {
		if info.Key == "" || info.EnvVar == "" {
			t.Errorf("incomplete KeyInfo: %+v", info)
		}
	}
}
