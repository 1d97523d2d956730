package config

// Config is the full runtime configuration.
type Config struct {
	Server    ServerConfig
	Ollama    OllamaConfig
	Predictor PredictorConfig
	Storage   StorageConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port int
}

type OllamaConfig struct {
	BaseURL   string
	ChatModel string
}

type PredictorConfig struct {
	BaseURL string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4200,
		},
		Ollama: OllamaConfig{
			BaseURL:   "http://localhost:11434",
			ChatModel: "mistral",
		},
		Predictor: PredictorConfig{
			BaseURL: "http://localhost:8000",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file backend
// ($XDG_CONFIG_HOME/wagebud/config.json) with WAGEBUD_* environment
// variables taking precedence over file values.
func Load() (Config, error) {
	return loadWith(newFileBackend())
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()
	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}
