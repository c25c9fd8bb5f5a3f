package llm

import (
	"fmt"
	"time"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llama2:latest"
	defaultTimeout     = 120 * time.Second
)

func New(cfg Config) (LLM, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	switch cfg.Provider {
	case "", "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = defaultOllamaURL
		}

		model := cfg.Model
		if model == "" {
			model = defaultOllamaModel
		}

		return NewOllama(baseURL, model, timeout), nil
	case "claude":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("claude provider requires an API key")
		}
		return newClaude(cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}
