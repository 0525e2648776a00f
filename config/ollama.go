package config

import (
	"github.com/aschepis/backscratcher/diary/llm"
	llmollama "github.com/aschepis/backscratcher/diary/llm/ollama"
)

// LoadOllamaConfig returns the host and model for an Ollama client.
func LoadOllamaConfig(cfg *Config) (host, model string) {
	if cfg != nil {
		host, model = cfg.Ollama.Host, cfg.Ollama.Model
	}
	if host == "" {
		host = llm.DefaultOllamaHost
	}
	return host, model
}

// NewOllamaClient creates a new Ollama LLM client from the configuration.
func NewOllamaClient(cfg *Config) (*llmollama.OllamaClient, error) {
	host, model := LoadOllamaConfig(cfg)
	return llmollama.NewOllamaClient(host, model)
}
