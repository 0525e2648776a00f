package config

import (
	llmopenai "github.com/aschepis/backscratcher/diary/llm/openai"
)

// LoadOpenAIConfig returns the API key, base URL, model, and organization
// for an OpenAI client.
func LoadOpenAIConfig(cfg *Config) (apiKey, baseURL, model, organization string) {
	if cfg == nil {
		return "", "", "", ""
	}
	return cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, cfg.OpenAI.Organization
}

// NewOpenAIClient creates a new OpenAI LLM client from the configuration.
func NewOpenAIClient(cfg *Config) (*llmopenai.OpenAIClient, error) {
	apiKey, baseURL, model, organization := LoadOpenAIConfig(cfg)
	return llmopenai.NewOpenAIClient(apiKey, baseURL, model, organization)
}
