package config

import (
	llmanthropic "github.com/aschepis/backscratcher/diary/llm/anthropic"
	"github.com/rs/zerolog"
)

// LoadAnthropicConfig returns the API key and model for an Anthropic client.
func LoadAnthropicConfig(cfg *Config) (apiKey, model string) {
	if cfg == nil {
		return "", ""
	}
	return cfg.Anthropic.APIKey, cfg.Anthropic.Model
}

// NewAnthropicClient creates a new Anthropic LLM client from the configuration.
func NewAnthropicClient(cfg *Config, logger zerolog.Logger) (*llmanthropic.AnthropicClient, error) {
	apiKey, model := LoadAnthropicConfig(cfg)
	return llmanthropic.NewAnthropicClient(apiKey, model, logger)
}
