package config

import (
	"fmt"

	"github.com/aschepis/backscratcher/diary/llm"
	"github.com/rs/zerolog"
)

// ProviderConfig maps the provider sections onto the registry's settings.
func ProviderConfig(cfg *Config) *llm.ProviderConfig {
	return &llm.ProviderConfig{
		AnthropicAPIKey: cfg.Anthropic.APIKey,
		AnthropicModel:  cfg.Anthropic.Model,
		OllamaHost:      cfg.Ollama.Host,
		OllamaModel:     cfg.Ollama.Model,
		OpenAIAPIKey:    cfg.OpenAI.APIKey,
		OpenAIBaseURL:   cfg.OpenAI.BaseURL,
		OpenAIModel:     cfg.OpenAI.Model,
		OpenAIOrg:       cfg.OpenAI.Organization,
	}
}

// NewLLMClient builds a client for the first configured provider in
// llm.providers, wrapped with logging middleware and retries. The resolved model is
// returned so requests can name it.
func NewLLMClient(cfg *Config, logger zerolog.Logger) (llm.Client, *llm.ClientKey, error) {
	providers := cfg.LLM.Providers
	if len(providers) == 0 {
		providers = llm.DefaultProviders
	}
	key, err := llm.NewProviderRegistry(ProviderConfig(cfg), providers).Resolve()
	if err != nil {
		return nil, nil, fmt.Errorf("no language model available: %w", err)
	}

	var client llm.Client
	switch key.Provider {
	case llm.ProviderAnthropic:
		client, err = NewAnthropicClient(cfg, logger)
	case llm.ProviderOpenAI:
		client, err = NewOpenAIClient(cfg)
	case llm.ProviderOllama:
		client, err = NewOllamaClient(cfg)
	default:
		err = fmt.Errorf("unknown provider: %s", key.Provider)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("create %s client: %w", key.Provider, err)
	}

	client = llm.WrapWithMiddleware(client, llm.LoggingMiddleware(logger))
	if cfg.LLM.MaxRetries > 0 {
		retry := llm.DefaultRetryPolicy()
		retry.MaxRetries = uint64(cfg.LLM.MaxRetries)
		client = llm.WithRetry(client, retry, logger)
	}

	logger.Debug().Str("provider", key.Provider).Str("model", key.Model).Int("max_retries", cfg.LLM.MaxRetries).Msg("LLM client ready")
	return client, key, nil
}
