package llm

import (
	"fmt"
	"strings"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
)

// DefaultProviders is the preference order used when none is configured.
var DefaultProviders = []string{ProviderAnthropic, ProviderOpenAI, ProviderOllama}

// Default models per provider.
const (
	DefaultAnthropicModel = "claude-haiku-4-5"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultOllamaHost     = "http://localhost:11434"
)

// ClientKey uniquely identifies an LLM client configuration.
type ClientKey struct {
	Provider     string
	Model        string
	APIKey       string // For credential-based providers
	Host         string // For Ollama
	BaseURL      string // For OpenAI
	Organization string // For OpenAI
}

// ProviderConfig holds the resolved provider settings. Environment
// overrides are applied by the config package before it gets here.
type ProviderConfig struct {
	AnthropicAPIKey string
	AnthropicModel  string
	OllamaHost      string
	OllamaModel     string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	OpenAIOrg       string
}

// ProviderRegistry picks a provider from an ordered preference list.
// Client creation is handled by the caller to avoid import cycles.
type ProviderRegistry struct {
	providers []string
	config    *ProviderConfig
}

// NewProviderRegistry creates a registry that tries providers in order.
// Unknown names and duplicates are dropped.
func NewProviderRegistry(providerConfig *ProviderConfig, providers []string) *ProviderRegistry {
	if providerConfig == nil {
		providerConfig = &ProviderConfig{}
	}
	seen := make(map[string]bool)
	ordered := make([]string, 0, len(providers))
	for _, p := range providers {
		p = strings.ToLower(strings.TrimSpace(p))
		if seen[p] || !isKnownProvider(p) {
			continue
		}
		seen[p] = true
		ordered = append(ordered, p)
	}
	return &ProviderRegistry{providers: ordered, config: providerConfig}
}

func isKnownProvider(p string) bool {
	return p == ProviderAnthropic || p == ProviderOllama || p == ProviderOpenAI
}

// Providers returns the enabled providers in preference order.
func (r *ProviderRegistry) Providers() []string {
	return append([]string(nil), r.providers...)
}

// IsProviderEnabled checks if a provider is in the enabled providers list.
func (r *ProviderRegistry) IsProviderEnabled(provider string) bool {
	for _, p := range r.providers {
		if p == provider {
			return true
		}
	}
	return false
}

// IsProviderConfigured checks if a provider has the settings it needs.
func (r *ProviderRegistry) IsProviderConfigured(provider string) bool {
	switch provider {
	case ProviderAnthropic:
		return r.config.AnthropicAPIKey != ""
	case ProviderOllama:
		// Host has a default, but a model must be named.
		return r.config.OllamaModel != ""
	case ProviderOpenAI:
		return r.config.OpenAIAPIKey != ""
	default:
		return false
	}
}

// Resolve returns the ClientKey for the first enabled provider that is
// configured.
func (r *ProviderRegistry) Resolve() (*ClientKey, error) {
	if len(r.providers) == 0 {
		return nil, fmt.Errorf("no providers enabled")
	}
	for _, p := range r.providers {
		if !r.IsProviderConfigured(p) {
			continue
		}
		return r.resolveProviderConfig(p), nil
	}
	return nil, fmt.Errorf("no configured provider among %v", r.providers)
}

// resolveProviderConfig fills in a ClientKey for a configured provider.
func (r *ProviderRegistry) resolveProviderConfig(provider string) *ClientKey {
	key := &ClientKey{Provider: provider}
	switch provider {
	case ProviderAnthropic:
		key.APIKey = r.config.AnthropicAPIKey
		key.Model = r.config.AnthropicModel
		if key.Model == "" {
			key.Model = DefaultAnthropicModel
		}
	case ProviderOllama:
		key.Host = r.config.OllamaHost
		if key.Host == "" {
			key.Host = DefaultOllamaHost
		}
		key.Model = r.config.OllamaModel
	case ProviderOpenAI:
		key.APIKey = r.config.OpenAIAPIKey
		key.BaseURL = r.config.OpenAIBaseURL
		key.Organization = r.config.OpenAIOrg
		key.Model = r.config.OpenAIModel
		if key.Model == "" {
			key.Model = DefaultOpenAIModel
		}
	}
	return key
}
