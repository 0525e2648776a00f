package llm

import "testing"

func TestProviderRegistry_IsProviderEnabled(t *testing.T) {
	registry := NewProviderRegistry(&ProviderConfig{}, []string{"anthropic", "ollama", "bogus"})

	if !registry.IsProviderEnabled("anthropic") {
		t.Error("anthropic should be enabled")
	}
	if !registry.IsProviderEnabled("ollama") {
		t.Error("ollama should be enabled")
	}
	if registry.IsProviderEnabled("openai") {
		t.Error("openai should not be enabled")
	}
	if registry.IsProviderEnabled("bogus") {
		t.Error("unknown providers should be dropped")
	}
}

func TestProviderRegistry_IsProviderConfigured(t *testing.T) {
	registry := NewProviderRegistry(&ProviderConfig{}, DefaultProviders)
	for _, p := range DefaultProviders {
		if registry.IsProviderConfigured(p) {
			t.Errorf("%s should not be configured with empty settings", p)
		}
	}

	registry = NewProviderRegistry(&ProviderConfig{
		AnthropicAPIKey: "test-key",
		OpenAIAPIKey:    "test-key",
		OllamaModel:     "llama3.2",
	}, DefaultProviders)
	for _, p := range DefaultProviders {
		if !registry.IsProviderConfigured(p) {
			t.Errorf("%s should be configured", p)
		}
	}
}

func TestProviderRegistry_ResolveFollowsOrder(t *testing.T) {
	cfg := &ProviderConfig{
		AnthropicAPIKey: "anthropic-key",
		OpenAIAPIKey:    "openai-key",
		OpenAIBaseURL:   "https://example.test/v1",
	}

	// Repeat to catch any dependence on map iteration order.
	for i := 0; i < 20; i++ {
		key, err := NewProviderRegistry(cfg, []string{"ollama", "openai", "anthropic"}).Resolve()
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if key.Provider != ProviderOpenAI {
			t.Fatalf("Expected openai (first configured in order), got %s", key.Provider)
		}
		if key.Model != DefaultOpenAIModel || key.BaseURL != "https://example.test/v1" {
			t.Errorf("Unexpected key %+v", key)
		}
	}
}

func TestProviderRegistry_ResolveDefaults(t *testing.T) {
	key, err := NewProviderRegistry(&ProviderConfig{OllamaModel: "llama3.2"}, []string{"ollama"}).Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if key.Host != DefaultOllamaHost || key.Model != "llama3.2" {
		t.Errorf("Unexpected ollama key %+v", key)
	}

	key, err = NewProviderRegistry(&ProviderConfig{AnthropicAPIKey: "k"}, nil).Resolve()
	if err == nil {
		t.Errorf("Expected error with no providers enabled, got %+v", key)
	}

	if _, err := NewProviderRegistry(&ProviderConfig{}, DefaultProviders).Resolve(); err == nil {
		t.Error("Expected error when no provider is configured")
	}
}
