package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aschepis/backscratcher/diary/llm"
	"github.com/rs/zerolog"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"DIARY_STORE_PATH", "ANTHROPIC_API_KEY", "OPENAI_API_KEY", "OPENAI_BASE_URL",
		"OPENAI_MODEL", "OPENAI_ORG_ID", "OLLAMA_HOST", "OLLAMA_MODEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Store.Backend != BackendDiskv {
		t.Errorf("Expected diskv backend, got %s", cfg.Store.Backend)
	}
	if cfg.Journal.CacheTTLSeconds != 300 || cfg.Metrics.WindowDays != 30 || cfg.Threads.ContextPairs != 5 {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
	if !filepath.IsAbs(cfg.Store.Path) {
		t.Errorf("Expected store path to be expanded, got %s", cfg.Store.Path)
	}
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`store:
  backend: sqlite
  path: /tmp/diary.db
metrics:
  window_days: 14
llm:
  providers: [ollama]
ollama:
  model: llama3.2
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Store.Backend != BackendSQLite || cfg.Store.Path != "/tmp/diary.db" {
		t.Errorf("Expected sqlite at /tmp/diary.db, got %+v", cfg.Store)
	}
	if cfg.Store.Folder != "Journals" {
		t.Errorf("Expected default folder to survive, got %q", cfg.Store.Folder)
	}
	if cfg.Metrics.WindowDays != 14 || cfg.Metrics.TemplateLines != 12 {
		t.Errorf("Unexpected metrics config %+v", cfg.Metrics)
	}
	if len(cfg.LLM.Providers) != 1 || cfg.LLM.Providers[0] != "ollama" {
		t.Errorf("Expected providers [ollama], got %v", cfg.LLM.Providers)
	}
	if cfg.Ollama.Host != llm.DefaultOllamaHost || cfg.Ollama.Model != "llama3.2" {
		t.Errorf("Unexpected ollama config %+v", cfg.Ollama)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("OPENAI_MODEL", "gpt-env")
	t.Setenv("DIARY_STORE_PATH", "/tmp/env-store")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-env" || cfg.OpenAI.Model != "gpt-env" {
		t.Errorf("Expected env overrides, got %+v", cfg.OpenAI)
	}
	if cfg.Store.Path != "/tmp/env-store" {
		t.Errorf("Expected env store path, got %s", cfg.Store.Path)
	}
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("store:\n  backend: s3\n"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected unknown backend to be rejected")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Defaults()
	cfg.Store.Path = "/tmp/saved"
	cfg.Threads.ContextPairs = 2
	if err := SaveConfig(&cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("Expected mode 0600, got %v", info.Mode().Perm())
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Store.Path != "/tmp/saved" || loaded.Threads.ContextPairs != 2 {
		t.Errorf("Unexpected loaded config %+v", loaded)
	}
}

func TestRedacted(t *testing.T) {
	cfg := Defaults()
	cfg.OpenAI.APIKey = "sk-1234567890abcdef"
	cfg.Anthropic.APIKey = "short"
	r := cfg.Redacted()
	if r.OpenAI.APIKey != "sk-1****cdef" {
		t.Errorf("Unexpected masked key %q", r.OpenAI.APIKey)
	}
	if r.Anthropic.APIKey != "****" {
		t.Errorf("Unexpected masked key %q", r.Anthropic.APIKey)
	}
	if cfg.OpenAI.APIKey != "sk-1234567890abcdef" {
		t.Error("Expected original config to be untouched")
	}
}

func TestOpenStoreBackends(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	for _, backend := range []string{BackendMemory, BackendDiskv, BackendSQLite} {
		cfg := Defaults()
		cfg.Store.Backend = backend
		cfg.Store.Path = filepath.Join(dir, backend, "data")

		store, closeFn, err := OpenStore(&cfg, zerolog.Nop())
		if err != nil {
			t.Fatalf("%s: OpenStore failed: %v", backend, err)
		}
		id, err := store.Create(ctx, "Journal_2025-01", cfg.Store.Folder, []byte("hello"))
		if err != nil {
			t.Fatalf("%s: Create failed: %v", backend, err)
		}
		body, err := store.ReadFull(ctx, id)
		if err != nil || string(body) != "hello" {
			t.Errorf("%s: expected hello, got %q (%v)", backend, body, err)
		}
		if err := closeFn(); err != nil {
			t.Errorf("%s: close failed: %v", backend, err)
		}
	}
}

func TestNewLLMClientPicksConfiguredProvider(t *testing.T) {
	cfg := Defaults()
	cfg.LLM.Providers = []string{"anthropic", "openai"}
	cfg.OpenAI.APIKey = "sk-test"

	client, key, err := NewLLMClient(&cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLLMClient failed: %v", err)
	}
	if client == nil {
		t.Fatal("Expected a client")
	}
	if key.Provider != llm.ProviderOpenAI || key.Model != "gpt-4o-mini" {
		t.Errorf("Expected openai/gpt-4o-mini, got %s/%s", key.Provider, key.Model)
	}

	cfg.OpenAI.APIKey = ""
	if _, _, err := NewLLMClient(&cfg, zerolog.Nop()); err == nil {
		t.Error("Expected error with no configured provider")
	}
}

func TestMaxRetriesOverride(t *testing.T) {
	clearEnv(t)
	if got := Defaults().LLM.MaxRetries; got != 3 {
		t.Errorf("Expected 3 default retries, got %d", got)
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("llm:\n  max_retries: -1\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.LLM.MaxRetries != -1 {
		t.Errorf("Expected retries disabled, got %d", cfg.LLM.MaxRetries)
	}
}
