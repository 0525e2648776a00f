package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendDiskv  = "diskv"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// StoreConfig selects where period files and threads live.
type StoreConfig struct {
	Backend string `yaml:"backend,omitempty"` // diskv, sqlite or memory
	Path    string `yaml:"path,omitempty"`    // Directory for diskv, database file for sqlite
	Folder  string `yaml:"folder,omitempty"`  // Container holding the diary's objects
}

// JournalConfig bounds journal reads.
type JournalConfig struct {
	CacheTTLSeconds int `yaml:"cache_ttl_seconds,omitempty"` // Corpus cache lifetime; negative disables
	ContextEntries  int `yaml:"context_entries,omitempty"`   // Trailing entries sent with a question
	ContextChars    int `yaml:"context_chars,omitempty"`     // Character cap on the journal context
}

// MetricsConfig controls template extraction and the trend window.
type MetricsConfig struct {
	WindowDays    int `yaml:"window_days,omitempty"`
	TemplateLines int `yaml:"template_lines,omitempty"` // Lines scanned after the template marker
}

// ThreadsConfig controls dialogue threads.
type ThreadsConfig struct {
	ContextPairs int `yaml:"context_pairs,omitempty"` // User/assistant pairs replayed per send
}

// LLMConfig controls the model collaborator.
type LLMConfig struct {
	Providers      []string `yaml:"providers,omitempty"` // Ordered preference
	MaxTokens      int64    `yaml:"max_tokens,omitempty"`
	TimeoutSeconds int      `yaml:"timeout_seconds,omitempty"`
	MaxRetries     int      `yaml:"max_retries,omitempty"` // Retries of rate-limited or failed calls; negative disables
	SystemPrompt   string   `yaml:"system_prompt,omitempty"`
}

// AnthropicConfig represents configuration for Anthropic LLM provider.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key,omitempty"`
	Model  string `yaml:"model,omitempty"`
}

// OllamaConfig represents configuration for Ollama LLM provider.
type OllamaConfig struct {
	Host  string `yaml:"host,omitempty"`  // Ollama host (default: "http://localhost:11434")
	Model string `yaml:"model,omitempty"` // Default model name
}

// OpenAIConfig represents configuration for OpenAI LLM provider.
type OpenAIConfig struct {
	APIKey       string `yaml:"api_key,omitempty"`
	BaseURL      string `yaml:"base_url,omitempty"` // Custom base URL (default: official API)
	Model        string `yaml:"model,omitempty"`
	Organization string `yaml:"organization,omitempty"`
}

// Config is the diary configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store,omitempty"`
	Journal   JournalConfig   `yaml:"journal,omitempty"`
	Metrics   MetricsConfig   `yaml:"metrics,omitempty"`
	Threads   ThreadsConfig   `yaml:"threads,omitempty"`
	LLM       LLMConfig       `yaml:"llm,omitempty"`
	Anthropic AnthropicConfig `yaml:"anthropic,omitempty"`
	OpenAI    OpenAIConfig    `yaml:"openai,omitempty"`
	Ollama    OllamaConfig    `yaml:"ollama,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Store: StoreConfig{
			Backend: BackendDiskv,
			Path:    "~/.diary/store",
			Folder:  "Journals",
		},
		Journal: JournalConfig{
			CacheTTLSeconds: 300,
			ContextEntries:  10,
			ContextChars:    12000,
		},
		Metrics: MetricsConfig{
			WindowDays:    30,
			TemplateLines: 12,
		},
		Threads: ThreadsConfig{
			ContextPairs: 5,
		},
		LLM: LLMConfig{
			Providers:      []string{"openai", "anthropic", "ollama"},
			MaxTokens:      1024,
			TimeoutSeconds: 60,
			MaxRetries:     3,
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Anthropic: AnthropicConfig{
			Model: "claude-haiku-4-5",
		},
		Ollama: OllamaConfig{
			Host: "http://localhost:11434",
		},
	}
}

// GetConfigPath returns the default config file path.
// Can be overridden via DIARY_CONFIG_PATH environment variable.
func GetConfigPath() string {
	if envPath := os.Getenv("DIARY_CONFIG_PATH"); envPath != "" {
		return expandPath(envPath)
	}
	return expandPath("~/.diary/config.yaml")
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}

// LoadConfig merges the file at path (if it exists) and the environment
// onto the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := Defaults()

	expandedPath := expandPath(path)
	if data, err := os.ReadFile(expandedPath); err == nil { //#nosec 304 -- intentional file read for config
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %q: %w", expandedPath, err)
		}
		if err := mergo.Merge(&cfg, fileCfg, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %q: %w", expandedPath, err)
	}

	if err := mergo.Merge(&cfg, envOverrides(), mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge environment overrides: %w", err)
	}

	cfg.Store.Path = expandPath(cfg.Store.Path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envOverrides collects the supported environment variables. Unset
// variables leave zero values, which mergo skips.
func envOverrides() Config {
	return Config{
		Store: StoreConfig{
			Path: os.Getenv("DIARY_STORE_PATH"),
		},
		Anthropic: AnthropicConfig{
			APIKey: os.Getenv("ANTHROPIC_API_KEY"),
		},
		OpenAI: OpenAIConfig{
			APIKey:       os.Getenv("OPENAI_API_KEY"),
			BaseURL:      os.Getenv("OPENAI_BASE_URL"),
			Model:        os.Getenv("OPENAI_MODEL"),
			Organization: os.Getenv("OPENAI_ORG_ID"),
		},
		Ollama: OllamaConfig{
			Host:  os.Getenv("OLLAMA_HOST"),
			Model: os.Getenv("OLLAMA_MODEL"),
		},
	}
}

// Validate checks values that would otherwise fail later.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendDiskv, BackendSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the %s backend", c.Store.Backend)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Metrics.WindowDays <= 0 {
		return fmt.Errorf("metrics.window_days must be positive")
	}
	if c.Threads.ContextPairs < 0 {
		return fmt.Errorf("threads.context_pairs must not be negative")
	}
	return nil
}

// CacheTTL is the corpus cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Journal.CacheTTLSeconds) * time.Second
}

// Timeout is the model call timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// SaveConfig saves the configuration to the specified path.
func SaveConfig(cfg *Config, path string) error {
	expandedPath := expandPath(path)

	dir := filepath.Dir(expandedPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(expandedPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Redacted returns a copy with API keys masked, for display.
func (c *Config) Redacted() Config {
	out := *c
	out.LLM.Providers = append([]string(nil), c.LLM.Providers...)
	out.Anthropic.APIKey = mask(c.Anthropic.APIKey)
	out.OpenAI.APIKey = mask(c.OpenAI.APIKey)
	return out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****" + secret[len(secret)-4:]
}
