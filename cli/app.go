package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"

	"github.com/aschepis/backscratcher/diary/blobstore"
	"github.com/aschepis/backscratcher/diary/config"
	"github.com/aschepis/backscratcher/diary/conversations"
	"github.com/aschepis/backscratcher/diary/insight"
	"github.com/aschepis/backscratcher/diary/journal"
	"github.com/aschepis/backscratcher/diary/llm"
	"github.com/aschepis/backscratcher/diary/logger"
	"github.com/aschepis/backscratcher/diary/metrics"
)

// rootOptions hold the persistent flags plus hooks tests use to swap
// collaborators.
type rootOptions struct {
	configPath string
	logFile    string
	pretty     bool
	storePath  string

	client llm.Client
	now    func() time.Time
	logOut io.Writer
	editor func(path string) error
}

// app is everything a command needs, opened from configuration.
type app struct {
	cfg        *config.Config
	logger     zerolog.Logger
	store      blobstore.Store
	closeStore func() error
	journal    *journal.Manager
	threads    *conversations.Manager
	extractor  *metrics.Extractor
	opts       *rootOptions
}

func (o *rootOptions) open() (*app, error) {
	if o.logFile != "" && o.pretty {
		return nil, errors.New("--logfile and --pretty are mutually exclusive")
	}

	var log zerolog.Logger
	if o.logOut != nil {
		log = logger.New(o.logOut, zerolog.DebugLevel)
	} else {
		var err error
		log, err = logger.InitWithOptions(o.logFile, o.pretty)
		if err != nil {
			return nil, err
		}
	}

	cfg, err := config.LoadConfig(o.resolvedConfigPath())
	if err != nil {
		return nil, err
	}
	if o.storePath != "" {
		expanded, err := homedir.Expand(o.storePath)
		if err != nil {
			return nil, fmt.Errorf("invalid --store path: %w", err)
		}
		cfg.Store.Path = expanded
	}

	store, closeStore, err := config.OpenStore(cfg, log)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("backend", cfg.Store.Backend).Str("path", cfg.Store.Path).Msg("Store opened")

	now := o.now
	if now == nil {
		now = time.Now
	}
	return &app{
		cfg:        cfg,
		logger:     log,
		store:      store,
		closeStore: closeStore,
		journal: journal.NewManager(store, journal.Options{
			Folder:   cfg.Store.Folder,
			CacheTTL: cfg.CacheTTL(),
			Now:      now,
		}, log),
		threads:   conversations.NewManager(store, cfg.Store.Folder, now, log),
		extractor: metrics.NewExtractor(cfg.Metrics.TemplateLines, log),
		opts:      o,
	}, nil
}

// Close releases the store.
func (a *app) Close() error {
	return a.closeStore()
}

// requester builds the question answerer, resolving a model provider only
// when a command actually needs one.
func (a *app) requester() (*insight.Requester, error) {
	client := a.opts.client
	model := ""
	if client == nil {
		c, key, err := config.NewLLMClient(a.cfg, a.logger)
		if err != nil {
			return nil, err
		}
		client, model = c, key.Model
	}
	return insight.NewRequester(a.journal, a.threads, client, policyFromConfig(a.cfg, model), a.logger), nil
}

func policyFromConfig(cfg *config.Config, model string) insight.Policy {
	policy := insight.DefaultPolicy()
	policy.Model = model
	if cfg.Journal.ContextEntries > 0 {
		policy.MaxEntries = cfg.Journal.ContextEntries
	}
	if cfg.Journal.ContextChars > 0 {
		policy.MaxContextChars = cfg.Journal.ContextChars
	}
	policy.ContextPairs = cfg.Threads.ContextPairs
	if cfg.LLM.MaxTokens > 0 {
		policy.MaxTokens = cfg.LLM.MaxTokens
	}
	if cfg.LLM.SystemPrompt != "" {
		policy.SystemPrompt = cfg.LLM.SystemPrompt
	}
	if t := cfg.Timeout(); t > 0 {
		policy.Timeout = t
	}
	return policy
}
