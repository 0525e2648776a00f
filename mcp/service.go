// Package mcp exposes the diary to Model Context Protocol clients as a set
// of tools served over stdio.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aschepis/backscratcher/diary/conversations"
	"github.com/aschepis/backscratcher/diary/insight"
	"github.com/aschepis/backscratcher/diary/journal"
	"github.com/aschepis/backscratcher/diary/metrics"
	"github.com/rs/zerolog"
)

// ErrThreadNotFound is returned when a tool names a thread that does not exist.
var ErrThreadNotFound = errors.New("thread not found")

// Deps are the collaborators a Service is built from.
type Deps struct {
	Journal    *journal.Manager
	Threads    *conversations.Manager
	Insight    *insight.Requester
	Extractor  *metrics.Extractor
	WindowDays int
	Logger     zerolog.Logger
}

// Service implements the operations behind every tool.
type Service struct {
	journal    *journal.Manager
	threads    *conversations.Manager
	insight    *insight.Requester
	extractor  *metrics.Extractor
	windowDays int
	logger     zerolog.Logger
}

// NewService creates a Service from deps.
func NewService(deps Deps) *Service {
	extractor := deps.Extractor
	if extractor == nil {
		extractor = metrics.NewExtractor(metrics.DefaultMaxLines, deps.Logger)
	}
	days := deps.WindowDays
	if days <= 0 {
		days = metrics.DefaultWindowDays
	}
	return &Service{
		journal:    deps.Journal,
		threads:    deps.Threads,
		insight:    deps.Insight,
		extractor:  extractor,
		windowDays: days,
		logger:     deps.Logger.With().Str("component", "mcp").Logger(),
	}
}

// AppendOptions describe a new entry and its optional template values.
type AppendOptions struct {
	Text     string
	At       *time.Time
	Template metrics.TemplateInput
}

// AppendResult is the transport projection of a journal.Confirmation.
type AppendResult struct {
	File    string `json:"file"`
	Period  string `json:"period"`
	Created bool   `json:"created"`
	Header  string `json:"header"`
	Bytes   int    `json:"bytes"`
}

// Append writes a new entry to the period file of its timestamp.
func (s *Service) Append(ctx context.Context, opts AppendOptions) (*AppendResult, error) {
	at := s.journal.Now()
	if opts.At != nil {
		at = *opts.At
	}
	conf, err := s.journal.AppendEntry(ctx, at, metrics.ComposeEntry(opts.Text, opts.Template))
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("file", conf.File.Name).Msg("Entry appended via MCP")
	return &AppendResult{
		File:    conf.File.Name,
		Period:  conf.File.Period.String(),
		Created: conf.File.Created,
		Header:  conf.Header,
		Bytes:   conf.Bytes,
	}, nil
}

// Read returns the concatenated journal, or only its last entries when
// last is positive.
func (s *Service) Read(ctx context.Context, last int) (string, error) {
	corpus, err := s.journal.ReadAllEntries(ctx)
	if err != nil {
		return "", err
	}
	if last > 0 {
		return journal.LastEntries(corpus.Text, last), nil
	}
	return corpus.Text, nil
}

// Ask answers question from the journal. An empty journal yields the
// fixed notice instead of an error.
func (s *Service) Ask(ctx context.Context, question string) (string, error) {
	answer, err := s.insight.Ask(ctx, question)
	if errors.Is(err, insight.ErrEmptyCorpus) {
		return answer, nil
	}
	return answer, err
}

// TrendResult carries a gap-filled window with its aggregates.
type TrendResult struct {
	Window  metrics.Window  `json:"window"`
	Summary metrics.Summary `json:"summary"`
	Report  metrics.Report  `json:"report"`
}

// Trend extracts metrics from the journal over days ending at anchor.
// Zero values fall back to the configured window and today.
func (s *Service) Trend(ctx context.Context, days int, anchor time.Time) (*TrendResult, error) {
	if days <= 0 {
		days = s.windowDays
	}
	if anchor.IsZero() {
		anchor = s.journal.Now()
	}
	corpus, err := s.journal.ReadAllEntries(ctx)
	if err != nil {
		return nil, err
	}
	w, report := s.extractor.Trend(corpus.Text, days, anchor)
	return &TrendResult{Window: w, Summary: w.Summary(), Report: report}, nil
}

// ListThreads returns the known thread names.
func (s *Service) ListThreads(ctx context.Context) ([]string, error) {
	return s.threads.ListThreads(ctx)
}

// CreateThread creates or reuses the thread named after title.
func (s *Service) CreateThread(ctx context.Context, title string) (string, error) {
	h, err := s.threads.CreateThread(ctx, title)
	if err != nil {
		return "", err
	}
	return h.Name, nil
}

// ShowThread loads a thread; a missing thread loads empty.
func (s *Service) ShowThread(ctx context.Context, name string) (*conversations.Thread, error) {
	return s.threads.LoadThread(ctx, name)
}

// SendToThread continues a thread, creating it first when needed.
func (s *Service) SendToThread(ctx context.Context, name, content string, withJournal bool) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("thread name is required")
	}
	h, err := s.threads.CreateThread(ctx, name)
	if err != nil {
		return "", err
	}
	return s.insight.Send(ctx, h, content, withJournal)
}

// ClearThread empties an existing thread.
func (s *Service) ClearThread(ctx context.Context, name string) error {
	h, ok, err := s.threads.Find(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrThreadNotFound, conversations.SanitizeTitle(name))
	}
	return s.threads.ClearThread(ctx, h)
}
