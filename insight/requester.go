package insight

import (
	"context"
	"errors"
	"strings"

	"github.com/aschepis/backscratcher/diary/conversations"
	"github.com/aschepis/backscratcher/diary/journal"
	"github.com/aschepis/backscratcher/diary/llm"
	"github.com/rs/zerolog"
)

// EmptyCorpusMessage is shown instead of an answer when nothing has been
// written yet.
const EmptyCorpusMessage = "No journal entries found yet."

// ErrEmptyCorpus short-circuits Ask when the journal is empty. It is an
// informational state, not a failure.
var ErrEmptyCorpus = errors.New("insight: no journal entries")

// CollaboratorError wraps a failed model call. Its text is the model
// client's error text, unchanged.
type CollaboratorError struct {
	Err error
}

func (e *CollaboratorError) Error() string {
	return e.Err.Error()
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// IsCollaboratorError reports whether err came from the model call.
func IsCollaboratorError(err error) bool {
	var ce *CollaboratorError
	return errors.As(err, &ce)
}

// CorpusReader supplies the concatenated journal text.
type CorpusReader interface {
	ReadAllEntries(ctx context.Context) (journal.Corpus, error)
}

// ThreadAppender records dialogue turns.
type ThreadAppender interface {
	AppendMessage(ctx context.Context, h conversations.Handle, role conversations.Role, content string) (*conversations.Thread, error)
}

// Requester answers questions against the journal and carries threaded
// conversations.
type Requester struct {
	corpus  CorpusReader
	threads ThreadAppender
	client  llm.Client
	policy  Policy
	logger  zerolog.Logger
}

// NewRequester creates a Requester.
func NewRequester(corpus CorpusReader, threads ThreadAppender, client llm.Client, policy Policy, logger zerolog.Logger) *Requester {
	return &Requester{
		corpus:  corpus,
		threads: threads,
		client:  client,
		policy:  policy,
		logger:  logger.With().Str("component", "insight").Logger(),
	}
}

// Policy returns the prompt bounds in use.
func (r *Requester) Policy() Policy {
	return r.policy
}

// Prepare builds the prompt Ask would send without calling the model.
func (r *Requester) Prepare(ctx context.Context, question string) (*Payload, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}
	corpus, err := r.corpus.ReadAllEntries(ctx)
	if err != nil {
		return nil, err
	}
	if corpus.Empty() {
		return nil, ErrEmptyCorpus
	}
	return BuildPrompt(question, corpus.Text, nil, r.policy), nil
}

// Ask answers question from the trailing journal entries.
func (r *Requester) Ask(ctx context.Context, question string) (string, error) {
	payload, err := r.Prepare(ctx, question)
	if errors.Is(err, ErrEmptyCorpus) {
		return EmptyCorpusMessage, err
	}
	if err != nil {
		return "", err
	}
	return r.complete(ctx, payload)
}

// Send appends content to the thread, asks the model with the recent
// window of the thread (and the journal when withJournal is set), and
// appends the reply. When the model call fails the user message stays in
// the thread and no reply is recorded.
func (r *Requester) Send(ctx context.Context, h conversations.Handle, content string, withJournal bool) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyQuestion
	}

	var contextText string
	if withJournal {
		corpus, err := r.corpus.ReadAllEntries(ctx)
		if err != nil {
			return "", err
		}
		contextText = corpus.Text
	}

	thread, err := r.threads.AppendMessage(ctx, h, conversations.RoleUser, content)
	if err != nil {
		return "", err
	}
	history := thread.Messages
	if n := len(history); n > 0 {
		history = history[:n-1]
	}

	payload := BuildPrompt(content, contextText, history, r.policy)
	reply, err := r.complete(ctx, payload)
	if err != nil {
		return "", err
	}

	if _, err := r.threads.AppendMessage(ctx, h, conversations.RoleAssistant, reply); err != nil {
		return reply, err
	}
	return reply, nil
}

func (r *Requester) complete(ctx context.Context, payload *Payload) (string, error) {
	if r.policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.policy.Timeout)
		defer cancel()
	}

	resp, err := r.client.Synchronous(ctx, payload.Request())
	if err != nil {
		r.logger.Error().Err(err).Msg("Model call failed")
		return "", &CollaboratorError{Err: err}
	}
	r.logger.Debug().Int("system_chars", len(payload.System)).Int("messages", len(payload.Messages)).Msg("Model call finished")
	return resp.Text(), nil
}
