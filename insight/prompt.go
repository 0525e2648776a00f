// Package insight assembles bounded prompts from journal text and dialogue
// history and forwards them to the language model.
package insight

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aschepis/backscratcher/diary/conversations"
	"github.com/aschepis/backscratcher/diary/journal"
	"github.com/aschepis/backscratcher/diary/llm"
)

// DefaultSystemPrompt frames the assistant's role.
const DefaultSystemPrompt = "You analyze a person's journal entries and provide factual, reflective insights when asked."

// Policy bounds what goes into a prompt.
type Policy struct {
	// MaxEntries is how many trailing journal entries are included.
	MaxEntries int
	// MaxContextChars caps the journal context after entry trimming.
	MaxContextChars int
	// ContextPairs is how many trailing user/assistant pairs are replayed.
	ContextPairs int
	MaxTokens    int64
	Model        string
	SystemPrompt string
	Timeout      time.Duration
}

// DefaultPolicy returns the stock bounds.
func DefaultPolicy() Policy {
	return Policy{
		MaxEntries:      10,
		MaxContextChars: 12000,
		ContextPairs:    5,
		MaxTokens:       1024,
		SystemPrompt:    DefaultSystemPrompt,
		Timeout:         60 * time.Second,
	}
}

// ErrEmptyQuestion is returned when the question or message is blank.
var ErrEmptyQuestion = errors.New("insight: question is empty")

// Payload is an assembled prompt.
type Payload struct {
	System    string
	Messages  []llm.Message
	Model     string
	MaxTokens int64
}

// Request converts the payload to an llm.Request.
func (p *Payload) Request() *llm.Request {
	return &llm.Request{
		Model:     p.Model,
		System:    p.System,
		Messages:  append([]llm.Message(nil), p.Messages...),
		MaxTokens: p.MaxTokens,
	}
}

// Render flattens the payload into one text prompt.
func (p *Payload) Render() string {
	var b strings.Builder
	b.WriteString(p.System)
	for _, m := range p.Messages {
		b.WriteString("\n\n")
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}

// BuildPrompt assembles, in order: the role instruction, the bounded
// journal context, the bounded dialogue window, then the question. The
// instruction and journal context form the system prompt so the messages
// keep alternating roles. Callers reject blank questions first.
func BuildPrompt(question, contextText string, window []conversations.Message, policy Policy) *Payload {
	question = strings.TrimSpace(question)

	system := policy.SystemPrompt
	if system == "" {
		system = DefaultSystemPrompt
	}
	if journalContext := BoundContext(contextText, policy); journalContext != "" {
		system += "\n\nHere are my journals:\n" + journalContext
	}

	bounded := conversations.TrimToRecentWindow(&conversations.Thread{Messages: window}, policy.ContextPairs)
	messages := make([]llm.Message, 0, len(bounded)+1)
	for _, m := range bounded {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		messages = appendTurn(messages, toLLMRole(m.Role), m.Content)
	}
	// The first turn must come from the user.
	for len(messages) > 0 && messages[0].Role != llm.RoleUser {
		messages = messages[1:]
	}
	messages = appendTurn(messages, llm.RoleUser, "Question: "+question)

	return &Payload{
		System:    system,
		Messages:  messages,
		Model:     policy.Model,
		MaxTokens: policy.MaxTokens,
	}
}

// appendTurn adds a message, merging it into the previous one when both
// share a role.
func appendTurn(messages []llm.Message, role llm.MessageRole, content string) []llm.Message {
	if n := len(messages); n > 0 && messages[n-1].Role == role {
		messages[n-1].Content += "\n\n" + content
		return messages
	}
	return append(messages, llm.NewTextMessage(role, content))
}

func toLLMRole(r conversations.Role) llm.MessageRole {
	if r == conversations.RoleAssistant {
		return llm.RoleAssistant
	}
	return llm.RoleUser
}

// BoundContext keeps the last policy.MaxEntries entries of text, then
// drops whole leading entries until it fits policy.MaxContextChars. A
// single oversized entry keeps its tail.
func BoundContext(text string, policy Policy) string {
	if policy.MaxEntries <= 0 {
		return ""
	}
	bounded := journal.LastEntries(text, policy.MaxEntries)
	limit := policy.MaxContextChars
	if limit <= 0 || len(bounded) <= limit {
		return bounded
	}

	cut := bounded[len(bounded)-limit:]
	if i := strings.Index(cut, journal.Separator); i >= 0 && i+len(journal.Separator) < len(cut) {
		return strings.TrimSpace(cut[i+len(journal.Separator):])
	}
	for len(cut) > 0 && !utf8.RuneStart(cut[0]) {
		cut = cut[1:]
	}
	return strings.TrimSpace(cut)
}
