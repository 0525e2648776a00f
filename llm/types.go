package llm

import "strings"

// MessageRole represents the role of a message in a conversation.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is a single text turn. System instructions travel in
// Request.System, never as a message.
type Message struct {
	Role    MessageRole
	Content string
}

// Request represents a complete LLM API request.
type Request struct {
	Model       string
	System      string
	Messages    []Message
	MaxTokens   int64
	Temperature *float64 // Optional temperature override
}

// Response represents a complete LLM API response.
type Response struct {
	Content    string
	Model      string
	Usage      *Usage
	StopReason string
}

// Text returns the response text with surrounding whitespace removed.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(r.Content)
}

// Usage represents token usage information from an LLM response.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// NewTextMessage creates a message with text content.
func NewTextMessage(role MessageRole, text string) Message {
	return Message{Role: role, Content: text}
}

// PromptChars is the number of characters the request sends, counting
// the system prompt and every message.
func (r *Request) PromptChars() int {
	n := len(r.System)
	for _, m := range r.Messages {
		n += len(m.Content)
	}
	return n
}
