// Package conversations persists named dialogue threads, one store object
// per thread, and bounds how much of a thread is replayed to the model.
package conversations

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ThreadPrefix starts the object name of every thread.
const ThreadPrefix = "Thread_"

// UntitledThread replaces titles that sanitize to nothing.
const UntitledThread = "untitled"

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is one turn of a thread.
type Message struct {
	ID        string    `json:"id,omitempty"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Thread is a named conversation.
type Thread struct {
	Name     string    `json:"name"`
	Title    string    `json:"title,omitempty"`
	Messages []Message `json:"messages"`
}

// Handle addresses a persisted thread.
type Handle struct {
	Name string
	ID   string
}

// ObjectName returns the store name for a sanitized thread name.
func ObjectName(name string) string {
	return ThreadPrefix + name
}

var unsafeRun = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// SanitizeTitle turns a user supplied title into a store safe name: ASCII
// letters, digits and underscores, with every other run collapsed to one
// underscore.
func SanitizeTitle(title string) string {
	name := strings.Trim(unsafeRun.ReplaceAllString(title, "_"), "_")
	if name == "" {
		return UntitledThread
	}
	return name
}

// TrimToRecentWindow returns the last 2*pairs messages of thread in their
// original order.
func TrimToRecentWindow(thread *Thread, pairs int) []Message {
	if thread == nil || pairs <= 0 {
		return []Message{}
	}
	msgs := thread.Messages
	if n := 2 * pairs; len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// Encode serializes a thread for storage.
func Encode(thread *Thread) ([]byte, error) {
	t := *thread
	if t.Messages == nil {
		t.Messages = []Message{}
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode thread %s: %w", thread.Name, err)
	}
	return data, nil
}

// Decode parses a stored thread. A blank body is an empty thread and a bare
// JSON array is read as the message list.
func Decode(name string, data []byte) (*Thread, error) {
	thread := &Thread{Name: name, Messages: []Message{}}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return thread, nil
	}

	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &thread.Messages); err != nil {
			return nil, fmt.Errorf("decode thread %s: %w", name, err)
		}
	} else if err := json.Unmarshal(trimmed, thread); err != nil {
		return nil, fmt.Errorf("decode thread %s: %w", name, err)
	}

	for i, msg := range thread.Messages {
		if !msg.Role.Valid() {
			return nil, fmt.Errorf("decode thread %s: message %d has unknown role %q", name, i, msg.Role)
		}
	}
	if thread.Messages == nil {
		thread.Messages = []Message{}
	}
	thread.Name = name
	return thread, nil
}
