package openai

import (
	"errors"
	"net/http"
	"testing"

	"github.com/aschepis/backscratcher/diary/llm"
	openai "github.com/sashabaranov/go-openai"
)

func TestToOpenAIMessages(t *testing.T) {
	msgs := ToOpenAIMessages("be brief", []llm.Message{
		llm.NewTextMessage(llm.RoleUser, "hi"),
		llm.NewTextMessage(llm.RoleAssistant, "hello"),
	})
	if len(msgs) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Role != openai.ChatMessageRoleSystem || msgs[0].Content != "be brief" {
		t.Errorf("Expected system message first, got %+v", msgs[0])
	}
	if msgs[2].Role != openai.ChatMessageRoleAssistant {
		t.Errorf("Expected assistant role, got %s", msgs[2].Role)
	}

	if got := ToOpenAIMessages("", nil); len(got) != 0 {
		t.Errorf("Expected no messages, got %d", len(got))
	}
}

func TestConvertOpenAIError(t *testing.T) {
	err := convertOpenAIError(&openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "slow down"})
	if !llm.IsRateLimitError(err) {
		t.Errorf("Expected rate limit error, got %v", err)
	}

	err = convertOpenAIError(errors.New("dial tcp: connection refused"))
	var llmErr *llm.Error
	if !errors.As(err, &llmErr) || llmErr.Type != llm.ErrorTypeNetwork {
		t.Errorf("Expected network error, got %v", err)
	}
}
