package ollama

import (
	"net/http"
	"testing"

	"github.com/aschepis/backscratcher/diary/llm"
	"github.com/ollama/ollama/api"
)

func TestToOllamaMessages(t *testing.T) {
	msgs := ToOllamaMessages("sys", []llm.Message{llm.NewTextMessage(llm.RoleAssistant, "a")})
	if len(msgs) != 2 || msgs[0].Role != "system" || msgs[1].Role != "assistant" {
		t.Errorf("Unexpected messages %+v", msgs)
	}
}

func TestConvertOllamaError(t *testing.T) {
	err := convertOllamaError(api.StatusError{StatusCode: http.StatusNotFound, ErrorMessage: "model not found"})
	var llmErr *llm.Error
	if !asLLMError(err, &llmErr) || llmErr.Type != llm.ErrorTypeInvalidRequest || llmErr.StatusCode != http.StatusNotFound {
		t.Errorf("Expected invalid request error with status 404, got %v", err)
	}
}

func asLLMError(err error, target **llm.Error) bool {
	e, ok := err.(*llm.Error)
	if ok {
		*target = e
	}
	return ok
}

func TestParseHost(t *testing.T) {
	u, err := parseHost("localhost:11434")
	if err != nil {
		t.Fatalf("parseHost failed: %v", err)
	}
	if u.String() != "http://localhost:11434" {
		t.Errorf("Expected scheme to be added, got %s", u.String())
	}
}
