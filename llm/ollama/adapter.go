package ollama

import (
	"errors"

	"github.com/aschepis/backscratcher/diary/llm"
	"github.com/ollama/ollama/api"
)

// ToOllamaMessages converts llm.Messages to Ollama chat messages, prepending
// the system prompt when set.
func ToOllamaMessages(system string, msgs []llm.Message) []api.Message {
	result := make([]api.Message, 0, len(msgs)+1)
	if system != "" {
		result = append(result, api.Message{Role: "system", Content: system})
	}
	for _, msg := range msgs {
		result = append(result, ToOllamaMessage(msg))
	}
	return result
}

// ToOllamaMessage converts a single llm.Message.
func ToOllamaMessage(msg llm.Message) api.Message {
	role := "user"
	if msg.Role == llm.RoleAssistant {
		role = "assistant"
	}
	return api.Message{Role: role, Content: msg.Content}
}

// convertOllamaError converts Ollama client errors to llm.Error types.
func convertOllamaError(err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return llm.FromStatus("ollama", statusErr.StatusCode, err)
	}
	return llm.FromTransport("ollama", err)
}
