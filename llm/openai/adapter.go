package openai

import (
	"errors"

	"github.com/aschepis/backscratcher/diary/llm"
	openai "github.com/sashabaranov/go-openai"
)

// ToOpenAIMessages converts llm.Messages to chat messages, prepending the
// system prompt when set.
func ToOpenAIMessages(system string, msgs []llm.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(msgs)+1)
	if system != "" {
		result = append(result, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, msg := range msgs {
		result = append(result, ToOpenAIMessage(msg))
	}
	return result
}

// ToOpenAIMessage converts a single llm.Message to OpenAI format.
func ToOpenAIMessage(msg llm.Message) openai.ChatCompletionMessage {
	role := openai.ChatMessageRoleUser
	if msg.Role == llm.RoleAssistant {
		role = openai.ChatMessageRoleAssistant
	}
	return openai.ChatCompletionMessage{Role: role, Content: msg.Content}
}

// convertOpenAIError converts OpenAI API errors to llm.Error types.
func convertOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return llm.FromStatus("openai", apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return llm.FromStatus("openai", reqErr.HTTPStatusCode, err)
	}
	return llm.FromTransport("openai", err)
}
