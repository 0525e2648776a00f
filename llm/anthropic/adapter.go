package anthropic

import (
	"errors"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/aschepis/backscratcher/diary/llm"
	"github.com/samber/lo"
)

// ToMessageParam converts an llm.Message to an Anthropic MessageParam.
func ToMessageParam(msg llm.Message) anthropic.MessageParam {
	block := anthropic.NewTextBlock(msg.Content)
	if msg.Role == llm.RoleAssistant {
		return anthropic.NewAssistantMessage(block)
	}
	return anthropic.NewUserMessage(block)
}

// ToMessageParams converts a slice of llm.Messages.
func ToMessageParams(msgs []llm.Message) []anthropic.MessageParam {
	return lo.Map(msgs, func(msg llm.Message, _ int) anthropic.MessageParam {
		return ToMessageParam(msg)
	})
}

// convertAnthropicError converts Anthropic API errors to llm.Error types.
func convertAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return llm.FromStatus("anthropic", apiErr.StatusCode, err)
	}
	return llm.FromTransport("anthropic", err)
}
