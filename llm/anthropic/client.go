package anthropic

import (
	"context"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aschepis/backscratcher/diary/llm"
	"github.com/rs/zerolog"
)

// defaultMaxTokens applies when the request leaves MaxTokens unset; the
// Messages API requires one.
const defaultMaxTokens = 1024

// AnthropicClient implements the llm.Client interface for Anthropic's API.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
	logger zerolog.Logger
}

// NewAnthropicClient creates a new AnthropicClient with the given API key.
// model is used when a request does not name one.
func NewAnthropicClient(apiKey, model string, logger zerolog.Logger) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicClient{
		client: &client,
		model:  model,
		logger: logger.With().Str("component", "anthropic").Logger(),
	}, nil
}

// Synchronous implements llm.Client.Synchronous.
func (c *AnthropicClient) Synchronous(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  ToMessageParams(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, convertAnthropicError(err)
	}

	var text strings.Builder
	for _, blockUnion := range message.Content {
		if block, ok := blockUnion.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(block.Text)
		}
	}

	c.logger.Debug().
		Str("model", string(message.Model)).
		Int64("input_tokens", message.Usage.InputTokens).
		Int64("output_tokens", message.Usage.OutputTokens).
		Msg("Message completed")

	return &llm.Response{
		Content: text.String(),
		Model:   string(message.Model),
		Usage: &llm.Usage{
			InputTokens:  message.Usage.InputTokens,
			OutputTokens: message.Usage.OutputTokens,
		},
		StopReason: string(message.StopReason),
	}, nil
}

var _ llm.Client = (*AnthropicClient)(nil)
