package openai

import (
	"context"
	"fmt"

	"github.com/aschepis/backscratcher/diary/llm"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient implements the llm.Client interface for OpenAI's API and
// any compatible endpoint.
type OpenAIClient struct {
	client *openai.Client
	model  string // Default model to use if not specified in request
}

// NewOpenAIClient creates a new OpenAIClient.
// If baseURL is empty, it will use the default OpenAI API endpoint.
func NewOpenAIClient(apiKey, baseURL, model, organization string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if organization != "" {
		config.OrgID = organization
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}, nil
}

// Synchronous implements llm.Client.Synchronous.
func (c *OpenAIClient) Synchronous(ctx context.Context, req *llm.Request) (*llm.Response, error) {
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

	chatReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: ToOpenAIMessages(req.System, req.Messages),
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = int(req.MaxTokens)
	}
	if req.Temperature != nil {
		chatReq.Temperature = float32(*req.Temperature)
	}

	chatResp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, convertOpenAIError(err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, llm.NewProviderError("OpenAI returned no choices", nil)
	}

	choice := chatResp.Choices[0]
	return &llm.Response{
		Content: choice.Message.Content,
		Model:   chatResp.Model,
		Usage: &llm.Usage{
			InputTokens:  int64(chatResp.Usage.PromptTokens),
			OutputTokens: int64(chatResp.Usage.CompletionTokens),
		},
		StopReason: string(choice.FinishReason),
	}, nil
}

var _ llm.Client = (*OpenAIClient)(nil)
