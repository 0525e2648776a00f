package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aschepis/backscratcher/diary/llm"
	"github.com/ollama/ollama/api"
)

// OllamaClient implements the llm.Client interface for Ollama's API.
type OllamaClient struct {
	client *api.Client
	model  string // Default model to use if not specified in request
}

// NewOllamaClient creates a new OllamaClient.
// If host is empty, it will use the default from environment (OLLAMA_HOST or http://localhost:11434).
func NewOllamaClient(host, model string) (*OllamaClient, error) {
	var client *api.Client

	if host != "" {
		baseURL, err := parseHost(host)
		if err != nil {
			return nil, fmt.Errorf("invalid host: %w", err)
		}
		client = api.NewClient(baseURL, &http.Client{})
	} else {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
	}

	return &OllamaClient{
		client: client,
		model:  model,
	}, nil
}

// parseHost parses a host string into a URL.
func parseHost(host string) (*url.URL, error) {
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return url.Parse(host)
}

// Synchronous implements llm.Client.Synchronous.
func (c *OllamaClient) Synchronous(ctx context.Context, req *llm.Request) (*llm.Response, error) {
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

	chatReq := &api.ChatRequest{
		Model:    model,
		Messages: ToOllamaMessages(req.System, req.Messages),
		Stream:   new(bool), // false for non-streaming
		Options:  make(map[string]interface{}),
	}
	if req.MaxTokens > 0 {
		chatReq.Options["num_predict"] = int(req.MaxTokens)
	}
	if req.Temperature != nil {
		chatReq.Options["temperature"] = *req.Temperature
	}

	var chatResp api.ChatResponse
	err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		chatResp = resp
		return nil
	})
	if err != nil {
		return nil, convertOllamaError(err)
	}

	stopReason := chatResp.DoneReason
	if stopReason == "" && chatResp.Done {
		stopReason = "stop"
	}

	return &llm.Response{
		Content: chatResp.Message.Content,
		Model:   chatResp.Model,
		Usage: &llm.Usage{
			InputTokens:  int64(chatResp.PromptEvalCount),
			OutputTokens: int64(chatResp.EvalCount),
		},
		StopReason: stopReason,
	}, nil
}

var _ llm.Client = (*OllamaClient)(nil)
