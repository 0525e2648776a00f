package llm

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Client provides a provider-neutral interface for making LLM API calls.
// Implementations should handle provider-specific details internally.
type Client interface {
	// Synchronous sends a request and returns a complete response.
	Synchronous(ctx context.Context, req *Request) (*Response, error)
}

// Middleware provides hooks for decorating Client calls.
type Middleware interface {
	// BeforeRequest is called before making an API request.
	// It can modify the request or return an error to abort the request.
	BeforeRequest(ctx context.Context, req *Request) (*Request, error)

	// AfterResponse is called after receiving a response.
	// It can modify the response or return an error.
	AfterResponse(ctx context.Context, req *Request, resp *Response) (*Response, error)

	// OnError is called when an error occurs.
	// It can return a modified error or nil to use the original error.
	OnError(ctx context.Context, req *Request, err error) error
}

// MiddlewareFunc is a function type that implements Middleware.
type MiddlewareFunc struct {
	BeforeRequestFunc func(ctx context.Context, req *Request) (*Request, error)
	AfterResponseFunc func(ctx context.Context, req *Request, resp *Response) (*Response, error)
	OnErrorFunc       func(ctx context.Context, req *Request, err error) error
}

// BeforeRequest calls the BeforeRequestFunc if set.
func (f MiddlewareFunc) BeforeRequest(ctx context.Context, req *Request) (*Request, error) {
	if f.BeforeRequestFunc != nil {
		return f.BeforeRequestFunc(ctx, req)
	}
	return req, nil
}

// AfterResponse calls the AfterResponseFunc if set.
func (f MiddlewareFunc) AfterResponse(ctx context.Context, req *Request, resp *Response) (*Response, error) {
	if f.AfterResponseFunc != nil {
		return f.AfterResponseFunc(ctx, req, resp)
	}
	return resp, nil
}

// OnError calls the OnErrorFunc if set.
func (f MiddlewareFunc) OnError(ctx context.Context, req *Request, err error) error {
	if f.OnErrorFunc != nil {
		return f.OnErrorFunc(ctx, req, err)
	}
	return err
}

// WrapWithMiddleware wraps a Client with middleware and returns a new Client.
// BeforeRequest hooks run in order, AfterResponse hooks in reverse order.
func WrapWithMiddleware(client Client, middleware ...Middleware) Client {
	if len(middleware) == 0 {
		return client
	}
	return &clientWithMiddleware{
		client:     client,
		middleware: middleware,
	}
}

// clientWithMiddleware wraps a Client with middleware.
type clientWithMiddleware struct {
	client     Client
	middleware []Middleware
}

// Synchronous implements Client.Synchronous with middleware support.
func (c *clientWithMiddleware) Synchronous(ctx context.Context, req *Request) (*Response, error) {
	for _, mw := range c.middleware {
		var err error
		req, err = mw.BeforeRequest(ctx, req)
		if err != nil {
			return nil, err
		}
	}

	resp, err := c.client.Synchronous(ctx, req)
	if err != nil {
		original := err
		for _, mw := range c.middleware {
			if handled := mw.OnError(ctx, req, err); handled != nil {
				err = handled
			}
		}
		if err == nil {
			err = original
		}
		return nil, err
	}

	for i := len(c.middleware) - 1; i >= 0; i-- {
		resp, err = c.middleware[i].AfterResponse(ctx, req, resp)
		if err != nil {
			return nil, err
		}
	}

	return resp, nil
}

// LoggingMiddleware logs latency, prompt size and token usage of every call
// at debug level, and failures at warn level. Prompt text is never logged.
func LoggingMiddleware(logger zerolog.Logger) Middleware {
	lm := &loggingMiddleware{
		logger:  logger.With().Str("component", "llm").Logger(),
		started: make(map[*Request]time.Time),
	}
	return MiddlewareFunc{
		BeforeRequestFunc: lm.before,
		AfterResponseFunc: lm.after,
		OnErrorFunc:       lm.onError,
	}
}

type loggingMiddleware struct {
	logger  zerolog.Logger
	mu      sync.Mutex
	started map[*Request]time.Time
}

func (l *loggingMiddleware) before(_ context.Context, req *Request) (*Request, error) {
	l.mu.Lock()
	l.started[req] = time.Now()
	l.mu.Unlock()
	l.logger.Debug().
		Str("model", req.Model).
		Int("messages", len(req.Messages)).
		Int("prompt_chars", req.PromptChars()).
		Msg("LLM request")
	return req, nil
}

func (l *loggingMiddleware) elapsed(req *Request) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	start, ok := l.started[req]
	delete(l.started, req)
	if !ok {
		return 0
	}
	return time.Since(start)
}

func (l *loggingMiddleware) after(_ context.Context, req *Request, resp *Response) (*Response, error) {
	event := l.logger.Debug().
		Str("model", req.Model).
		Dur("latency", l.elapsed(req)).
		Str("stop_reason", resp.StopReason)
	if resp.Usage != nil {
		event = event.
			Int64("input_tokens", resp.Usage.InputTokens).
			Int64("output_tokens", resp.Usage.OutputTokens)
	}
	event.Msg("LLM response")
	return resp, nil
}

func (l *loggingMiddleware) onError(_ context.Context, req *Request, err error) error {
	l.logger.Warn().
		Err(err).
		Str("model", req.Model).
		Dur("latency", l.elapsed(req)).
		Msg("LLM request failed")
	return err
}

var _ Client = (*clientWithMiddleware)(nil)
