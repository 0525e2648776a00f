package llm

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type stubClient struct {
	resp *Response
	err  error
	seen *Request
}

func (s *stubClient) Synchronous(_ context.Context, req *Request) (*Response, error) {
	s.seen = req
	return s.resp, s.err
}

func TestWrapWithMiddlewareOrder(t *testing.T) {
	var calls []string
	mw := func(name string) Middleware {
		return MiddlewareFunc{
			BeforeRequestFunc: func(_ context.Context, req *Request) (*Request, error) {
				calls = append(calls, "before-"+name)
				return req, nil
			},
			AfterResponseFunc: func(_ context.Context, _ *Request, resp *Response) (*Response, error) {
				calls = append(calls, "after-"+name)
				return resp, nil
			},
		}
	}
	stub := &stubClient{resp: &Response{Content: "ok"}}
	client := WrapWithMiddleware(stub, mw("a"), mw("b"))

	if _, err := client.Synchronous(context.Background(), &Request{}); err != nil {
		t.Fatalf("Synchronous failed: %v", err)
	}
	want := "before-a,before-b,after-b,after-a"
	if got := strings.Join(calls, ","); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestWrapWithMiddlewareBeforeRequestAborts(t *testing.T) {
	stub := &stubClient{resp: &Response{}}
	abort := errors.New("abort")
	client := WrapWithMiddleware(stub, MiddlewareFunc{
		BeforeRequestFunc: func(context.Context, *Request) (*Request, error) { return nil, abort },
	})
	if _, err := client.Synchronous(context.Background(), &Request{}); !errors.Is(err, abort) {
		t.Errorf("Expected abort error, got %v", err)
	}
	if stub.seen != nil {
		t.Error("Expected the wrapped client not to be called")
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	stub := &stubClient{resp: &Response{Content: "fine", Usage: &Usage{InputTokens: 12, OutputTokens: 3}}}
	client := WrapWithMiddleware(stub, LoggingMiddleware(logger))
	if _, err := client.Synchronous(context.Background(), &Request{Model: "m", System: "secret prompt"}); err != nil {
		t.Fatalf("Synchronous failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"input_tokens":12`) || !strings.Contains(out, `"component":"llm"`) {
		t.Errorf("Expected usage in log output, got %s", out)
	}
	if strings.Contains(out, "secret prompt") {
		t.Error("Expected prompt text to stay out of the log")
	}

	buf.Reset()
	failing := &stubClient{err: NewProviderError("quota exhausted", nil)}
	client = WrapWithMiddleware(failing, LoggingMiddleware(logger))
	_, err := client.Synchronous(context.Background(), &Request{Model: "m"})
	if err == nil || err.Error() != "quota exhausted" {
		t.Errorf("Expected provider error to pass through, got %v", err)
	}
	if !strings.Contains(buf.String(), "LLM request failed") {
		t.Errorf("Expected failure to be logged, got %s", buf.String())
	}
}
