// Package llm provides a provider-neutral abstraction for single-shot text
// completions against Large Language Model APIs.
//
// # Core Concepts
//
//  1. Messages: a Message is one text turn with a user or assistant role.
//     System instructions travel in Request.System.
//
//  2. Client: the Client interface exposes Synchronous(). Provider packages
//     (anthropic, openai, ollama) implement it and translate their SDK
//     errors into *Error values.
//
//  3. Middleware: Middleware hooks decorate a Client without touching the
//     provider code. LoggingMiddleware records latency and token usage.
//
//  4. Registry: ProviderRegistry walks an ordered preference list and picks
//     the first provider whose settings are complete.
//
//  5. Retries: WithRetry wraps a Client and backs off on rate limits and
//     transient provider failures.
//
// Usage Example
//
//	client := llm.WrapWithMiddleware(baseClient, llm.LoggingMiddleware(logger))
//
//	resp, err := client.Synchronous(ctx, &llm.Request{
//	    Model:     "claude-haiku-4-5",
//	    System:    "You analyze journal entries.",
//	    Messages:  []llm.Message{llm.NewTextMessage(llm.RoleUser, "How did I sleep?")},
//	    MaxTokens: 1024,
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(resp.Text())
package llm
