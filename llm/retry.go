package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const (
	// DefaultMaxRetries is how often a retryable failure is retried.
	DefaultMaxRetries = 3
	// DefaultInitialDelay is the first backoff interval when the provider
	// gives no retry-after hint.
	DefaultInitialDelay = 1 * time.Second
	// DefaultMaxInterval caps a single backoff interval.
	DefaultMaxInterval = 30 * time.Second
	// RetryAfterMultiplier grows intervals seeded from a retry-after hint.
	RetryAfterMultiplier = 1.5
	// StandardMultiplier grows intervals without a hint.
	StandardMultiplier = 2.0
)

// RetryPolicy configures WithRetry.
type RetryPolicy struct {
	MaxRetries   uint64
	InitialDelay time.Duration
	MaxInterval  time.Duration
}

// DefaultRetryPolicy returns the stock retry settings.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   DefaultMaxRetries,
		InitialDelay: DefaultInitialDelay,
		MaxInterval:  DefaultMaxInterval,
	}
}

// WithRetry retries calls that fail with a retryable *Error (rate limits,
// provider and network failures) using exponential backoff. A retry-after
// hint on the first failure seeds the initial interval. Zero MaxRetries
// returns client unchanged.
func WithRetry(client Client, policy RetryPolicy, logger zerolog.Logger) Client {
	if policy.MaxRetries == 0 {
		return client
	}
	return &retryClient{
		client: client,
		policy: policy,
		logger: logger.With().Str("component", "llmRetry").Logger(),
	}
}

type retryClient struct {
	client Client
	policy RetryPolicy
	logger zerolog.Logger
}

func (c *retryClient) newBackoff(retryAfter *time.Duration) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	if retryAfter != nil && *retryAfter > 0 {
		eb.InitialInterval = *retryAfter
		eb.Multiplier = RetryAfterMultiplier
		eb.RandomizationFactor = 0.1
	} else {
		eb.InitialInterval = c.policy.InitialDelay
		eb.Multiplier = StandardMultiplier
		eb.RandomizationFactor = 0.2
	}
	if c.policy.MaxInterval > 0 {
		eb.MaxInterval = c.policy.MaxInterval
	}
	eb.MaxElapsedTime = 0
	eb.Reset()
	return backoff.WithMaxRetries(eb, c.policy.MaxRetries)
}

// Synchronous implements Client.
func (c *retryClient) Synchronous(ctx context.Context, req *Request) (*Response, error) {
	resp, err := c.client.Synchronous(ctx, req)
	if err == nil || !retryable(err) {
		return resp, err
	}

	b := c.newBackoff(ExtractRetryAfter(err))
	for attempt := 1; ; attempt++ {
		next := b.NextBackOff()
		if next == backoff.Stop {
			c.logger.Error().Err(err).Uint64("max_retries", c.policy.MaxRetries).Msg("Giving up on model call")
			return nil, err
		}
		c.logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", next).Msg("Model call failed, retrying")

		timer := time.NewTimer(next)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, err
		case <-timer.C:
		}

		resp, err = c.client.Synchronous(ctx, req)
		if err == nil || !retryable(err) {
			return resp, err
		}
	}
}

// retryable excludes oversized requests, which fail the same way again.
func retryable(err error) bool {
	return IsRetryableError(err) && !IsRequestTooLargeError(err)
}
