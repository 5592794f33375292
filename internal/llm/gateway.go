package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"hotelbot/internal/logger"
)

// ErrRetryExhausted is returned once the attempt budget is spent on
// transient failures.
var ErrRetryExhausted = errors.New("generation retries exhausted")

// Gateway wraps a Generator with the transient-failure retry envelope.
// Non-transient errors pass through unmodified on first occurrence.
type Gateway struct {
	backend Generator
	policy  RetryPolicy
}

func NewGateway(backend Generator, policy RetryPolicy) *Gateway {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Gateway{backend: backend, policy: policy}
}

// Generate runs the backend, retrying rate-limit style failures with
// exponential backoff until the policy's budget is spent.
func (g *Gateway) Generate(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
	var lastErr error
	for attempt := 0; attempt < g.policy.MaxAttempts; attempt++ {
		out, err := g.backend.Generate(ctx, messages)
		if err == nil {
			return out, nil
		}
		if !IsTransient(err) {
			return nil, err
		}
		lastErr = err

		delay, retry := g.policy.Backoff(attempt)
		if !retry {
			break
		}
		logger.Warn().
			Int("attempt", attempt).
			Dur("backoff", delay).
			Err(err).
			Msg("transient generation failure, backing off")
		if !sleepWithContext(ctx, delay) {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, g.policy.MaxAttempts, lastErr)
}
