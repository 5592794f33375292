package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedGenerator struct {
	calls   int
	results []error // nil means success on that call
	reply   string
}

func (s *scriptedGenerator) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	idx := s.calls
	s.calls++
	if idx < len(s.results) && s.results[idx] != nil {
		return nil, s.results[idx]
	}
	return schema.AssistantMessage(s.reply, nil), nil
}

func testPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Unit: time.Millisecond}
}

func TestGatewayRetriesTransientThenSucceeds(t *testing.T) {
	backend := &scriptedGenerator{
		results: []error{
			errors.New("429: rate_limit reached"),
			errors.New("429: RATE_LIMIT reached"),
			nil,
		},
		reply: "Welcome to the hotel desk.",
	}
	gw := NewGateway(backend, testPolicy())

	out, err := gw.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "Welcome to the hotel desk.", out.Content)
	assert.Equal(t, 3, backend.calls)
}

func TestGatewayPropagatesFatalImmediately(t *testing.T) {
	fatal := errors.New("model not found")
	backend := &scriptedGenerator{results: []error{fatal}}
	gw := NewGateway(backend, testPolicy())

	_, err := gw.Generate(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, fatal, err)
	assert.Equal(t, 1, backend.calls)
}

func TestGatewayExhaustsRetryBudget(t *testing.T) {
	transient := errors.New("rate_limit")
	backend := &scriptedGenerator{results: []error{transient, transient, transient}}
	gw := NewGateway(backend, testPolicy())

	_, err := gw.Generate(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetryExhausted)
	assert.Equal(t, 3, backend.calls)
}

func TestGatewayHonorsContextCancellation(t *testing.T) {
	backend := &scriptedGenerator{results: []error{errors.New("rate_limit")}}
	gw := NewGateway(backend, RetryPolicy{MaxAttempts: 3, Unit: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := gw.Generate(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, backend.calls)
}

func TestRetryPolicyBackoff(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, Unit: time.Second}

	delay, retry := policy.Backoff(0)
	assert.True(t, retry)
	assert.Equal(t, time.Second, delay)

	delay, retry = policy.Backoff(1)
	assert.True(t, retry)
	assert.Equal(t, 2*time.Second, delay)

	_, retry = policy.Backoff(2)
	assert.False(t, retry)

	_, retry = policy.Backoff(-1)
	assert.False(t, retry)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(errors.New("upstream Rate_Limit hit")))
	assert.False(t, IsTransient(errors.New("bad request")))
	assert.False(t, IsTransient(nil))
}
