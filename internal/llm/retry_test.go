package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClient returns queued responses in order.
type scriptedClient struct {
	calls int
	queue []func() (string, error)
}

func (s *scriptedClient) Complete(ctx context.Context, req Request) (string, error) {
	i := s.calls
	s.calls++
	if i >= len(s.queue) {
		return "", errors.New("script exhausted")
	}
	return s.queue[i]()
}

func TestRetrying_OneRetryOnTransient(t *testing.T) {
	inner := &scriptedClient{queue: []func() (string, error){
		func() (string, error) { return "", wrap(KindTransient, errors.New("connection reset")) },
		func() (string, error) { return "ok", nil },
	}}
	r := &Retrying{Client: inner, Delay: time.Millisecond}

	out, err := r.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 2, inner.calls)
}

func TestRetrying_SecondTransientFailureSticks(t *testing.T) {
	inner := &scriptedClient{queue: []func() (string, error){
		func() (string, error) { return "", wrap(KindTransient, errors.New("reset")) },
		func() (string, error) { return "", wrap(KindTransient, errors.New("reset again")) },
	}}
	r := &Retrying{Client: inner, Delay: time.Millisecond}

	_, err := r.Complete(context.Background(), Request{})
	require.Error(t, err)
	assert.Equal(t, KindTransient, KindOf(err))
	// Exactly one retry, never a third attempt.
	assert.Equal(t, 2, inner.calls)
}

func TestRetrying_NoRetryOnRateLimitOrAuth(t *testing.T) {
	for _, kind := range []Kind{KindRateLimit, KindAuth, KindTimeout} {
		t.Run(kind.String(), func(t *testing.T) {
			inner := &scriptedClient{queue: []func() (string, error){
				func() (string, error) { return "", wrap(kind, errors.New("boom")) },
			}}
			r := &Retrying{Client: inner, Delay: time.Millisecond}

			_, err := r.Complete(context.Background(), Request{})
			require.Error(t, err)
			assert.Equal(t, kind, KindOf(err))
			assert.Equal(t, 1, inner.calls)
		})
	}
}

func TestRetrying_ContextCanceledDuringDelay(t *testing.T) {
	inner := &scriptedClient{queue: []func() (string, error){
		func() (string, error) { return "", wrap(KindTransient, errors.New("reset")) },
	}}
	r := &Retrying{Client: inner, Delay: time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Complete(ctx, Request{})
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindAuth, KindOf(wrap(KindAuth, errors.New("401"))))
	assert.Equal(t, KindTimeout, KindOf(context.DeadlineExceeded))
	assert.Equal(t, KindOther, KindOf(errors.New("plain")))
	assert.Equal(t, KindOther, KindOf(nil))

	// Wrapped classified errors survive additional wrapping.
	err := wrap(KindRateLimit, errors.New("429"))
	assert.Equal(t, KindRateLimit, KindOf(err))
}
