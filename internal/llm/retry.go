package llm

import (
	"context"
	"time"
)

// DefaultRetryDelay is the fixed pause before the single transient retry.
const DefaultRetryDelay = 2 * time.Second

// Compile-time check.
var _ Client = (*Retrying)(nil)

// Retrying wraps a Client with the pipeline's retry policy: exactly one
// retry on a transient network error, after a fixed delay, and zero retries
// on rate-limit, auth, or timeout failures. The fixed single-retry policy
// keeps per-task latency bounded and the schedule deterministic.
type Retrying struct {
	Client Client
	Delay  time.Duration
}

// NewRetrying wraps inner with the default retry delay.
func NewRetrying(inner Client) *Retrying {
	return &Retrying{Client: inner, Delay: DefaultRetryDelay}
}

func (r *Retrying) Complete(ctx context.Context, req Request) (string, error) {
	out, err := r.Client.Complete(ctx, req)
	if err == nil || KindOf(err) != KindTransient {
		return out, err
	}

	delay := r.Delay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}

	select {
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return "", wrap(KindTimeout, ctx.Err())
		}
		return "", wrap(KindOther, ctx.Err())
	case <-time.After(delay):
	}

	return r.Client.Complete(ctx, req)
}
