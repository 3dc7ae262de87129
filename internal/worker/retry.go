package worker

import (
	"context"
	"math"
	"time"
)

// RetryPolicy defines exponential backoff parameters.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

func (r RetryPolicy) withDefaults() RetryPolicy {
	if r.MaxRetries <= 0 {
		r.MaxRetries = 5
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = 200 * time.Millisecond
	}
	if r.MaxDelay <= 0 {
		r.MaxDelay = 5 * time.Second
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = 2
	}
	return r
}

// NextDelay returns delay for a given attempt (1-based) with clamping.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	r = r.withDefaults()

	d := time.Duration(float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1)))
	if d > r.MaxDelay || d <= 0 {
		d = r.MaxDelay
	}
	return d
}

// wait sleeps for the attempt's delay or until ctx is done.
func (r RetryPolicy) wait(ctx context.Context, attempt int) error {
	t := time.NewTimer(r.NextDelay(attempt))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
