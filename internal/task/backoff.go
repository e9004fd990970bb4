package task

import (
	"math/rand"
	"time"
)

// RetryPolicy controls how many times a failed task is retried and how
// long to wait between attempts.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the exponential growth of the delay.
	MaxDelay time.Duration
}

// DefaultRetryPolicy mirrors the production defaults: two retries with
// a one minute base delay capped at five minutes.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 2,
		BaseDelay:  time.Minute,
		MaxDelay:   5 * time.Minute,
	}
}

// Bound returns the upper bound on the delay for the given retry,
// doubling the base delay per attempt up to MaxDelay. retryCount is
// zero-based: the first retry uses BaseDelay.
func (p RetryPolicy) Bound(retryCount int) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}
	d := p.BaseDelay
	for i := 0; i < retryCount; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Delay returns the jittered delay before the given retry. The delay is
// drawn uniformly from (0, Bound] so that simultaneous failures do not
// retry in lockstep.
func (p RetryPolicy) Delay(retryCount int) time.Duration {
	bound := p.Bound(retryCount)
	if bound <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(bound))) + 1
}
