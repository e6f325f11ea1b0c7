package api

import (
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy bounds the transient-failure policy: up to MaxRetries replays
// with linear backoff, the Nth wait being BaseDelay * N.
type RetryPolicy struct {
	MaxRetries uint64
	BaseDelay  time.Duration
}

// DefaultRetryPolicy matches the product defaults: three replays, 1s base.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, BaseDelay: time.Second}
}

// backoff builds the linear schedule for one request. The closure owns the
// request's attempt counter, so the schedule never resets mid-flight.
func (p RetryPolicy) backoff() retry.Backoff {
	var attempt uint64
	b := retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		return p.BaseDelay * time.Duration(attempt), false
	})
	return retry.WithMaxRetries(p.MaxRetries, b)
}
