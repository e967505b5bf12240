// Package retry runs backend calls under a bounded exponential backoff.
// A policy decides which failures are retried; every other error ends the
// loop on the attempt that produced it.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	apperrors "github.com/spec-kit/support-dashboard/pkg/util/errorutil"
)

// Policy bounds a retry loop. MaxAttempts counts the first call.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      float64

	// Retryable selects the failures worth another attempt. Nil means
	// errorutil.IsRetryable: rate limited and transient failures.
	Retryable func(error) bool
}

// ReadPolicy is used by the query runner.
func ReadPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second}
}

// MutationPolicy is used by the mutation runner. Writes are retried less
// and only on transient failures; a 429 is surfaced like any other 4xx.
func MutationPolicy() Policy {
	return Policy{
		MaxAttempts: 2,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Retryable:   apperrors.IsTransient,
	}
}

// NotifyFunc observes a failed attempt before the next one is scheduled.
type NotifyFunc func(attempt int, err error, next time.Duration)

// Do calls op until it succeeds, fails with a non-retryable error, the
// attempt ceiling is reached or ctx is done. It returns the number of
// attempts made and the last error.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error, notify NotifyFunc) (int, error) {
	retryable := p.Retryable
	if retryable == nil {
		retryable = apperrors.IsRetryable
	}
	attempts := 0
	operation := func() error {
		attempts++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	var onRetry func(error, time.Duration)
	if notify != nil {
		onRetry = func(err error, next time.Duration) { notify(attempts, err, next) }
	}

	err := backoff.RetryNotify(operation, p.backOff(ctx), onRetry)
	return attempts, err
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.BaseDelay
	exp.MaxInterval = p.MaxDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = p.Jitter
	exp.MaxElapsedTime = 0
	exp.Reset()

	retries := 0
	if p.MaxAttempts > 1 {
		retries = p.MaxAttempts - 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}
