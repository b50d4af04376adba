package saga

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/errors"
)

// RetryPolicy describes how faults raised by an activity are re-attempted.
// It never applies to structured failure results.
type RetryPolicy struct {
	InitialInterval time.Duration
	Multiplier      float64
	MaxInterval     time.Duration
	MaxAttempts     int
}

// DefaultRetryPolicy is 1 unit initial backoff doubling up to 10 units, 3 attempts total
func DefaultRetryPolicy(unit time.Duration) RetryPolicy {
	return RetryPolicy{
		InitialInterval: unit,
		Multiplier:      2.0,
		MaxInterval:     10 * unit,
		MaxAttempts:     3,
	}
}

// Validate checks the policy parameters
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return errors.New("max attempts must be at least 1")
	}
	if p.InitialInterval < 0 || p.MaxInterval < 0 {
		return errors.New("intervals must not be negative")
	}
	if p.Multiplier < 1 {
		return errors.New("multiplier must be at least 1")
	}
	if p.MaxInterval < p.InitialInterval {
		return errors.New("max interval must not be lower than initial interval")
	}
	return nil
}

// Delays returns the wait before each re-attempt, without jitter
func (p RetryPolicy) Delays() []time.Duration {
	if p.MaxAttempts <= 1 {
		return nil
	}
	b := p.backOff()
	delays := make([]time.Duration, 0, p.MaxAttempts-1)
	for i := 1; i < p.MaxAttempts; i++ {
		delays = append(delays, b.NextBackOff())
	}
	return delays
}

func (p RetryPolicy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.Multiplier = p.Multiplier
	b.MaxInterval = p.MaxInterval
	b.RandomizationFactor = 0
	b.Reset()
	return b
}

// Retryable is implemented by errors that know whether re-attempting can help
type Retryable interface {
	Retryable() bool
}

// IsRetryable reports whether err should be re-attempted. Errors that do not
// say otherwise are treated as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var r Retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

// Operation is a single attempt; attempt starts at 1
type Operation[T any] func(ctx context.Context, attempt int) (T, error)

// RetryNotify is called before waiting for the next attempt
type RetryNotify func(err error, attempt int, next time.Duration)

type attemptKey struct{}

// WithAttempt stores the attempt number in ctx
func WithAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, attemptKey{}, attempt)
}

// AttemptFromContext returns the attempt number, 1 when none is set
func AttemptFromContext(ctx context.Context) int {
	if attempt, ok := ctx.Value(attemptKey{}).(int); ok && attempt > 0 {
		return attempt
	}
	return 1
}

// Retry runs op under policy until it returns without error, returns a
// non-retryable error or the attempts are exhausted. The last error is
// returned unchanged in the latter two cases.
func Retry[T any](ctx context.Context, policy RetryPolicy, op Operation[T], notify RetryNotify) (T, error) {
	var zero T
	if err := policy.Validate(); err != nil {
		return zero, errors.Wrap(err, "invalid retry policy")
	}

	attempt := 0
	operation := func() (T, error) {
		attempt++
		res, err := op(WithAttempt(ctx, attempt), attempt)
		if err != nil && !IsRetryable(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(policy.backOff()),
		backoff.WithMaxTries(uint(policy.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
	}
	if notify != nil {
		opts = append(opts, backoff.WithNotify(func(err error, next time.Duration) {
			notify(err, attempt, next)
		}))
	}

	res, err := backoff.Retry(ctx, operation, opts...)
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	return res, err
}
