package rewind

import (
	"context"
	"errors"
	"time"

	"github.com/petrijr/rewind/pkg/api"
)

// RetryPolicy controls how a command operation is retried when it returns
// an error. MaxAttempts includes the first attempt:
//
//	MaxAttempts = 1 => no retries (just the initial call)
//	MaxAttempts = 3 => initial call + up to 2 retries
//
// InitialBackoff is the delay before the first retry. Each following delay
// is multiplied by BackoffMultiplier and capped at MaxBackoff when that is
// positive.
type RetryPolicy struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// delay returns the sleep before retry number n (1-based).
func (p RetryPolicy) delay(n int) time.Duration {
	d := p.InitialBackoff
	if d <= 0 {
		return 0
	}
	mult := p.BackoffMultiplier
	if mult <= 0 {
		mult = 2.0
	}
	for i := 1; i < n; i++ {
		d = time.Duration(float64(d) * mult)
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// RetryBuilder provides a fluent way to construct RetryPolicy values
// for use with WithRetry.
type RetryBuilder struct {
	policy RetryPolicy
}

// Retry creates a RetryBuilder with the given maxAttempts.
//
// maxAttempts <= 0 is treated as 1 (no retries).
func Retry(maxAttempts int) RetryBuilder {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return RetryBuilder{
		policy: RetryPolicy{
			MaxAttempts: maxAttempts,
		},
	}
}

// WithExponentialBackoff configures exponential backoff:
//
//   - initial is the delay before the first retry.
//   - multiplier > 1 grows the delay each attempt (default 2.0 if <= 0).
//   - max caps the delay; if <= 0, there is no cap.
//
// Example:
//
//	Retry(3).WithExponentialBackoff(100*time.Millisecond, 2.0, 2*time.Second)
func (r RetryBuilder) WithExponentialBackoff(initial time.Duration, multiplier float64, max time.Duration) RetryBuilder {
	p := r.policy
	p.InitialBackoff = initial
	p.MaxBackoff = max
	if multiplier <= 0 {
		multiplier = 2.0
	}
	p.BackoffMultiplier = multiplier
	return RetryBuilder{policy: p}
}

// WithConstantBackoff configures a constant delay between retries.
func (r RetryBuilder) WithConstantBackoff(delay time.Duration) RetryBuilder {
	p := r.policy
	p.InitialBackoff = delay
	p.MaxBackoff = 0
	p.BackoffMultiplier = 1.0
	return RetryBuilder{policy: p}
}

// Immediate disables any sleep between retries.
// Retries will still respect MaxAttempts.
func (r RetryBuilder) Immediate() RetryBuilder {
	p := r.policy
	p.InitialBackoff = 0
	p.MaxBackoff = 0
	p.BackoffMultiplier = 0
	return RetryBuilder{policy: p}
}

// Policy returns the underlying RetryPolicy to be passed to WithRetry.
func (r RetryBuilder) Policy() RetryPolicy {
	return r.policy
}

// WithRetry wraps cmd so that its Operation and ReverseOperation are retried
// according to policy. Conflict checks are passed through unchanged and are
// not retried.
//
// Version mismatches from a RecordStore are not retried: the data changed
// underneath the command and retrying cannot fix that.
func WithRetry(cmd Command, policy RetryPolicy) Command {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	return &api.FuncCommand{
		Scope:        cmd.ScopeName(),
		Desc:         cmd.Description(),
		ReverseDesc:  cmd.ReverseDescription(),
		Do:           retrying(policy, cmd.Operation),
		Undo:         retrying(policy, cmd.ReverseOperation),
		UndoConflict: func(ctx context.Context) (bool, error) { return api.UndoConflict(ctx, cmd) },
		RedoConflict: func(ctx context.Context) (bool, error) { return api.RedoConflict(ctx, cmd) },
	}
}

func retrying(policy RetryPolicy, op OperationFunc) OperationFunc {
	return func(ctx context.Context) error {
		var lastErr error
		for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
			if attempt > 1 {
				if err := sleep(ctx, policy.delay(attempt-1)); err != nil {
					return errors.Join(lastErr, err)
				}
			}

			lastErr = op(ctx)
			if lastErr == nil || !retryable(lastErr) {
				return lastErr
			}
		}
		return lastErr
	}
}

func retryable(err error) bool {
	return !errors.Is(err, ErrVersionMismatch) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
