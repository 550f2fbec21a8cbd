package rate

import (
	"cbrrates/internal/domain"
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 10 * time.Second
)

// RetryPolicy retries an operation a bounded number of times with a fixed delay in between.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	// Retryable reports whether a failed attempt is worth repeating. Defaults to IsRetryable.
	Retryable func(error) bool

	sleep func(ctx context.Context, d time.Duration) error
}

// Do runs op until it succeeds, returns a non-retryable error or attempts run out.
// It returns the number of attempts made. There is no wait after the last attempt.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) (int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = op(ctx, attempt); err == nil {
			return attempt, nil
		}
		if !retryable(err) {
			return attempt, err
		}
		if attempt == maxAttempts {
			break
		}
		if sleepErr := sleep(ctx, p.Delay); sleepErr != nil {
			return attempt, sleepErr
		}
	}
	return maxAttempts, fmt.Errorf("failed after %d attempts: %w", maxAttempts, err)
}

// IsRetryable treats transport failures and non-200 responses as transient.
func IsRetryable(err error) bool {
	return errors.Is(err, domain.ErrTransport) || errors.Is(err, domain.ErrNonSuccessStatus)
}

func NewRetryPolicy(maxAttempts int, delay time.Duration) RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if delay < 0 {
		delay = DefaultRetryDelay
	}
	return RetryPolicy{MaxAttempts: maxAttempts, Delay: delay}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
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
