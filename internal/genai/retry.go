package genai

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// ErrRetryBudget is returned when the next backoff would outlive the
// context deadline. It wraps the last provider error.
var ErrRetryBudget = errors.New("not enough time left to retry")

// Backoff returns the wait before retry number attempt (1-based) using full
// jitter: a uniform draw from [0, min(MaxDelay, InitialDelay*2^(attempt-1))).
func (c RetryConfig) Backoff(attempt int) time.Duration {
	if attempt <= 0 || c.InitialDelay <= 0 {
		return 0
	}

	ceiling := c.InitialDelay
	for i := 1; i < attempt && (c.MaxDelay <= 0 || ceiling < c.MaxDelay); i++ {
		ceiling *= 2
	}
	if c.MaxDelay > 0 {
		ceiling = min(ceiling, c.MaxDelay)
	}
	return rand.N(ceiling)
}

// Retry runs fn until it succeeds or returns an error ClassifyError does not
// mark as transient. fn receives the 1-based attempt number. The wait between
// attempts is the larger of the jittered backoff and any Retry-After the
// provider sent, and Retry gives up early with ErrRetryBudget when that wait
// would run past the context deadline.
func Retry(ctx context.Context, cfg RetryConfig, fn func(attempt int) error) error {
	attempts := max(cfg.MaxAttempts, 1)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err = fn(attempt); err == nil {
			return nil
		}
		if attempt == attempts || ClassifyError(err) != ActionRetry {
			return err
		}

		wait := max(cfg.Backoff(attempt), retryAfter(err))
		if !hasBudget(ctx, wait) {
			return fmt.Errorf("%w: %w", ErrRetryBudget, err)
		}
		if sleepErr := sleep(ctx, wait); sleepErr != nil {
			return sleepErr
		}
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// hasBudget reports whether ctx leaves at least d before its deadline.
func hasBudget(ctx context.Context, d time.Duration) bool {
	deadline, ok := ctx.Deadline()
	return !ok || time.Until(deadline) >= d
}
