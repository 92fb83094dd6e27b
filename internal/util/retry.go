package util

import (
	"context"
	"time"
)

// Retry runs fn until it succeeds or maxAttempts calls have failed, doubling
// the wait between calls starting from baseDelay. The error from the final
// attempt is returned when every call fails. Cancelling the context aborts
// the wait and returns ctx.Err().
func Retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var err error
	for left := maxAttempts; left > 0; left-- {
		if err = fn(); err == nil {
			return nil
		}
		if left == 1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(baseDelay):
		}
		baseDelay *= 2
	}
	return err
}
