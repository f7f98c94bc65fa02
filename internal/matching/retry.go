package matching

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/tbourn/go-lostfound-backend/internal/repo"
)

// newWriteBackOff returns the schedule used between storage write attempts.
var newWriteBackOff = func() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 50 * time.Millisecond
	eb.MaxInterval = 2 * time.Second
	return eb
}

// retryWrite runs op up to attempts times. Duplicates and context errors
// are not retried.
func retryWrite(ctx context.Context, attempts int, op func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := op(ctx)
		switch {
		case err == nil:
			return struct{}{}, nil
		case errors.Is(err, repo.ErrDuplicate), ctx.Err() != nil:
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(newWriteBackOff()),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithMaxElapsedTime(0),
	)
	return err
}
