package repository

import (
	"context"
	"time"

	"github.com/harmoni/harmoniconnect/internal/apperr"
)

// ReadBackoff is the base delay between read attempts; attempt n waits n*ReadBackoff.
var ReadBackoff = 50 * time.Millisecond

// RetryRead runs an idempotent read up to attempts times while it fails with
// a transient store error. It never waits past ctx. Writes must not use it.
func RetryRead[T any](ctx context.Context, attempts int, read func(context.Context) (T, error)) (T, error) {
	var zero T
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 1; ; i++ {
		var v T
		v, err = read(ctx)
		if err == nil {
			return v, nil
		}
		if !apperr.Retryable(err) || i >= attempts {
			return zero, err
		}

		t := time.NewTimer(time.Duration(i) * ReadBackoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return zero, err
		case <-t.C:
		}
	}
}
