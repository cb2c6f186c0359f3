package service

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/rl1809/marketplace/internal/core/domain"
)

// retryStorage runs fn up to attempts times, retrying only when the store
// reported itself unavailable. The last error is returned as is.
func retryStorage(ctx context.Context, attempts int, base time.Duration, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(base))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if errors.Is(err, domain.ErrStorageUnavailable) {
			return retry.RetryableError(err)
		}
		return err
	})
}
