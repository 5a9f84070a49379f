package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/saathi-inc/saathi/internal/domain/quota"
	"github.com/saathi-inc/saathi/internal/shared/logger"
)

// RetryConfig bounds the retries of an operation that lost a concurrent update.
type RetryConfig struct {
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryConfig returns 3 attempts starting at 20ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     3,
		InitialInterval: 20 * time.Millisecond,
		MaxInterval:     200 * time.Millisecond,
	}
}

func (c RetryConfig) withDefaults() RetryConfig {
	d := DefaultRetryConfig()
	if c.MaxAttempts == 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = d.InitialInterval
	}
	if c.MaxInterval < c.InitialInterval {
		c.MaxInterval = max(d.MaxInterval, c.InitialInterval)
	}
	return c
}

// retryOnConflict runs op until it succeeds, fails with anything other than
// quota.ErrConcurrentUpdateConflict, or exhausts cfg.MaxAttempts.
func retryOnConflict[T any](
	ctx context.Context,
	cfg RetryConfig,
	metrics MetricsRecorder,
	log logger.Interface,
	operation string,
	op func(attempt uint) (T, error),
) (T, error) {
	cfg = cfg.withDefaults()

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = cfg.InitialInterval
	expBackoff.MaxInterval = cfg.MaxInterval
	expBackoff.Reset()

	var attempt uint
	return backoff.Retry(ctx, func() (T, error) {
		attempt++
		result, err := op(attempt)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, quota.ErrConcurrentUpdateConflict) {
			return result, backoff.Permanent(err)
		}
		return result, err
	},
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(cfg.MaxAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			metrics.RecordConflictRetry(operation)
			log.Debugw("retrying after concurrent update",
				"operation", operation,
				"attempt", attempt,
				"next_backoff", next,
			)
		}),
	)
}
