package alerting

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Retrier wraps a Notifier with a fixed attempt count and a fixed delay
// between attempts. It returns the last error when every attempt fails.
type Retrier struct {
	inner    Notifier
	attempts int
	delay    time.Duration
	logger   zerolog.Logger
}

// NewRetrier builds a retrying notifier. Attempts below one are coerced to one.
func NewRetrier(inner Notifier, attempts int, delay time.Duration, logger zerolog.Logger) *Retrier {
	if attempts < 1 {
		attempts = 1
	}
	return &Retrier{
		inner:    inner,
		attempts: attempts,
		delay:    delay,
		logger:   logger.With().Str("component", "notify_retrier").Logger(),
	}
}

// Notify attempts delivery until one attempt succeeds or attempts run out.
func (r *Retrier) Notify(ctx context.Context, msg Message) error {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = r.inner.Notify(ctx, msg)
		if lastErr == nil {
			return nil
		}
		r.logger.Warn().Err(lastErr).Int("attempt", attempt).Int("max_attempts", r.attempts).
			Msg("notification attempt failed")

		if attempt < r.attempts && r.delay > 0 {
			timer := time.NewTimer(r.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return fmt.Errorf("all %d notification attempts failed: %w", r.attempts, lastErr)
}

var _ Notifier = (*Retrier)(nil)
