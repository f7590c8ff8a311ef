package retry

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/tagindex/internal/errors"
	"git.home.luguber.info/inful/tagindex/internal/logfields"
)

// Do runs op, retrying transient failures according to the policy. The
// attempt ends immediately on success, a non-retryable error, or context
// cancellation. The last error is returned unchanged.
func Do(ctx context.Context, p Policy, op func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = op()
		if err == nil || !errors.IsRetryable(err) || attempt >= p.MaxRetries {
			return err
		}

		delay := p.Delay(attempt + 1)
		slog.Debug("Retrying after transient failure",
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			logfields.Error(err))

		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
	}
}
