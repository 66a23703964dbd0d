package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/glutton4gainz/edge/internal/domain"
)

// RunPurger deletes expired revocations every interval until ctx is done.
// Failures are logged and retried on the next tick.
func RunPurger(ctx context.Context, svc domain.SessionService, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.PurgeExpired(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.ErrorContext(ctx, "purge expired revocations failed", slog.Any("error", err))
				continue
			}
			if n > 0 {
				logger.InfoContext(ctx, "purged expired revocations", slog.Int64("count", n))
			}
		}
	}
}
