package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper persists the expired status for overdue credentials.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// StartExpirySweeper runs sweeper every interval until ctx is cancelled. The
// returned channel closes once the loop has exited. A non-positive interval
// disables the loop.
func StartExpirySweeper(ctx context.Context, sweeper Sweeper, interval time.Duration, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if sweeper == nil || interval <= 0 {
		close(done)
		return done
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := sweeper.SweepExpired(ctx)
				if err != nil {
					logger.Warn("expiry sweep failed", zap.Error(err))
					continue
				}
				if n > 0 {
					logger.Info("expired credentials", zap.Int("count", n))
				}
			}
		}
	}()
	return done
}
