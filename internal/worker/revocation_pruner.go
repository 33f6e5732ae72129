package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ExpiredRevocationPruner removes revocation entries whose token has expired.
type ExpiredRevocationPruner interface {
	PruneExpired(ctx context.Context, now time.Time) (int64, error)
}

// StartRevocationPruner prunes on every tick until ctx is cancelled. The returned
// channel closes once the loop has exited.
func StartRevocationPruner(ctx context.Context, pruner ExpiredRevocationPruner, interval time.Duration, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if pruner == nil || interval <= 0 {
		close(done)
		return done
	}
	logger = logger.Named("revocation_pruner")

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				pruneOnce(ctx, pruner, now, logger)
			}
		}
	}()
	return done
}

func pruneOnce(ctx context.Context, pruner ExpiredRevocationPruner, now time.Time, logger *zap.Logger) {
	removed, err := pruner.PruneExpired(ctx, now)
	if err != nil {
		logger.Warn("prune expired revocations", zap.Error(err))
		return
	}
	if removed > 0 {
		logger.Info("pruned expired revocations", zap.Int64("removed", removed))
	}
}
