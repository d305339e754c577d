package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const finalFlushTimeout = 10 * time.Second

// Persister flushes modified tiles to durable storage.
type Persister interface {
	PersistDirty(ctx context.Context) (int, error)
}

// StartPersistenceWorker saves dirty tiles every interval until ctx is
// cancelled, then flushes once more. The returned channel is closed after
// the final flush.
func StartPersistenceWorker(ctx context.Context, p Persister, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	ticker := time.NewTicker(interval)

	go func() {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				persist(ctx, p)
			case <-ctx.Done():
				flushCtx, cancel := context.WithTimeout(context.Background(), finalFlushTimeout)
				persist(flushCtx, p)
				cancel()
				zap.S().Info("Persistence worker stopped")
				return
			}
		}
	}()

	zap.S().Infof("Persistence worker started with interval: %v", interval)
	return done
}

func persist(ctx context.Context, p Persister) {
	n, err := p.PersistDirty(ctx)
	if err != nil {
		zap.S().Errorf("Error saving tiles to PostgreSQL: %v", err)
		return
	}
	if n > 0 {
		zap.S().Debugf("Persistence worker saved %d tiles", n)
	}
}
