package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StartAllWorkers initializes and starts all background workers. The
// returned channel is closed once every worker has stopped.
func StartAllWorkers(ctx context.Context, tiles Persister, persistInterval time.Duration) <-chan struct{} {
	zap.S().Info("Starting all workers...")

	persistDone := StartPersistenceWorker(ctx, tiles, persistInterval)

	zap.S().Info("All workers started")
	return persistDone
}
