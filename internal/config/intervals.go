package config

import "time"

// Worker intervals
const (
	// PostgresBackupInterval defines how often registered tiles are saved to PostgreSQL
	PostgresBackupInterval = 60 * time.Second

	// DefaultCacheTTL defines how long a rendered tile feature stays in Redis
	DefaultCacheTTL = 24 * time.Hour
)

// Batching
const (
	// SaveBatchSize caps the rows sent to PostgreSQL per insert
	SaveBatchSize = 100
)
