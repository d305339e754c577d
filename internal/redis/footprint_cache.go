package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// FootprintKeyPrefix prefixes cached GeoJSON footprint features.
const FootprintKeyPrefix = "footprint"

const opTimeout = 5 * time.Second

// FootprintCache keeps encoded footprint features keyed by tile id.
type FootprintCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFootprintCache creates a cache; a zero ttl keeps entries forever.
func NewFootprintCache(client *redis.Client, ttl time.Duration) *FootprintCache {
	return &FootprintCache{client: client, ttl: ttl}
}

// FootprintKey returns the redis key of a tile's cached feature.
func FootprintKey(tileID string) string {
	return fmt.Sprintf("%s:%s", FootprintKeyPrefix, tileID)
}

// Get returns the cached feature. A miss is reported with ok == false and a
// nil error.
func (c *FootprintCache) Get(ctx context.Context, tileID string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	data, err := c.client.Get(ctx, FootprintKey(tileID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "get cached footprint %s", tileID)
	}
	return data, true, nil
}

// Set stores the encoded feature for a tile.
func (c *FootprintCache) Set(ctx context.Context, tileID string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := c.client.Set(ctx, FootprintKey(tileID), data, c.ttl).Err()
	return errors.Wrapf(err, "cache footprint %s", tileID)
}

// Invalidate drops cached features for the given tiles in one pipeline.
func (c *FootprintCache) Invalidate(ctx context.Context, tileIDs ...string) error {
	if len(tileIDs) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	pipe := c.client.Pipeline()
	for _, id := range tileIDs {
		pipe.Del(ctx, FootprintKey(id))
	}
	_, err := pipe.Exec(ctx)
	return errors.Wrap(err, "invalidate cached footprints")
}
