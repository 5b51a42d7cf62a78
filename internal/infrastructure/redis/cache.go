package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rafaelduarte/charges/internal/infrastructure/observability"
	"github.com/rafaelduarte/charges/internal/service"
	"github.com/redis/go-redis/v9"
)

// ProjectionCache implements the service Cache port over plain Redis
// strings. Keys follow the "<entity>:<id>" scheme; the entity prefix
// doubles as the metrics label.
type ProjectionCache struct {
	client  *redis.Client
	metrics *observability.Metrics
}

// NewProjectionCache creates a new ProjectionCache. metrics may be nil.
func NewProjectionCache(client *redis.Client, metrics *observability.Metrics) *ProjectionCache {
	return &ProjectionCache{client: client, metrics: metrics}
}

func (c *ProjectionCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.countMiss(key)
			return nil, service.ErrCacheMiss
		}
		return nil, fmt.Errorf("cache get %s: %w", key, err)
	}
	c.countHit(key)
	return val, nil
}

func (c *ProjectionCache) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *ProjectionCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache delete %s: %w", key, err)
	}
	return nil
}

func (c *ProjectionCache) countHit(key string) {
	if c.metrics != nil {
		c.metrics.CacheHits.WithLabelValues(entityFromKey(key)).Inc()
	}
}

func (c *ProjectionCache) countMiss(key string) {
	if c.metrics != nil {
		c.metrics.CacheMisses.WithLabelValues(entityFromKey(key)).Inc()
	}
}

func entityFromKey(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "unknown"
}
