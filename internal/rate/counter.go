package rate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter is a fixed-window hit counter keyed by string.
type Counter interface {
	// Incr adds one hit to key, opening a window of the given length when
	// none is active, and returns the count within the current window.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	// Get returns the count within the current window, or zero.
	Get(ctx context.Context, key string) (int64, error)
	// Reset discards the window for key.
	Reset(ctx context.Context, key string) error
}

// RedisCounter implements [Counter] on Redis INCR/EXPIRE.
type RedisCounter struct {
	redis redis.UniversalClient
}

// NewRedisCounter creates a [RedisCounter] backed by the given client.
func NewRedisCounter(redisClient redis.UniversalClient) *RedisCounter {
	return &RedisCounter{redis: redisClient}
}

// Incr implements [Counter].
func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := c.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := c.redis.Expire(ctx, key, window).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}

// Get implements [Counter]. Missing keys return zero.
func (c *RedisCounter) Get(ctx context.Context, key string) (int64, error) {
	count, err := c.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return count, nil
}

// Reset implements [Counter].
func (c *RedisCounter) Reset(ctx context.Context, key string) error {
	if err := c.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

type bucket struct {
	count     int64
	windowEnd time.Time
}

// MemoryCounter implements [Counter] with a process-local map. It is safe
// for concurrent use.
type MemoryCounter struct {
	now func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewMemoryCounter creates a [MemoryCounter]. A nil now uses time.Now.
func NewMemoryCounter(now func() time.Time) *MemoryCounter {
	if now == nil {
		now = time.Now
	}
	return &MemoryCounter{
		now:     now,
		buckets: make(map[string]*bucket),
	}
}

// Incr implements [Counter].
func (c *MemoryCounter) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	b, ok := c.buckets[key]
	if !ok || !now.Before(b.windowEnd) {
		c.buckets[key] = &bucket{count: 1, windowEnd: now.Add(window)}
		return 1, nil
	}

	b.count++
	return b.count, nil
}

// Get implements [Counter].
func (c *MemoryCounter) Get(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.buckets[key]
	if !ok || !c.now().Before(b.windowEnd) {
		return 0, nil
	}
	return b.count, nil
}

// Reset implements [Counter].
func (c *MemoryCounter) Reset(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.buckets, key)
	return nil
}

// Cleanup drops closed windows and returns how many were removed. Call it
// periodically; closed windows are otherwise only replaced on the next hit.
func (c *MemoryCounter) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, b := range c.buckets {
		if !now.Before(b.windowEnd) {
			delete(c.buckets, key)
			removed++
		}
	}
	return removed
}
