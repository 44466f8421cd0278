package rate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestMemoryCounterFixedWindow(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	c := NewMemoryCounter(clock.Now)

	for i := int64(1); i <= 3; i++ {
		got, err := c.Incr(ctx, "k", time.Minute)
		if err != nil {
			t.Fatalf("Incr: %v", err)
		}
		if got != i {
			t.Fatalf("Incr #%d = %d", i, got)
		}
	}

	// The window does not slide with later hits.
	clock.Advance(59 * time.Second)
	if got, _ := c.Incr(ctx, "k", time.Minute); got != 4 {
		t.Fatalf("count before window close = %d, want 4", got)
	}

	clock.Advance(time.Second)
	if got, _ := c.Get(ctx, "k"); got != 0 {
		t.Fatalf("Get after window close = %d, want 0", got)
	}
	if got, _ := c.Incr(ctx, "k", time.Minute); got != 1 {
		t.Fatalf("Incr after window close = %d, want 1", got)
	}
}

func TestMemoryCounterResetAndCleanup(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	c := NewMemoryCounter(clock.Now)

	_, _ = c.Incr(ctx, "short", time.Second)
	_, _ = c.Incr(ctx, "long", time.Hour)
	_, _ = c.Incr(ctx, "reset", time.Hour)

	if err := c.Reset(ctx, "reset"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if got, _ := c.Get(ctx, "reset"); got != 0 {
		t.Fatalf("Get after Reset = %d", got)
	}

	clock.Advance(2 * time.Second)
	if removed := c.Cleanup(); removed != 1 {
		t.Fatalf("Cleanup removed %d, want 1", removed)
	}
	if got, _ := c.Get(ctx, "long"); got != 1 {
		t.Fatalf("long window lost by Cleanup, count %d", got)
	}
}

func TestRedisCounterFixedWindow(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	c := NewRedisCounter(rdb)

	for i := int64(1); i <= 2; i++ {
		got, err := c.Incr(ctx, "rl:k", time.Minute)
		if err != nil {
			t.Fatalf("Incr: %v", err)
		}
		if got != i {
			t.Fatalf("Incr #%d = %d", i, got)
		}
	}
	if ttl := mr.TTL("rl:k"); ttl != time.Minute {
		t.Fatalf("TTL = %v, want 1m", ttl)
	}

	mr.FastForward(time.Minute)
	if got, err := c.Get(ctx, "rl:k"); err != nil || got != 0 {
		t.Fatalf("Get after expiry = %d, %v", got, err)
	}

	_, _ = c.Incr(ctx, "rl:k", time.Minute)
	if err := c.Reset(ctx, "rl:k"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if mr.Exists("rl:k") {
		t.Fatal("key survived Reset")
	}
}

func TestRedisCounterUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	c := NewRedisCounter(rdb)
	mr.Close()

	if _, err := c.Incr(context.Background(), "k", time.Minute); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("Incr err = %v, want ErrRedisUnavailable", err)
	}
	if _, err := c.Get(context.Background(), "k"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("Get err = %v, want ErrRedisUnavailable", err)
	}
}

func TestLimiterHitAndCheck(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	l := New(NewMemoryCounter(clock.Now), "ip:", Window{Max: 5, Window: 15 * time.Minute})

	for i := 1; i <= 5; i++ {
		if err := l.Hit(ctx, "10.0.0.1"); err != nil {
			t.Fatalf("hit %d rejected: %v", i, err)
		}
	}
	if err := l.Hit(ctx, "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("6th hit err = %v, want ErrRateLimited", err)
	}
	if err := l.Hit(ctx, "10.0.0.2"); err != nil {
		t.Fatalf("other key rejected: %v", err)
	}

	clock.Advance(15 * time.Minute)
	if err := l.Hit(ctx, "10.0.0.1"); err != nil {
		t.Fatalf("hit after window rejected: %v", err)
	}

	f := New(NewMemoryCounter(clock.Now), "f:", Window{Max: 2, Window: time.Minute})
	if err := f.Check(ctx, "a"); err != nil {
		t.Fatalf("Check on empty: %v", err)
	}
	_ = f.Record(ctx, "a")
	_ = f.Record(ctx, "a")
	if err := f.Check(ctx, "a"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Check at budget err = %v", err)
	}
	if got, _ := f.Count(ctx, "a"); got != 2 {
		t.Fatalf("Count = %d", got)
	}
	if err := f.Reset(ctx, "a"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if err := f.Check(ctx, "a"); err != nil {
		t.Fatalf("Check after Reset: %v", err)
	}
}

func TestLimiterDisabled(t *testing.T) {
	ctx := context.Background()
	var nilLimiter *Limiter
	if err := nilLimiter.Hit(ctx, "k"); err != nil {
		t.Fatalf("nil limiter Hit: %v", err)
	}

	off := New(NewMemoryCounter(nil), "x:", Window{Max: 0, Window: time.Minute})
	for i := 0; i < 10; i++ {
		if err := off.Hit(ctx, "k"); err != nil {
			t.Fatalf("disabled limiter rejected: %v", err)
		}
	}
	if off.Window().Enabled() {
		t.Fatal("Max 0 should disable the window")
	}
}
