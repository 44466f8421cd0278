package rate

import (
	"context"
	"time"
)

// Window is a fixed-window budget: at most Max hits per Window.
type Window struct {
	Max    int
	Window time.Duration
}

// Enabled reports whether the window enforces anything. Max <= 0 disables it.
func (w Window) Enabled() bool {
	return w.Max > 0 && w.Window > 0
}

// Limiter enforces one [Window] over a key namespace of a [Counter].
// A nil Limiter, or one with a disabled window, allows everything.
type Limiter struct {
	counter Counter
	prefix  string
	window  Window
}

// New creates a [Limiter] that stores its keys under prefix.
func New(counter Counter, prefix string, w Window) *Limiter {
	return &Limiter{
		counter: counter,
		prefix:  prefix,
		window:  w,
	}
}

// Window returns the configured budget.
func (l *Limiter) Window() Window {
	if l == nil {
		return Window{}
	}
	return l.window
}

// Hit counts one request for key and returns [ErrRateLimited] when the
// count exceeds the budget. The rejected request still counts.
func (l *Limiter) Hit(ctx context.Context, key string) error {
	if !l.active(key) {
		return nil
	}

	count, err := l.counter.Incr(ctx, l.key(key), l.window.Window)
	if err != nil {
		return err
	}
	if count > int64(l.window.Max) {
		return ErrRateLimited
	}
	return nil
}

// Check returns [ErrRateLimited] when key has already used its budget,
// without counting anything.
func (l *Limiter) Check(ctx context.Context, key string) error {
	if !l.active(key) {
		return nil
	}

	count, err := l.counter.Get(ctx, l.key(key))
	if err != nil {
		return err
	}
	if count >= int64(l.window.Max) {
		return ErrRateLimited
	}
	return nil
}

// Record counts one event for key without making a decision.
func (l *Limiter) Record(ctx context.Context, key string) error {
	if !l.active(key) {
		return nil
	}

	_, err := l.counter.Incr(ctx, l.key(key), l.window.Window)
	return err
}

// Count returns the current count for key.
func (l *Limiter) Count(ctx context.Context, key string) (int64, error) {
	if !l.active(key) {
		return 0, nil
	}
	return l.counter.Get(ctx, l.key(key))
}

// Reset discards the window for key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if !l.active(key) {
		return nil
	}
	return l.counter.Reset(ctx, l.key(key))
}

func (l *Limiter) active(key string) bool {
	return l != nil && l.counter != nil && l.window.Enabled() && key != ""
}

func (l *Limiter) key(key string) string {
	return l.prefix + key
}
