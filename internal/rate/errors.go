package rate

import "errors"

var (
	// ErrRateLimited is returned when a key has exhausted its window budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps Redis transport or command failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
