// Package rate provides the fixed-window counter primitives behind the login
// throttles.
//
// # Window semantics
//
// A window opens on the first hit for a key and lasts for the configured
// duration; the counter is discarded when it closes. [RedisCounter] does this
// with INCR plus a conditional EXPIRE on the first hit, [MemoryCounter] keeps
// an in-process map with the same behavior.
//
// # What this package must NOT do
//
//   - Implement domain-specific policies (those live in internal/limiters).
//   - Be imported outside the schoolGuard module.
package rate
