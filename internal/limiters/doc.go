// Package limiters holds the login throttling and lockout policies built on
// top of the internal/rate primitives.
//
// # Limiters
//
//   - [LoginLimiter]: login_ip (every request), failed_login_ip and
//     failed_login_identity (failures only).
//   - [Escalation]: the lockout table and the pure state transitions of the
//     per-identity lockout counter ([Precheck], [ApplyFailure], [ClearExpired]).
//
// All limiters are nil-safe: calling any method on a nil receiver returns nil.
//
// # What this package must NOT do
//
//   - Import schoolGuard or any sibling internal package except internal/rate.
//   - Persist lockout state (the engine owns the identity store).
package limiters
