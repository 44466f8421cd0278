// Package schoolGuard is the security control plane of a multi-role school
// administration application: login with brute-force throttling and
// account lockout, JWT bearer authentication, token revocation,
// permission-catalog authorization, CSRF double-submit checks, password
// policy validation and a hash-chained audit trail.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// schoolGuard is the public surface. It exposes [Engine], [Builder], [Config]
// and value types ([Identity], [Decision], [MetricsSnapshot]). Identity
// persistence is consumed through [IdentityStore]; the pgstore package
// provides a Postgres implementation and [MemoryIdentityStore] a local one.
// Counter storage, lockout arithmetic and audit dispatch live under
// internal/.
//
// # Request pipeline
//
// Each check yields a [Decision]. The middleware package chains them in
// order: CSRF guard, rate limiter, lockout (login only), authentication,
// revocation, authorization. The first rejection stops the chain and is
// written with [RejectionFor]'s status and body.
//
// # What this package must NOT do
//
//   - Expose Redis clients or counter keys in its public API.
//   - Write raw tokens or secrets into the audit trail; revocation records
//     are keyed by SHA-256 fingerprint.
//   - Let an audit write failure change a security decision.
package schoolGuard
