// Package revocation tracks bearer tokens that must be rejected before their
// natural expiry.
//
// Tokens are keyed by their SHA-256 fingerprint ([Fingerprint]); raw token
// strings are never persisted. Insertion is an atomic insert-if-absent, and
// a duplicate is reported as [ErrAlreadyRevoked] rather than a write failure.
// Records whose expiry has passed are removed by [Store.DeleteExpired].
//
// Implementations: [MemoryStore] (process-local) and [RedisStore]. A
// Postgres implementation lives in package pgstore.
package revocation
