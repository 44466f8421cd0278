// Package middleware adapts the schoolGuard engine to net/http.
//
// # Guards
//
//   - [ClientInfo]: records client IP and user agent in the request context.
//   - [CSRF]: double-submit check on unsafe methods.
//   - [RequireJWTOnly]: bearer verification, no revocation lookup.
//   - [RequireStrict]: bearer verification plus revocation lookup.
//   - [RequirePermissions], [RequireRole]: authorization against the catalog.
//
// Each guard is built from a [schoolGuard.Check], so a route can also run
// several of them as one ordered [Pipeline]. The first rejection is
// written as JSON by [WriteRejection].
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis or Postgres (Engine handles I/O).
//   - Decide anything the Engine has not decided.
package middleware
