// Package internal contains helper utilities that are private to schoolGuard,
// such as secure random token generation.
//
// # Sub-packages
//
//   - audit: async event dispatch with hash chaining (Dispatcher + Sink implementations)
//   - limiters: login rate limiting and the lockout state machine
//   - rate: fixed-window counters backed by Redis or memory
//   - security: security posture report builder
//
// # What this package must NOT do
//
//   - Export types that appear in the public schoolGuard API.
//   - Be imported by any package outside the schoolGuard module.
package internal
