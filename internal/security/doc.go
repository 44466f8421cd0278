// Package security derives the read-only security posture report from the
// effective engine configuration.
//
// # What this package must NOT do
//
//   - Perform I/O or hold references to live stores.
package security
