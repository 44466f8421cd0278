// Package audit implements the asynchronous, hash-chained audit trail.
//
// # Components
//
//   - [Entry]: one append-only record (actor, action, description, target,
//     metadata, timestamp) sealed with PrevHash/Hash.
//   - [Sink]: persistence target (channel, JSON writer, in-memory store, or a
//     caller-supplied database store).
//   - [Dispatcher]: buffered async relay that seals entries in arrival order
//     and reports write failures to a fallback callback.
//   - [VerifyChain]: tamper detection over a contiguous run of entries.
//
// # Architecture boundaries
//
// This package owns buffering, sealing and sink delivery. It does NOT decide
// which events to emit; the Engine does.
//
// # What this package must NOT do
//
//   - Block or fail the caller of [Dispatcher.Emit] because a sink failed.
//   - Import schoolGuard or any sibling internal package.
package audit
