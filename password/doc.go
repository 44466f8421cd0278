// Package password holds the password policy validator and the default
// Argon2id credential hasher.
//
// # Policy
//
// [Validate] checks a candidate against a [Policy] and returns every
// violated rule at once, in a fixed order, so callers can surface all
// problems in a single response. It never logs or returns the candidate.
//
// # Hashing
//
// [Argon2] encodes hashes in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// The engine only consumes hashing through an opaque verifier interface;
// Argon2 is the convenience implementation.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords.
//   - Import any other schoolGuard package.
package password
