// Package permission provides the role → permission catalog used by the
// schoolGuard authorization gate.
//
// # Model
//
// Permission names use the resource.action form ("students.read",
// "fees.write"). A [Registry] assigns each name a stable bit, and a
// [Catalog] compiles every role's permission list into a [Mask] so that a
// membership check is a single bit test. Both are frozen once built:
// changing the catalog is a deployment event, not a runtime mutation.
//
// # What this package must NOT do
//
//   - Access Redis, databases, or the network.
//   - Import schoolGuard or any sibling package.
//   - Allow registration after Freeze.
package permission
