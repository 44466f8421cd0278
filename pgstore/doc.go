// Package pgstore implements the schoolGuard persistence interfaces on
// PostgreSQL through database/sql and the pgx stdlib driver: identities
// (lockout counters), revoked tokens and the audit trail.
//
// Call [Store.Migrate] once to create the tables in schema.sql.
package pgstore
