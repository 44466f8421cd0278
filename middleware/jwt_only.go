package middleware

import (
	"net/http"

	schoolGuard "github.com/MrEthical07/schoolGuard"
)

// RequireJWTOnly verifies the bearer token and resolves the identity
// without a revocation lookup. Use it for read-only routes where a token
// revoked less than one TTL ago is acceptable.
func RequireJWTOnly(engine *schoolGuard.Engine) func(http.Handler) http.Handler {
	return Guard(engine, false)
}
