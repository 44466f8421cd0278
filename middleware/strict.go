package middleware

import (
	"net/http"

	schoolGuard "github.com/MrEthical07/schoolGuard"
)

// RequireStrict verifies the bearer token and rejects revoked tokens.
func RequireStrict(engine *schoolGuard.Engine) func(http.Handler) http.Handler {
	return Guard(engine, true)
}
