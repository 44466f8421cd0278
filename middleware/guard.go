package middleware

import (
	"net/http"

	schoolGuard "github.com/MrEthical07/schoolGuard"
)

// AuthenticateCheck verifies the bearer token in the configured header and
// attaches the identity and raw token to the request context.
func AuthenticateCheck(engine *schoolGuard.Engine) schoolGuard.Check {
	return func(r *http.Request) (*http.Request, schoolGuard.Decision) {
		if engine == nil {
			return nil, schoolGuard.RejectionFor(schoolGuard.ErrEngineNotReady)
		}
		token, err := schoolGuard.BearerToken(r.Header.Get(engine.AuthHeader()))
		if err != nil {
			return nil, schoolGuard.RejectionFor(err)
		}
		identity, err := engine.AuthenticateToken(r.Context(), token)
		if err != nil {
			return nil, schoolGuard.RejectionFor(err)
		}
		ctx := schoolGuard.WithIdentity(r.Context(), identity)
		ctx = schoolGuard.WithBearerToken(ctx, token)
		return r.WithContext(ctx), schoolGuard.Allow()
	}
}

// RevocationCheck rejects a request whose bearer token has been revoked.
// It must run after [AuthenticateCheck].
func RevocationCheck(engine *schoolGuard.Engine) schoolGuard.Check {
	return func(r *http.Request) (*http.Request, schoolGuard.Decision) {
		token := schoolGuard.BearerTokenFromContext(r.Context())
		if token == "" {
			return nil, schoolGuard.RejectionFor(schoolGuard.ErrUnauthenticated)
		}
		return nil, schoolGuard.RejectionFor(engine.CheckRevoked(r.Context(), token))
	}
}

// Guard authenticates the request and, when checkRevocation is set,
// consults the revocation store.
func Guard(engine *schoolGuard.Engine, checkRevocation bool) func(http.Handler) http.Handler {
	if checkRevocation {
		return Pipeline(AuthenticateCheck(engine), RevocationCheck(engine))
	}
	return Pipeline(AuthenticateCheck(engine))
}

// RejectRevoked is [RevocationCheck] as middleware, for routes already
// behind [RequireJWTOnly].
func RejectRevoked(engine *schoolGuard.Engine) func(http.Handler) http.Handler {
	return Pipeline(RevocationCheck(engine))
}
