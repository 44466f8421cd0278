package middleware

import (
	"net/http"

	schoolGuard "github.com/MrEthical07/schoolGuard"
)

// Chain composes middleware so the first argument runs outermost.
func Chain(mws ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			h = mws[i](h)
		}
		return h
	}
}

// Pipeline runs checks in order with [schoolGuard.Evaluate]. The first
// rejection is written and the handler is not called.
func Pipeline(checks ...schoolGuard.Check) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, d := schoolGuard.Evaluate(r, checks...)
			if d.Rejected() {
				WriteRejection(w, d)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
