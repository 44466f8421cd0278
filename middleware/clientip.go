package middleware

import (
	"net"
	"net/http"
	"strings"

	schoolGuard "github.com/MrEthical07/schoolGuard"
)

// ClientIP returns the client address of r. It checks X-Forwarded-For
// (first entry), X-Real-IP, and RemoteAddr in that order, stripping ports.
// Only trust forwarding headers behind a proxy that overwrites them.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return stripPort(first)
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return stripPort(xri)
	}
	return stripPort(r.RemoteAddr)
}

func stripPort(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

// ClientInfo stores the client IP and user agent in the request context
// for rate limiting and audit metadata. With trustProxy false only
// RemoteAddr is used.
func ClientInfo(trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := stripPort(r.RemoteAddr)
			if trustProxy {
				ip = ClientIP(r)
			}
			ctx := schoolGuard.WithClientIP(r.Context(), ip)
			ctx = schoolGuard.WithUserAgent(ctx, r.UserAgent())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
