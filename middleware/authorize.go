package middleware

import (
	"net/http"

	schoolGuard "github.com/MrEthical07/schoolGuard"
	"github.com/MrEthical07/schoolGuard/permission"
)

// PermissionCheck authorizes the identity in the request context.
func PermissionCheck(engine *schoolGuard.Engine, mode permission.MatchMode, perms ...string) schoolGuard.Check {
	return func(r *http.Request) (*http.Request, schoolGuard.Decision) {
		identity, _ := schoolGuard.IdentityFromContext(r.Context())
		return nil, schoolGuard.RejectionFor(engine.Authorize(r.Context(), identity, mode, perms...))
	}
}

// RoleCheck allows only the listed roles.
func RoleCheck(engine *schoolGuard.Engine, roles ...schoolGuard.Role) schoolGuard.Check {
	return func(r *http.Request) (*http.Request, schoolGuard.Decision) {
		identity, _ := schoolGuard.IdentityFromContext(r.Context())
		return nil, schoolGuard.RejectionFor(engine.RequireRole(r.Context(), identity, roles...))
	}
}

// RequirePermissions requires every permission in perms.
func RequirePermissions(engine *schoolGuard.Engine, perms ...string) func(http.Handler) http.Handler {
	return Pipeline(PermissionCheck(engine, permission.MatchAll, perms...))
}

// RequireAnyPermission requires at least one permission in perms.
func RequireAnyPermission(engine *schoolGuard.Engine, perms ...string) func(http.Handler) http.Handler {
	return Pipeline(PermissionCheck(engine, permission.MatchAny, perms...))
}

// RequireRole allows only the listed roles.
func RequireRole(engine *schoolGuard.Engine, roles ...schoolGuard.Role) func(http.Handler) http.Handler {
	return Pipeline(RoleCheck(engine, roles...))
}
