package schoolGuard

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrEthical07/schoolGuard/permission"
)

// Authorize checks identity's role against perms. With MatchAll every
// permission is required, with MatchAny one is enough. A nil identity is
// ErrUnauthenticated; a denial is a *PermissionError naming what is
// missing.
func (e *Engine) Authorize(ctx context.Context, identity *Identity, mode permission.MatchMode, perms ...string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if identity == nil {
		return ErrUnauthenticated
	}

	missing := e.catalog.Missing(string(identity.Role), mode, perms...)
	if len(missing) == 0 {
		return nil
	}

	e.metricInc(MetricPermissionDenied)
	e.emitAudit(ctx, AuditPermissionDenied, identity.ID, "", "permission denied", func() map[string]string {
		return map[string]string{
			"role":    string(identity.Role),
			"missing": strings.Join(missing, ","),
			"mode":    matchModeName(mode),
		}
	})
	return &PermissionError{Role: string(identity.Role), Missing: missing}
}

// RequireRole allows identity only when its role is one of roles.
func (e *Engine) RequireRole(ctx context.Context, identity *Identity, roles ...Role) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if identity == nil {
		return ErrUnauthenticated
	}
	for _, r := range roles {
		if identity.Role == r {
			return nil
		}
	}

	e.metricInc(MetricPermissionDenied)
	e.emitAudit(ctx, AuditPermissionDenied, identity.ID, "", "role not allowed", func() map[string]string {
		names := make([]string, len(roles))
		for i, r := range roles {
			names[i] = string(r)
		}
		return map[string]string{
			"role":    string(identity.Role),
			"allowed": strings.Join(names, ","),
		}
	})
	return fmt.Errorf("%w: role %q not allowed", ErrPermissionDenied, identity.Role)
}

func matchModeName(mode permission.MatchMode) string {
	if mode == permission.MatchAny {
		return "any"
	}
	return "all"
}
