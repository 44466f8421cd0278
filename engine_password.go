package schoolGuard

import (
	"context"
	"strings"

	"github.com/MrEthical07/schoolGuard/password"
)

// ValidatePassword checks candidate against the configured policy. Only
// rule names reach the audit trail, never the candidate.
func (e *Engine) ValidatePassword(ctx context.Context, candidate, actorID string) password.Result {
	if e == nil {
		return password.Result{}
	}
	result := password.Validate(candidate, e.config.Password.Policy)
	if result.Valid {
		return result
	}

	e.metricInc(MetricPasswordRejected)
	e.emitAudit(ctx, AuditPasswordValidationFailure, actorID, actorID, "password rejected by policy", func() map[string]string {
		return map[string]string{"rules": strings.Join(result.Rules(), ",")}
	})
	return result
}

// HashPassword validates candidate and, when it passes, returns its
// encoded Argon2id hash.
func (e *Engine) HashPassword(ctx context.Context, candidate, actorID string) (string, password.Result, error) {
	if e == nil {
		return "", password.Result{}, ErrEngineNotReady
	}
	result := e.ValidatePassword(ctx, candidate, actorID)
	if !result.Valid {
		return "", result, nil
	}
	hasher, err := password.NewArgon2(e.config.Password.Argon2)
	if err != nil {
		return "", result, err
	}
	encoded, err := hasher.Hash(candidate)
	if err != nil {
		return "", result, err
	}
	return encoded, result, nil
}
