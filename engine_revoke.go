package schoolGuard

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/MrEthical07/schoolGuard/jwt"
	"github.com/MrEthical07/schoolGuard/revocation"
)

// Revoke describes the revoke operation and its observable behavior.
//
// Revoke records token as unusable until its own exp claim. The expiry is
// read without verifying the signature so a token can be revoked even
// after a key rotation. A missing exp is ErrTokenExpiryUnreadable; a token
// revoked twice is ErrTokenAlreadyRevoked, distinct from store failures.
func (e *Engine) Revoke(ctx context.Context, token, identityID string, reason revocation.Reason, actorID string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if !reason.Valid() {
		return ErrInvalidRevocationReason
	}
	expiresAt, err := jwt.ExpiryOf(token)
	if err != nil {
		return ErrTokenExpiryUnreadable
	}

	rec := revocation.Record{
		Token:      token,
		IdentityID: identityID,
		ExpiresAt:  expiresAt,
		Reason:     reason,
		RevokedBy:  actorID,
		RevokedAt:  e.now(),
	}
	if err := e.revocations.Insert(ctx, rec); err != nil {
		if errors.Is(err, revocation.ErrAlreadyRevoked) {
			return ErrTokenAlreadyRevoked
		}
		return storeUnavailable("revoke token", err)
	}

	e.metricInc(MetricRevocationCreated)
	e.emitAudit(ctx, AuditTokenRevoked, actorID, identityID, "token revoked", func() map[string]string {
		return map[string]string{
			"reason":      string(reason),
			"fingerprint": revocation.Fingerprint(token)[:16],
			"expires_at":  expiresAt.UTC().Format(time.RFC3339),
		}
	})
	return nil
}

// IsRevoked reports whether exactly token has been revoked.
func (e *Engine) IsRevoked(ctx context.Context, token string) (bool, error) {
	if e == nil {
		return false, ErrEngineNotReady
	}
	revoked, err := e.revocations.Exists(ctx, token)
	if err != nil {
		return false, storeUnavailable("check revocation", err)
	}
	return revoked, nil
}

// CheckRevoked returns ErrTokenRevoked when token has been revoked. It
// runs after [Engine.Authenticate] and never touches lockout counters.
func (e *Engine) CheckRevoked(ctx context.Context, token string) error {
	revoked, err := e.IsRevoked(ctx, token)
	if err != nil {
		return err
	}
	if revoked {
		e.metricInc(MetricTokenRevoked)
		e.emitAudit(ctx, AuditAuthenticationFailure, actorFromContext(ctx), "", "revoked token presented", func() map[string]string {
			return map[string]string{"reason": "revoked_token"}
		})
		return ErrTokenRevoked
	}
	return nil
}

// Logout verifies token and revokes it for its own subject.
func (e *Engine) Logout(ctx context.Context, token string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	claims, err := e.TokenClaims(token)
	if err != nil {
		return err
	}
	return e.Revoke(ctx, token, claims.Subject, revocation.ReasonLogout, claims.Subject)
}

// SweepRevoked deletes revocation records whose expiry is strictly in the
// past and returns how many were removed. It is idempotent.
func (e *Engine) SweepRevoked(ctx context.Context) (int, error) {
	if e == nil {
		return 0, ErrEngineNotReady
	}
	now := e.now()
	removed, err := e.revocations.DeleteExpired(ctx, now)
	if err != nil {
		return 0, storeUnavailable("sweep revocations", err)
	}
	if removed > 0 {
		e.metrics.Add(MetricRevocationSwept, uint64(removed))
		e.emitAudit(ctx, AuditTokenCleanup, "", "", "expired revocation records removed", func() map[string]string {
			return map[string]string{
				"removed": strconv.Itoa(removed),
				"cutoff":  now.UTC().Format(time.RFC3339),
			}
		})
	}
	return removed, nil
}
