package schoolGuard

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/MrEthical07/schoolGuard/internal/limiters"
)

// lockoutPrecheck runs before credential verification. A live lockout
// rejects without touching the counter; a passed one is cleared first.
// It returns the state the credential check continues from.
func (e *Engine) lockoutPrecheck(ctx context.Context, identity *Identity, now time.Time) (LockoutState, error) {
	state := identity.LockoutState()
	current := toLimiterState(state)

	switch limiters.Precheck(current, now) {
	case limiters.PrecheckLocked:
		remaining := limiters.RemainingMinutes(current.LockedUntil, now)
		e.metricInc(MetricLoginLocked)
		e.emitAudit(ctx, AuditLockoutCheck, "", identity.ID, "login attempt rejected while locked", func() map[string]string {
			return map[string]string{
				"identifier":        identity.Email,
				"outcome":           "rejected",
				"attempts":          strconv.Itoa(current.Failures),
				"lockout_until":     current.LockedUntil.UTC().Format(time.RFC3339),
				"remaining_minutes": strconv.Itoa(remaining),
			}
		})
		return state, &LockoutError{Until: current.LockedUntil, RemainingMinutes: remaining}

	case limiters.PrecheckExpired:
		cleared := fromLimiterState(limiters.ClearExpired(current, e.config.Lockout.ResetCountOnExpiry))
		if err := e.identities.UpdateLockoutState(ctx, identity.ID, cleared); err != nil {
			return state, storeUnavailable("clear expired lockout", err)
		}
		e.metricInc(MetricLockoutUnlocked)
		e.emitAudit(ctx, AuditLockoutUnlock, "", identity.ID, "lockout window expired", func() map[string]string {
			return map[string]string{
				"identifier":    identity.Email,
				"reason":        "expired",
				"attempts":      strconv.Itoa(current.Failures),
				"lockout_until": current.LockedUntil.UTC().Format(time.RFC3339),
			}
		})
		return cleared, nil
	}

	return state, nil
}

// recordCredentialFailure increments the counter and applies the largest
// matching escalation step. It returns a *LockoutError when this failure
// set a lockout and ErrInvalidCredentials otherwise.
func (e *Engine) recordCredentialFailure(ctx context.Context, identity *Identity, state LockoutState, now time.Time) error {
	out := limiters.ApplyFailure(toLimiterState(state), e.escalation, now)
	next := fromLimiterState(out.State)
	if err := e.identities.UpdateLockoutState(ctx, identity.ID, next); err != nil {
		return storeUnavailable("record failed login", err)
	}

	if !out.Applied {
		return ErrInvalidCredentials
	}

	remaining := limiters.RemainingMinutes(out.State.LockedUntil, now)
	e.metricInc(MetricLockoutApplied)
	e.emitAudit(ctx, AuditLockoutApplied, "", identity.ID, "account locked after repeated failures", func() map[string]string {
		return map[string]string{
			"identifier":       identity.Email,
			"attempts":         strconv.Itoa(out.State.Failures),
			"duration_minutes": strconv.Itoa(int(out.Duration / time.Minute)),
			"lockout_until":    out.State.LockedUntil.UTC().Format(time.RFC3339),
		}
	})
	return &LockoutError{Until: out.State.LockedUntil, RemainingMinutes: remaining}
}

// resetLockout clears the counter after a successful credential check.
func (e *Engine) resetLockout(ctx context.Context, identity *Identity, state LockoutState) error {
	if state.FailedLoginAttempts == 0 && state.LockoutUntil == nil && state.LastFailedLoginAt == nil {
		return nil
	}
	if err := e.identities.UpdateLockoutState(ctx, identity.ID, LockoutState{}); err != nil {
		return storeUnavailable("reset lockout", err)
	}
	if state.LockoutUntil != nil {
		e.metricInc(MetricLockoutUnlocked)
		e.emitAudit(ctx, AuditLockoutUnlock, "", identity.ID, "lockout cleared by successful login", func() map[string]string {
			return map[string]string{
				"identifier": identity.Email,
				"reason":     "success",
			}
		})
	}
	return nil
}

// UnlockAccount clears the lockout counter of identityID and its
// identity-scoped failure window. actorID names the administrator.
func (e *Engine) UnlockAccount(ctx context.Context, identityID, actorID string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	identity, err := e.identities.FindByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return ErrIdentityNotFound
		}
		return storeUnavailable("find identity", err)
	}

	previous := identity.LockoutState()
	if err := e.identities.UpdateLockoutState(ctx, identity.ID, LockoutState{}); err != nil {
		return storeUnavailable("unlock account", err)
	}
	if err := e.loginLimiter.ResetIdentity(ctx, identity.Email); err != nil {
		e.logger.Warn("reset identity rate window failed", "identity_id", identity.ID, "error", err)
	}

	e.metricInc(MetricLockoutUnlocked)
	e.emitAudit(ctx, AuditLockoutUnlock, actorID, identity.ID, "account unlocked by administrator", func() map[string]string {
		return map[string]string{
			"identifier": identity.Email,
			"reason":     "manual",
			"attempts":   strconv.Itoa(previous.FailedLoginAttempts),
		}
	})
	return nil
}
