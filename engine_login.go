package schoolGuard

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/schoolGuard/internal/limiters"
)

// LoginRequest is the identifier+secret pair of a login body.
type LoginRequest struct {
	Identifier string `json:"email"`
	Secret     string `json:"password"`
}

// LoginResult is returned by a successful [Engine.Login].
type LoginResult struct {
	AccessToken string
	TokenID     string
	ExpiresAt   time.Time
	Identity    *Identity
}

// Login describes the login operation and its observable behavior.
//
// Checks run in order: malformed body, login_ip limiter, failure limiters,
// lockout pre-check, credential verification. A locked identity is never
// verified; a failed verification counts against both failure limiters and
// the identity's lockout counter; a success resets the counter and issues
// a token. The client IP is read from ctx (see [WithClientIP]).
func (e *Engine) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	identifier := strings.ToLower(strings.TrimSpace(req.Identifier))
	if identifier == "" || req.Secret == "" {
		e.metricInc(MetricLoginMalformed)
		return nil, ErrMalformedCredentials
	}
	ip := ClientIPFromContext(ctx)

	if err := e.loginLimiter.HitRequest(ctx, ip); err != nil {
		return nil, e.rateLimitError(ctx, err, identifier)
	}
	if err := e.loginLimiter.CheckFailures(ctx, ip, identifier); err != nil {
		return nil, e.rateLimitError(ctx, err, identifier)
	}

	identity, err := e.identities.FindByEmail(ctx, identifier)
	if err != nil {
		if !errors.Is(err, ErrIdentityNotFound) {
			return nil, storeUnavailable("find identity", err)
		}
		// Unknown identifiers still spend the failure budgets.
		if err := e.loginLimiter.RecordFailure(ctx, ip, identifier); err != nil {
			return nil, storeUnavailable("record failure", err)
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, AuditAuthenticationFailure, "", "", "login failed", func() map[string]string {
			return map[string]string{"identifier": identifier, "reason": "unknown_identifier"}
		})
		return nil, ErrInvalidCredentials
	}

	now := e.now()
	state, err := e.lockoutPrecheck(ctx, identity, now)
	if err != nil {
		return nil, err
	}

	ok, verifyErr := e.verifier.Verify(req.Secret, identity.SecretHash)
	if verifyErr != nil || !ok {
		if err := e.loginLimiter.RecordFailure(ctx, ip, identifier); err != nil {
			return nil, storeUnavailable("record failure", err)
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, AuditAuthenticationFailure, "", identity.ID, "login failed", func() map[string]string {
			reason := "secret_mismatch"
			if verifyErr != nil {
				reason = "verifier_error"
			}
			return map[string]string{"identifier": identifier, "reason": reason}
		})
		return nil, e.recordCredentialFailure(ctx, identity, state, now)
	}

	if err := e.resetLockout(ctx, identity, state); err != nil {
		return nil, err
	}
	identity.FailedLoginAttempts = 0
	identity.LastFailedLoginAt = nil
	identity.LockoutUntil = nil

	issued, err := e.IssueToken(identity)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, AuditLoginSuccess, identity.ID, identity.ID, "login succeeded", func() map[string]string {
		return map[string]string{"identifier": identifier, "role": string(identity.Role)}
	})

	return &LoginResult{
		AccessToken: issued.Token,
		TokenID:     issued.TokenID,
		ExpiresAt:   issued.ExpiresAt,
		Identity:    identity,
	}, nil
}

func (e *Engine) rateLimitError(ctx context.Context, err error, identifier string) error {
	var v *limiters.Violation
	if !errors.As(err, &v) {
		return storeUnavailable("rate limiter", err)
	}
	e.emitRateLimit(ctx, v.Limiter, identifier)
	return &RateLimitError{Limiter: v.Limiter, Window: e.loginLimiter.Windows()[v.Limiter].Window}
}
