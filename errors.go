package schoolGuard

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrMalformedCredentials is returned when a login request is missing the identifier or secret.
	ErrMalformedCredentials = errors.New("malformed credentials")
	// ErrInvalidCredentials is returned when the identifier or secret does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked is wrapped by [LockoutError].
	ErrAccountLocked = errors.New("account locked")
	// ErrRateLimited is wrapped by [RateLimitError].
	ErrRateLimited = errors.New("rate limited")
	// ErrTokenMissing is returned when no bearer token is present.
	ErrTokenMissing = errors.New("authentication required")
	// ErrTokenInvalid is returned for every signature, claim or expiry failure.
	ErrTokenInvalid = errors.New("invalid or expired token")
	// ErrTokenRevoked is returned when a well-formed token has been revoked.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrTokenAlreadyRevoked is returned when a token is revoked twice.
	ErrTokenAlreadyRevoked = errors.New("token already revoked")
	// ErrTokenExpiryUnreadable is returned when a token to revoke has no readable exp claim.
	ErrTokenExpiryUnreadable = errors.New("token expiry unreadable")
	// ErrInvalidRevocationReason is returned for an unknown revocation reason.
	ErrInvalidRevocationReason = errors.New("invalid revocation reason")
	// ErrIdentityNotFound is returned by an [IdentityStore] for an unknown identity.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrIdentityGone is returned when a valid token names an identity that no longer exists.
	ErrIdentityGone = errors.New("identity no longer exists")
	// ErrUnauthenticated is returned by authorization checks run without an identity.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrPermissionDenied is wrapped by [PermissionError] and role denials.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrCSRFMismatch is returned when the double-submitted tokens are absent or differ.
	ErrCSRFMismatch = errors.New("csrf token mismatch")
	// ErrStoreUnavailable wraps identity, token and counter backend failures during a security decision.
	ErrStoreUnavailable = errors.New("security store unavailable")
	// ErrAuditPurgeUnsupported is returned by [Engine.PurgeAudit] when the audit sink cannot purge.
	ErrAuditPurgeUnsupported = errors.New("audit sink does not support purge")
	// ErrEngineNotReady is returned by methods called on a nil engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// LockoutError reports a locked identity and when the lock ends.
type LockoutError struct {
	Until            time.Time
	RemainingMinutes int
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("account locked for %d more minute(s)", e.RemainingMinutes)
}

func (e *LockoutError) Unwrap() error { return ErrAccountLocked }

// RateLimitError names the limiter whose budget was exceeded.
type RateLimitError struct {
	Limiter string
	Window  time.Duration
}

func (e *RateLimitError) Error() string {
	return "rate limited by " + e.Limiter
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// PermissionError lists every permission the identity's role is missing.
type PermissionError struct {
	Role    string
	Missing []string
}

func (e *PermissionError) Error() string {
	return "permission denied: missing " + strings.Join(e.Missing, ", ")
}

func (e *PermissionError) Unwrap() error { return ErrPermissionDenied }

func storeUnavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}
