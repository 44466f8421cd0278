package schoolGuard

import (
	"context"
	"time"

	internalaudit "github.com/MrEthical07/schoolGuard/internal/audit"
	"github.com/MrEthical07/schoolGuard/internal/limiters"
	"github.com/MrEthical07/schoolGuard/internal/rate"
)

// Role is the closed set of school roles.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleParent  Role = "parent"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleParent:
		return true
	}
	return false
}

// Identity is the security-relevant subset of a user record.
type Identity struct {
	ID         string
	Email      string
	Role       Role
	SecretHash string

	FailedLoginAttempts int
	LastFailedLoginAt   *time.Time
	LockoutUntil        *time.Time
}

// LockoutState is written as one unit by [IdentityStore.UpdateLockoutState].
// A zero LockoutState clears the counter and both timestamps together.
type LockoutState struct {
	FailedLoginAttempts int
	LastFailedLoginAt   *time.Time
	LockoutUntil        *time.Time
}

// LockoutState returns the lockout fields of the identity.
func (i *Identity) LockoutState() LockoutState {
	if i == nil {
		return LockoutState{}
	}
	return LockoutState{
		FailedLoginAttempts: i.FailedLoginAttempts,
		LastFailedLoginAt:   i.LastFailedLoginAt,
		LockoutUntil:        i.LockoutUntil,
	}
}

// Locked reports whether the identity is barred from logging in at now.
func (i *Identity) Locked(now time.Time) bool {
	return toLimiterState(i.LockoutState()).Locked(now)
}

// IdentityStore is the identity persistence the engine consumes. FindByID
// and FindByEmail return [ErrIdentityNotFound] for unknown identities.
type IdentityStore interface {
	FindByID(ctx context.Context, id string) (*Identity, error)
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	UpdateLockoutState(ctx context.Context, id string, state LockoutState) error
}

// CredentialVerifier compares a submitted secret with the stored hash.
// [password.Argon2] satisfies it.
type CredentialVerifier interface {
	Verify(secret, encoded string) (bool, error)
}

// AuditEntry is one hash-chained audit record.
type AuditEntry = internalaudit.Entry

// AuditSink receives sealed audit entries from the dispatcher goroutine.
type AuditSink = internalaudit.Sink

// AuditPurger is implemented by sinks that support retention purges.
type AuditPurger = internalaudit.Purger

// EscalationStep maps a failure count to a lockout duration.
type EscalationStep = limiters.Step

// Escalation is the ordered lockout escalation table.
type Escalation = limiters.Escalation

// RateWindow is a fixed-window budget. Max <= 0 disables the limiter.
type RateWindow = rate.Window

func toLimiterState(s LockoutState) limiters.LockoutState {
	out := limiters.LockoutState{Failures: s.FailedLoginAttempts}
	if s.LastFailedLoginAt != nil {
		out.LastFailureAt = *s.LastFailedLoginAt
	}
	if s.LockoutUntil != nil {
		out.LockedUntil = *s.LockoutUntil
	}
	return out
}

func fromLimiterState(s limiters.LockoutState) LockoutState {
	if s.Failures == 0 {
		return LockoutState{}
	}
	out := LockoutState{FailedLoginAttempts: s.Failures}
	if !s.LastFailureAt.IsZero() {
		t := s.LastFailureAt
		out.LastFailedLoginAt = &t
	}
	if !s.LockedUntil.IsZero() {
		t := s.LockedUntil
		out.LockoutUntil = &t
	}
	return out
}
