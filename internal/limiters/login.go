package limiters

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/schoolGuard/internal/rate"
)

// Limiter names, reported in violations and audit metadata.
const (
	LoginIP             = "login_ip"
	FailedLoginIP       = "failed_login_ip"
	FailedLoginIdentity = "failed_login_identity"
)

// LoginConfig holds the three login throttles. A window with Max <= 0 is
// disabled.
type LoginConfig struct {
	LoginIP             rate.Window
	FailedLoginIP       rate.Window
	FailedLoginIdentity rate.Window
}

// Violation reports which limiter rejected a request. It wraps
// rate.ErrRateLimited.
type Violation struct {
	Limiter string
}

func (v *Violation) Error() string {
	return "rate limited by " + v.Limiter
}

func (v *Violation) Unwrap() error {
	return rate.ErrRateLimited
}

// LoginLimiter throttles login requests per IP and per submitted identifier.
// Windows are independent: exceeding one never resets another.
type LoginLimiter struct {
	loginIP             *rate.Limiter
	failedLoginIP       *rate.Limiter
	failedLoginIdentity *rate.Limiter
}

// NewLoginLimiter wires the three throttles onto counter under the
// "sg:rl:" key prefix.
func NewLoginLimiter(counter rate.Counter, cfg LoginConfig) *LoginLimiter {
	return NewLoginLimiterWithPrefix(counter, "sg:rl:", cfg)
}

// NewLoginLimiterWithPrefix is [NewLoginLimiter] with a custom key prefix.
func NewLoginLimiterWithPrefix(counter rate.Counter, prefix string, cfg LoginConfig) *LoginLimiter {
	if prefix == "" {
		prefix = "sg:rl:"
	}
	return &LoginLimiter{
		loginIP:             rate.New(counter, prefix+LoginIP+":", cfg.LoginIP),
		failedLoginIP:       rate.New(counter, prefix+FailedLoginIP+":", cfg.FailedLoginIP),
		failedLoginIdentity: rate.New(counter, prefix+FailedLoginIdentity+":", cfg.FailedLoginIdentity),
	}
}

// HitRequest counts one login request from ip, whatever its outcome.
func (l *LoginLimiter) HitRequest(ctx context.Context, ip string) error {
	if l == nil {
		return nil
	}
	return violation(LoginIP, l.loginIP.Hit(ctx, ip))
}

// CheckFailures rejects when ip or identifier has used its failure budget.
// Nothing is counted.
func (l *LoginLimiter) CheckFailures(ctx context.Context, ip, identifier string) error {
	if l == nil {
		return nil
	}
	if err := violation(FailedLoginIP, l.failedLoginIP.Check(ctx, ip)); err != nil {
		return err
	}
	return violation(FailedLoginIdentity, l.failedLoginIdentity.Check(ctx, IdentityKey(identifier, ip)))
}

// RecordFailure counts one failed credential check against ip and
// identifier.
func (l *LoginLimiter) RecordFailure(ctx context.Context, ip, identifier string) error {
	if l == nil {
		return nil
	}
	if err := l.failedLoginIP.Record(ctx, ip); err != nil {
		return err
	}
	return l.failedLoginIdentity.Record(ctx, IdentityKey(identifier, ip))
}

// ResetIdentity clears the failure window of identifier.
func (l *LoginLimiter) ResetIdentity(ctx context.Context, identifier string) error {
	if l == nil {
		return nil
	}
	return l.failedLoginIdentity.Reset(ctx, IdentityKey(identifier, ""))
}

// Windows returns the configured budgets keyed by limiter name.
func (l *LoginLimiter) Windows() map[string]rate.Window {
	if l == nil {
		return nil
	}
	return map[string]rate.Window{
		LoginIP:             l.loginIP.Window(),
		FailedLoginIP:       l.failedLoginIP.Window(),
		FailedLoginIdentity: l.failedLoginIdentity.Window(),
	}
}

// IdentityKey normalizes a submitted login identifier, falling back to the
// source IP when none was given.
func IdentityKey(identifier, ip string) string {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" {
		if ip == "" {
			return ""
		}
		return "ip:" + ip
	}
	return "id:" + identifier
}

func violation(name string, err error) error {
	if errors.Is(err, rate.ErrRateLimited) {
		return &Violation{Limiter: name}
	}
	return err
}
