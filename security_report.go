package schoolGuard

import (
	"github.com/MrEthical07/schoolGuard/internal/limiters"
	"github.com/MrEthical07/schoolGuard/internal/security"
	"github.com/MrEthical07/schoolGuard/revocation"
)

// SecurityReport is a read-only snapshot of the effective security
// posture. Warnings name weak settings, e.g. "rate_limits_process_local".
type SecurityReport = security.Report

// LimiterReport describes one login throttle in a [SecurityReport].
type LimiterReport = security.LimiterReport

// PasswordConfigReport mirrors the Argon2id cost parameters.
type PasswordConfigReport = security.PasswordReport

// SecurityReport returns the current posture. It performs no I/O.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	table := e.escalation.Sorted()
	thresholds := make([]int, len(table))
	input := security.ReportInput{
		SigningAlgorithm: e.config.JWT.SigningMethod,
		AccessTTL:        e.config.JWT.AccessTTL,
		Leeway:           e.config.JWT.Leeway,
		Password: security.PasswordReport{
			Memory:      e.config.Password.Argon2.Memory,
			Time:        e.config.Password.Argon2.Time,
			Parallelism: e.config.Password.Argon2.Parallelism,
			SaltLength:  e.config.Password.Argon2.SaltLength,
			KeyLength:   e.config.Password.Argon2.KeyLength,
		},
		RedisBacked:         e.memCounter == nil,
		CSRFCookieSecure:    e.config.CSRF.Secure,
		AuditEnabled:        e.config.Audit.Enabled,
		AuditDropIfFull:     e.config.Audit.DropIfFull,
		AuditRetention:      e.config.Audit.Retention,
		PasswordMinLength:   e.config.Password.Policy.MinLength,
		CommonPasswordCheck: e.config.Password.Policy.CheckCommon,
	}
	for i, step := range table {
		thresholds[i] = step.Attempts
		input.LockoutDurations = append(input.LockoutDurations, step.Duration)
	}
	input.LockoutThresholds = thresholds

	if _, local := e.revocations.(*revocation.MemoryStore); !local {
		input.RedisRevocation = true
	}

	windows := e.loginLimiter.Windows()
	for _, name := range []string{limiters.LoginIP, limiters.FailedLoginIP, limiters.FailedLoginIdentity} {
		w := windows[name]
		input.Limiters = append(input.Limiters, security.LimiterReport{Name: name, Max: w.Max, Window: w.Window})
	}

	return security.BuildReport(input)
}
