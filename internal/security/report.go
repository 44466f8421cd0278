package security

import "time"

type PasswordReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

type LimiterReport struct {
	Name   string
	Max    int
	Window time.Duration
	Active bool
}

type Report struct {
	SigningAlgorithm    string
	AccessTTL           time.Duration
	Leeway              time.Duration
	Argon2              PasswordReport
	LockoutThresholds   []int
	MaxLockout          time.Duration
	Limiters            []LimiterReport
	RateLimitingActive  bool
	SharedCounters      bool
	SharedRevocation    bool
	CSRFCookieSecure    bool
	AuditEnabled        bool
	AuditDropIfFull     bool
	AuditRetention      time.Duration
	PasswordMinLength   int
	CommonPasswordCheck bool
	Warnings            []string
}

type ReportInput struct {
	SigningAlgorithm    string
	AccessTTL           time.Duration
	Leeway              time.Duration
	Password            PasswordReport
	LockoutThresholds   []int
	LockoutDurations    []time.Duration
	Limiters            []LimiterReport
	RedisBacked         bool
	RedisRevocation     bool
	CSRFCookieSecure    bool
	AuditEnabled        bool
	AuditDropIfFull     bool
	AuditRetention      time.Duration
	PasswordMinLength   int
	CommonPasswordCheck bool
}

const (
	WarnLongAccessTTL     = "access_ttl_over_24h"
	WarnNoRateLimiting    = "rate_limiting_disabled"
	WarnNoLockout         = "lockout_disabled"
	WarnInsecureCSRF      = "csrf_cookie_not_secure"
	WarnAuditDisabled     = "audit_disabled"
	WarnAuditMayBlock     = "audit_may_block_requests"
	WarnShortPasswords    = "password_min_length_under_8"
	WarnProcessLocalLimit = "rate_limits_process_local"
)

func BuildReport(input ReportInput) Report {
	limiters := make([]LimiterReport, len(input.Limiters))
	copy(limiters, input.Limiters)

	active := false
	for i := range limiters {
		limiters[i].Active = limiters[i].Max > 0 && limiters[i].Window > 0
		active = active || limiters[i].Active
	}

	var maxLockout time.Duration
	for _, d := range input.LockoutDurations {
		if d > maxLockout {
			maxLockout = d
		}
	}

	var warnings []string
	if input.AccessTTL > 24*time.Hour {
		warnings = append(warnings, WarnLongAccessTTL)
	}
	if !active {
		warnings = append(warnings, WarnNoRateLimiting)
	} else if !input.RedisBacked {
		warnings = append(warnings, WarnProcessLocalLimit)
	}
	if len(input.LockoutThresholds) == 0 {
		warnings = append(warnings, WarnNoLockout)
	}
	if !input.CSRFCookieSecure {
		warnings = append(warnings, WarnInsecureCSRF)
	}
	if !input.AuditEnabled {
		warnings = append(warnings, WarnAuditDisabled)
	} else if !input.AuditDropIfFull {
		warnings = append(warnings, WarnAuditMayBlock)
	}
	if input.PasswordMinLength < 8 {
		warnings = append(warnings, WarnShortPasswords)
	}

	return Report{
		SigningAlgorithm:    input.SigningAlgorithm,
		AccessTTL:           input.AccessTTL,
		Leeway:              input.Leeway,
		Argon2:              input.Password,
		LockoutThresholds:   append([]int(nil), input.LockoutThresholds...),
		MaxLockout:          maxLockout,
		Limiters:            limiters,
		RateLimitingActive:  active,
		SharedCounters:      input.RedisBacked,
		SharedRevocation:    input.RedisRevocation,
		CSRFCookieSecure:    input.CSRFCookieSecure,
		AuditEnabled:        input.AuditEnabled,
		AuditDropIfFull:     input.AuditDropIfFull,
		AuditRetention:      input.AuditRetention,
		PasswordMinLength:   input.PasswordMinLength,
		CommonPasswordCheck: input.CommonPasswordCheck,
		Warnings:            warnings,
	}
}
