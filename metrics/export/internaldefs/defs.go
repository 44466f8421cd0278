package internaldefs

import (
	schoolGuard "github.com/MrEthical07/schoolGuard"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   schoolGuard.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   schoolGuard.MetricID
	Name string
	Help string
}

// AuditDroppedName and AuditFailedName are exported alongside the engine
// counters; they come from the audit dispatcher.
const (
	AuditDroppedName = "schoolguard_audit_dropped_total"
	AuditFailedName  = "schoolguard_audit_write_failed_total"
)

// CounterDefs lists every engine counter in export order.
var CounterDefs = []CounterDef{
	{ID: schoolGuard.MetricLoginSuccess, Name: "schoolguard_login_success_total", Help: "Successful logins."},
	{ID: schoolGuard.MetricLoginFailure, Name: "schoolguard_login_failure_total", Help: "Logins rejected for invalid credentials."},
	{ID: schoolGuard.MetricLoginMalformed, Name: "schoolguard_login_malformed_total", Help: "Login requests missing identifier or secret."},
	{ID: schoolGuard.MetricLoginLocked, Name: "schoolguard_login_locked_total", Help: "Login attempts rejected by the lockout pre-check."},
	{ID: schoolGuard.MetricLoginRateLimited, Name: "schoolguard_login_rate_limited_total", Help: "Login attempts rejected by a rate limiter."},
	{ID: schoolGuard.MetricLockoutApplied, Name: "schoolguard_lockout_applied_total", Help: "Lockout windows applied."},
	{ID: schoolGuard.MetricLockoutUnlocked, Name: "schoolguard_lockout_unlocked_total", Help: "Lockouts cleared by expiry or administrator."},
	{ID: schoolGuard.MetricAuthSuccess, Name: "schoolguard_authenticate_success_total", Help: "Bearer tokens accepted by the authentication gate."},
	{ID: schoolGuard.MetricTokenInvalid, Name: "schoolguard_token_invalid_total", Help: "Bearer tokens rejected as missing, invalid or expired."},
	{ID: schoolGuard.MetricTokenRevoked, Name: "schoolguard_token_revoked_rejected_total", Help: "Requests rejected for presenting a revoked token."},
	{ID: schoolGuard.MetricRevocationCreated, Name: "schoolguard_revocation_created_total", Help: "Tokens revoked."},
	{ID: schoolGuard.MetricRevocationSwept, Name: "schoolguard_revocation_swept_total", Help: "Expired revocation records removed by the sweep."},
	{ID: schoolGuard.MetricPermissionDenied, Name: "schoolguard_permission_denied_total", Help: "Requests rejected by the authorization gate."},
	{ID: schoolGuard.MetricCSRFFailure, Name: "schoolguard_csrf_failure_total", Help: "Requests rejected by the CSRF guard."},
	{ID: schoolGuard.MetricPasswordRejected, Name: "schoolguard_password_rejected_total", Help: "Passwords rejected by the policy validator."},
	{ID: schoolGuard.MetricAuditPurged, Name: "schoolguard_audit_purged_total", Help: "Audit entries removed by retention purges."},
}

// HistogramDefs lists the exported histograms.
var HistogramDefs = []HistogramDef{
	{ID: schoolGuard.MetricAuthenticateLatency, Name: "schoolguard_authenticate_latency_seconds", Help: "Authentication gate latency."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds. The last
// engine bucket is +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket, +Inf included, for exporters
// without native histograms.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the engine bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
