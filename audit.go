package schoolGuard

import (
	"io"

	internalaudit "github.com/MrEthical07/schoolGuard/internal/audit"
)

// AuditAction is the closed set of audit entry kinds.
type AuditAction string

const (
	AuditLockoutCheck              AuditAction = "lockout_check"
	AuditLockoutApplied            AuditAction = "lockout_applied"
	AuditLockoutUnlock             AuditAction = "lockout_unlock"
	AuditRateLimitViolation        AuditAction = "rate_limit_violation"
	AuditCSRFFailure               AuditAction = "csrf_failure"
	AuditPasswordValidationFailure AuditAction = "password_validation_failure"
	AuditTokenRevoked              AuditAction = "token_revoked"
	AuditTokenCleanup              AuditAction = "token_cleanup"
	AuditAuthenticationFailure     AuditAction = "authentication_failure"
	AuditPermissionDenied          AuditAction = "permission_denied"
	AuditLoginSuccess              AuditAction = "login_success"
	AuditRetentionPurge            AuditAction = "audit_retention_purge"
)

// NoOpAuditSink discards entries.
type NoOpAuditSink = internalaudit.NoOpSink

// ChannelAuditSink forwards entries to a buffered channel.
type ChannelAuditSink = internalaudit.ChannelSink

// JSONWriterAuditSink writes one JSON object per line.
type JSONWriterAuditSink = internalaudit.JSONWriterSink

// MemoryAuditStore keeps entries in memory and supports retention purges.
type MemoryAuditStore = internalaudit.MemoryStore

// NewChannelAuditSink returns a sink buffering up to buffer entries.
func NewChannelAuditSink(buffer int) *ChannelAuditSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterAuditSink returns a sink writing to w.
func NewJSONWriterAuditSink(w io.Writer) *JSONWriterAuditSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewMemoryAuditStore returns an empty in-memory audit store.
func NewMemoryAuditStore() *MemoryAuditStore {
	return internalaudit.NewMemoryStore()
}

// VerifyAuditChain checks that entries, in write order, are unmodified and
// contiguous. It returns an error wrapping the chain-broken sentinel at the
// first bad link.
func VerifyAuditChain(entries []AuditEntry) error {
	return internalaudit.VerifyChain(entries)
}

// ErrAuditChainBroken is wrapped by [VerifyAuditChain] failures.
var ErrAuditChainBroken = internalaudit.ErrChainBroken
