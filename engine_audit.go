package schoolGuard

import (
	"context"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/schoolGuard/internal/audit"
	xrate "golang.org/x/time/rate"
)

// auditFallbackBurst bounds how many audit-write failures are logged
// back to back before the fallback log is throttled to one per second.
const auditFallbackBurst = 5

func (e *Engine) emitAudit(
	ctx context.Context,
	action AuditAction,
	actorID string,
	targetID string,
	description string,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	metadata := map[string]string{}
	if ip := ClientIPFromContext(ctx); ip != "" {
		metadata["ip"] = ip
	}
	if ua := userAgentFromContext(ctx); ua != "" {
		metadata["user_agent"] = ua
	}
	if metadataBuilder != nil {
		for k, v := range metadataBuilder() {
			if v != "" {
				metadata[k] = v
			}
		}
	}

	now := e.now().UTC()
	e.audit.Emit(ctx, AuditEntry{
		ID:          e.auditIDs.New(now),
		ActorID:     actorID,
		Action:      string(action),
		Description: description,
		TargetID:    targetID,
		Metadata:    metadata,
		Timestamp:   now,
	})
}

func (e *Engine) emitRateLimit(ctx context.Context, limiter, identifier string) {
	e.metricInc(MetricLoginRateLimited)
	e.emitAudit(ctx, AuditRateLimitViolation, "", identifier, "rate limit exceeded: "+limiter, func() map[string]string {
		return map[string]string{
			"limiter":    limiter,
			"identifier": identifier,
		}
	})
}

// newAuditFallback returns the dispatcher error callback. Failures are
// logged, never returned, and throttled so a dead store cannot flood the
// log.
func newAuditFallback(logger *slog.Logger) internalaudit.ErrorFunc {
	limiter := xrate.NewLimiter(xrate.Every(time.Second), auditFallbackBurst)
	return func(entry internalaudit.Entry, err error) {
		if !limiter.Allow() {
			return
		}
		logger.Warn("audit write failed",
			slog.String("action", entry.Action),
			slog.String("audit_id", entry.ID),
			slog.String("actor_id", entry.ActorID),
			slog.String("error", err.Error()),
		)
	}
}
