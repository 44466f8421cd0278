package schoolGuard

import (
	"context"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/schoolGuard/internal/audit"
	"github.com/MrEthical07/schoolGuard/internal/limiters"
	"github.com/MrEthical07/schoolGuard/internal/rate"
	"github.com/MrEthical07/schoolGuard/jwt"
	"github.com/MrEthical07/schoolGuard/permission"
	"github.com/MrEthical07/schoolGuard/revocation"
)

// Engine is the security control plane. It is immutable after
// [Builder.Build] and safe for concurrent use.
type Engine struct {
	config Config
	now    func() time.Time
	logger *slog.Logger

	identities  IdentityStore
	verifier    CredentialVerifier
	catalog     *permission.Catalog
	jwtManager  *jwt.Manager
	revocations revocation.Store

	escalation   Escalation
	loginLimiter *limiters.LoginLimiter
	memCounter   *rate.MemoryCounter

	audit     *internalaudit.Dispatcher
	auditSink AuditSink
	auditIDs  *internalaudit.IDSource
	metrics   *Metrics
}

// Close describes the close operation and its observable behavior.
//
// Close drains pending audit entries and stops the dispatcher. It is safe
// to call more than once.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// FlushAudit blocks until every audit entry emitted so far has been handed
// to the sink, or ctx ends.
func (e *Engine) FlushAudit(ctx context.Context) error {
	if e == nil {
		return nil
	}
	return e.audit.Flush(ctx)
}

// AuditDropped returns the number of audit entries dropped because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// AuditFailed returns the number of audit entries the sink rejected.
func (e *Engine) AuditFailed() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Failed()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot copies every counter. It returns empty maps when metrics
// are disabled.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Catalog returns the frozen permission catalog.
func (e *Engine) Catalog() *permission.Catalog {
	if e == nil {
		return nil
	}
	return e.catalog
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// AuthHeader returns the request header carrying the bearer token.
func (e *Engine) AuthHeader() string {
	if e == nil {
		return "Authorization"
	}
	return e.config.JWT.Header
}

// CSRFConfig returns the CSRF cookie, header and form field names.
func (e *Engine) CSRFConfig() CSRFConfig {
	if e == nil {
		return CSRFConfig{}
	}
	return e.config.CSRF
}
