package schoolGuard

import (
	"context"
	"strconv"
	"time"
)

// PurgeAudit removes audit entries older than Audit.Retention and records
// one audit_retention_purge summary. The sink must implement
// [AuditPurger], otherwise ErrAuditPurgeUnsupported is returned.
func (e *Engine) PurgeAudit(ctx context.Context) (int, error) {
	if e == nil {
		return 0, ErrEngineNotReady
	}
	purger, ok := e.auditSink.(AuditPurger)
	if !ok {
		return 0, ErrAuditPurgeUnsupported
	}
	if e.config.Audit.Retention <= 0 {
		return 0, nil
	}

	cutoff := e.now().Add(-e.config.Audit.Retention)
	removed, err := purger.PurgeBefore(ctx, cutoff)
	if err != nil {
		return 0, storeUnavailable("purge audit", err)
	}

	e.metrics.Add(MetricAuditPurged, uint64(removed))
	e.emitAudit(ctx, AuditRetentionPurge, "", "", "audit retention purge", func() map[string]string {
		return map[string]string{
			"removed": strconv.Itoa(removed),
			"cutoff":  cutoff.UTC().Format(time.RFC3339),
		}
	})
	return removed, nil
}

// RunMaintenance blocks until ctx ends, sweeping expired revocations
// every Revocation.SweepInterval and purging audit entries every
// Audit.PurgeInterval. A zero interval disables that job. Failures are
// logged and retried on the next tick.
func (e *Engine) RunMaintenance(ctx context.Context) {
	if e == nil {
		return
	}

	sweep := newTicker(e.config.Revocation.SweepInterval)
	defer sweep.stop()
	_, purgeSupported := e.auditSink.(AuditPurger)
	purgeInterval := e.config.Audit.PurgeInterval
	if !purgeSupported || !e.config.Audit.Enabled {
		purgeInterval = 0
	}
	purge := newTicker(purgeInterval)
	defer purge.stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweep.c:
			removed, err := e.SweepRevoked(ctx)
			if err != nil {
				e.logger.Warn("revocation sweep failed", "error", err)
				continue
			}
			if e.memCounter != nil {
				e.memCounter.Cleanup()
			}
			e.logger.Debug("revocation sweep", "removed", removed)
		case <-purge.c:
			removed, err := e.PurgeAudit(ctx)
			if err != nil {
				e.logger.Warn("audit purge failed", "error", err)
				continue
			}
			e.logger.Info("audit purge", "removed", removed)
		}
	}
}

type ticker struct {
	t *time.Ticker
	c <-chan time.Time
}

// newTicker returns a ticker whose channel never fires for d <= 0.
func newTicker(d time.Duration) ticker {
	if d <= 0 {
		return ticker{}
	}
	t := time.NewTicker(d)
	return ticker{t: t, c: t.C}
}

func (t ticker) stop() {
	if t.t != nil {
		t.t.Stop()
	}
}
