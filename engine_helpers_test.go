package schoolGuard

import (
	"context"
	"sync"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// fakeClock is a settable time source shared by the engine and its stores.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// plainVerifier accepts secret when encoded is "plain:"+secret.
type plainVerifier struct{}

func (plainVerifier) Verify(secret, encoded string) (bool, error) {
	return encoded == "plain:"+secret, nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte(testSecret)
	return cfg
}

// noLimitsConfig disables the three login throttles so lockout behaviour
// can be observed without 429s.
func noLimitsConfig() Config {
	cfg := testConfig()
	cfg.RateLimit.LoginIP = RateWindow{}
	cfg.RateLimit.FailedLoginIP = RateWindow{}
	cfg.RateLimit.FailedLoginIdentity = RateWindow{}
	return cfg
}

type testEnv struct {
	engine     *Engine
	clock      *fakeClock
	identities *MemoryIdentityStore
	audit      *MemoryAuditStore
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()
	clock := newFakeClock()
	identities := NewMemoryIdentityStore()
	identities.Put(Identity{ID: "u-admin", Email: "admin@school.test", Role: RoleAdmin, SecretHash: "plain:Admin#2026"})
	identities.Put(Identity{ID: "u-teacher", Email: "teacher@school.test", Role: RoleTeacher, SecretHash: "plain:Teach#2026"})
	identities.Put(Identity{ID: "u-parent", Email: "parent@school.test", Role: RoleParent, SecretHash: "plain:Parent#2026"})

	sink := NewMemoryAuditStore()
	engine, err := New().
		WithConfig(cfg).
		WithClock(clock.Now).
		WithIdentityStore(identities).
		WithVerifier(plainVerifier{}).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)
	return &testEnv{engine: engine, clock: clock, identities: identities, audit: sink}
}

func ipContext(ip string) context.Context {
	return WithClientIP(context.Background(), ip)
}

// auditActions flushes the dispatcher and returns recorded actions in order.
func (env *testEnv) auditActions(t *testing.T) []string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := env.engine.FlushAudit(ctx); err != nil {
		t.Fatalf("FlushAudit: %v", err)
	}
	entries := env.audit.Entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Action
	}
	return out
}

func (env *testEnv) auditEntries(t *testing.T, action AuditAction) []AuditEntry {
	t.Helper()
	env.auditActions(t)
	var out []AuditEntry
	for _, e := range env.audit.Entries() {
		if e.Action == string(action) {
			out = append(out, e)
		}
	}
	return out
}

func (env *testEnv) identity(t *testing.T, id string) *Identity {
	t.Helper()
	identity, err := env.identities.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByID(%s): %v", id, err)
	}
	return identity
}
