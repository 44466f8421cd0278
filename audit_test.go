package schoolGuard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type failingSink struct{}

func (failingSink) Write(context.Context, AuditEntry) error { return errors.New("disk full") }

func TestAuditEntriesCarryRequestMetadata(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := WithUserAgent(ipContext("203.0.113.7"), "pytest/1.0")
	env.engine.CheckCSRF(ctx, CSRFCheck{Method: "POST", Path: "/grades", IdentityID: "u-teacher"})

	entries := env.auditEntries(t, AuditCSRFFailure)
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	e := entries[0]
	if e.Metadata["ip"] != "203.0.113.7" || e.Metadata["user_agent"] != "pytest/1.0" || e.Metadata["path"] != "/grades" {
		t.Fatalf("metadata = %+v", e.Metadata)
	}
	if e.ActorID != "u-teacher" || e.ID == "" || e.Hash == "" {
		t.Fatalf("entry = %+v", e)
	}
	if !e.Timestamp.Equal(env.clock.Now()) {
		t.Fatalf("timestamp = %v", e.Timestamp)
	}
}

func TestAuditFailureNeverChangesDecision(t *testing.T) {
	identities := NewMemoryIdentityStore()
	identities.Put(Identity{ID: "u1", Email: "a@school.test", Role: RoleTeacher, SecretHash: "plain:ok"})
	engine, err := New().WithConfig(noLimitsConfig()).
		WithIdentityStore(identities).
		WithVerifier(plainVerifier{}).
		WithAuditSink(failingSink{}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()

	if _, err := engine.Login(context.Background(), LoginRequest{Identifier: "a@school.test", Secret: "ok"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	engine.FlushAudit(ctx)
	if engine.AuditFailed() == 0 {
		t.Fatal("expected failed audit writes to be counted")
	}
}

func TestAuditDisabledEmitsNothing(t *testing.T) {
	cfg := testConfig()
	cfg.Audit.Enabled = false
	env := newTestEnv(t, cfg)
	env.engine.CheckCSRF(context.Background(), CSRFCheck{Method: "POST"})
	if n := len(env.auditActions(t)); n != 0 {
		t.Fatalf("entries = %d", n)
	}
}

func TestJSONWriterAuditSink(t *testing.T) {
	var buf bytes.Buffer
	identities := NewMemoryIdentityStore()
	engine, err := New().WithConfig(testConfig()).
		WithIdentityStore(identities).
		WithAuditSink(NewJSONWriterAuditSink(&buf)).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	engine.CheckCSRF(context.Background(), CSRFCheck{Method: "DELETE"})
	engine.Close()

	var entry AuditEntry
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if entry.Action != string(AuditCSRFFailure) {
		t.Fatalf("action = %s", entry.Action)
	}
}
