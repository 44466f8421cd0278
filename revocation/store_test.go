package revocation

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	mr, rdb := newTestRedis(t)
	mr.SetTime(t0)
	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  NewRedisStore(rdb, "", func() time.Time { return t0 }),
	}
}

func TestStoreExactTokenMatch(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			token := "eyJhbGciOiJIUzI1NiJ9.payload.signature"

			if err := s.Insert(ctx, Record{
				Token:      token,
				IdentityID: "u1",
				ExpiresAt:  t0.Add(time.Hour),
				Reason:     ReasonLogout,
				RevokedAt:  t0,
			}); err != nil {
				t.Fatalf("Insert: %v", err)
			}

			ok, err := s.Exists(ctx, token)
			if err != nil || !ok {
				t.Fatalf("Exists(token) = %v, %v", ok, err)
			}

			for _, other := range []string{
				"eyJhbGciOiJIUzI1NiJ9.payload.signaturE",
				"eyJhbGciOiJIUzI1NiJ9.payload.signatur",
				token + "x",
				"",
			} {
				ok, err := s.Exists(ctx, other)
				if err != nil || ok {
					t.Fatalf("Exists(%q) = %v, %v; want false", other, ok, err)
				}
			}
		})
	}
}

func TestStoreDuplicateInsert(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := Record{Token: "tok", IdentityID: "u1", ExpiresAt: t0.Add(time.Hour), Reason: ReasonManual, RevokedBy: "admin"}

			if err := s.Insert(ctx, rec); err != nil {
				t.Fatalf("first Insert: %v", err)
			}
			err := s.Insert(ctx, rec)
			if !errors.Is(err, ErrAlreadyRevoked) {
				t.Fatalf("second Insert err = %v, want ErrAlreadyRevoked", err)
			}
			if errors.Is(err, ErrStoreUnavailable) {
				t.Fatal("duplicate reported as backend failure")
			}
		})
	}
}

func TestStoreDeleteExpiredStrictlyPast(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			recs := map[string]time.Time{
				"past":   t0.Add(-time.Minute),
				"past2":  t0.Add(-time.Microsecond),
				"now":    t0,
				"future": t0.Add(time.Minute),
			}
			for tok, exp := range recs {
				if err := s.Insert(ctx, Record{Token: tok, IdentityID: "u", ExpiresAt: exp, Reason: ReasonRotation}); err != nil {
					t.Fatalf("Insert %s: %v", tok, err)
				}
			}

			removed, err := s.DeleteExpired(ctx, t0)
			if err != nil {
				t.Fatalf("DeleteExpired: %v", err)
			}
			if removed != 2 {
				t.Fatalf("removed %d, want 2", removed)
			}

			for tok, want := range map[string]bool{"past": false, "past2": false, "now": true, "future": true} {
				got, err := s.Exists(ctx, tok)
				if err != nil {
					t.Fatalf("Exists %s: %v", tok, err)
				}
				if got != want {
					t.Errorf("Exists(%s) = %v, want %v", tok, got, want)
				}
			}

			// Sweeping again is a no-op.
			if removed, _ := s.DeleteExpired(ctx, t0); removed != 0 {
				t.Fatalf("second sweep removed %d", removed)
			}
		})
	}
}

func TestRedisStoreTTLAndUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()

	s := NewRedisStore(rdb, "test:rv:", func() time.Time { return t0 })
	ctx := context.Background()

	if err := s.Insert(ctx, Record{Token: "raw-token-value", ExpiresAt: t0.Add(90 * time.Second), Reason: ReasonLogout}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	key := "{test:rv}:" + Fingerprint("raw-token-value")
	if ttl := mr.TTL(key); ttl != 90*time.Second {
		t.Fatalf("TTL = %v, want 90s", ttl)
	}
	raw, err := mr.Get(key)
	if err != nil || raw == "" {
		t.Fatalf("stored payload = %q, %v", raw, err)
	}
	if strings.Contains(raw, "raw-token-value") {
		t.Fatalf("stored payload leaks the token: %q", raw)
	}

	mr.Close()
	if _, err := s.Exists(ctx, "raw-token-value"); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("Exists err = %v, want ErrStoreUnavailable", err)
	}
}

func TestRedisStoreKeysShareHashTag(t *testing.T) {
	mr, rdb := newTestRedis(t)
	mr.SetTime(t0)
	s := NewRedisStore(rdb, "", func() time.Time { return t0 })
	ctx := context.Background()

	// More expired records than one sweep batch, plus one live record.
	for i := 0; i < sweepBatch+10; i++ {
		tok := "expired-" + strconv.Itoa(i)
		if err := s.Insert(ctx, Record{Token: tok, ExpiresAt: t0.Add(-time.Minute), Reason: ReasonLogout}); err != nil {
			t.Fatalf("Insert %s: %v", tok, err)
		}
	}
	if err := s.Insert(ctx, Record{Token: "live", ExpiresAt: t0.Add(time.Hour), Reason: ReasonLogout}); err != nil {
		t.Fatalf("Insert live: %v", err)
	}

	for _, key := range mr.Keys() {
		if !strings.HasPrefix(key, DefaultRedisPrefix) {
			t.Fatalf("key %q outside the %s hash tag", key, DefaultRedisPrefix)
		}
	}

	removed, err := s.DeleteExpired(ctx, t0)
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if removed != sweepBatch+10 {
		t.Fatalf("removed %d, want %d", removed, sweepBatch+10)
	}
	if ok, _ := s.Exists(ctx, "live"); !ok {
		t.Fatal("live record swept")
	}
	if keys := mr.Keys(); len(keys) != 2 {
		t.Fatalf("remaining keys = %v", keys)
	}
}

func TestSlotPrefix(t *testing.T) {
	tests := map[string]string{
		"":           DefaultRedisPrefix,
		":":          DefaultRedisPrefix,
		"sg:rv:":     "{sg:rv}:",
		"app:rv":     "{app:rv}:",
		"{tenant}:x": "{tenant}:x",
		"{}:rv:":     "{{}:rv}:",
	}
	for in, want := range tests {
		if got := slotPrefix(in); got != want {
			t.Errorf("slotPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReasonValid(t *testing.T) {
	for _, r := range []Reason{ReasonLogout, ReasonSuspiciousActivity, ReasonManual, ReasonRotation} {
		if !r.Valid() {
			t.Errorf("%q should be valid", r)
		}
	}
	if Reason("expired").Valid() {
		t.Error("unknown reason accepted")
	}
}
