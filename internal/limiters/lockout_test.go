package limiters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/schoolGuard/internal/rate"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestDurationForPicksHighestCrossedThreshold(t *testing.T) {
	table := DefaultEscalation()
	tests := []struct {
		attempts int
		want     time.Duration
		ok       bool
	}{
		{attempts: 0},
		{attempts: 2},
		{attempts: 3, want: 5 * time.Minute, ok: true},
		{attempts: 4, want: 5 * time.Minute, ok: true},
		{attempts: 5, want: 15 * time.Minute, ok: true},
		{attempts: 9, want: 15 * time.Minute, ok: true},
		{attempts: 10, want: 60 * time.Minute, ok: true},
		{attempts: 15, want: 24 * time.Hour, ok: true},
		{attempts: 400, want: 24 * time.Hour, ok: true},
	}
	for _, tt := range tests {
		got, ok := table.DurationFor(tt.attempts)
		if got != tt.want || ok != tt.ok {
			t.Errorf("DurationFor(%d) = %v, %v; want %v, %v", tt.attempts, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEscalationValidate(t *testing.T) {
	if err := DefaultEscalation().Validate(); err != nil {
		t.Fatalf("default table invalid: %v", err)
	}
	if err := (Escalation{}).Validate(); !errors.Is(err, ErrEmptyEscalation) {
		t.Fatalf("empty err = %v", err)
	}
	bad := Escalation{{Attempts: 5, Duration: time.Minute}, {Attempts: 3, Duration: time.Minute}}
	if err := bad.Validate(); !errors.Is(err, ErrEscalationOrder) {
		t.Fatalf("unordered err = %v", err)
	}
	if err := bad.Sorted().Validate(); err != nil {
		t.Fatalf("sorted table invalid: %v", err)
	}
	if err := (Escalation{{Attempts: 1, Duration: 0}}).Validate(); !errors.Is(err, ErrEscalationOrder) {
		t.Fatalf("zero duration err = %v", err)
	}
}

func TestApplyFailureSequence(t *testing.T) {
	table := DefaultEscalation()
	var state LockoutState

	for i := 1; i <= 2; i++ {
		out := ApplyFailure(state, table, t0)
		if out.Applied {
			t.Fatalf("failure %d applied a lockout", i)
		}
		state = out.State
	}

	out := ApplyFailure(state, table, t0)
	if !out.Applied || out.Duration != 5*time.Minute {
		t.Fatalf("third failure = %+v", out)
	}
	if !out.State.LockedUntil.Equal(t0.Add(5 * time.Minute)) {
		t.Fatalf("LockedUntil = %v", out.State.LockedUntil)
	}
	if out.State.Failures != 3 || !out.State.LastFailureAt.Equal(t0) {
		t.Fatalf("state = %+v", out.State)
	}
}

func TestPrecheck(t *testing.T) {
	locked := LockoutState{Failures: 3, LockedUntil: t0.Add(time.Minute)}
	if got := Precheck(locked, t0); got != PrecheckLocked {
		t.Fatalf("active lockout = %v", got)
	}
	if got := Precheck(locked, t0.Add(time.Minute)); got != PrecheckExpired {
		t.Fatalf("lockout at boundary = %v", got)
	}
	if got := Precheck(LockoutState{Failures: 2}, t0); got != PrecheckOpen {
		t.Fatalf("unlocked = %v", got)
	}
}

func TestClearExpired(t *testing.T) {
	s := LockoutState{Failures: 3, LastFailureAt: t0, LockedUntil: t0.Add(time.Minute)}

	if got := ClearExpired(s, true); got != (LockoutState{}) {
		t.Fatalf("reset = %+v", got)
	}

	kept := ClearExpired(s, false)
	if kept.Failures != 3 || !kept.LockedUntil.IsZero() || !kept.LastFailureAt.Equal(t0) {
		t.Fatalf("kept = %+v", kept)
	}
	// The next failure then escalates from the kept count.
	if out := ApplyFailure(kept, DefaultEscalation(), t0); out.Duration != 5*time.Minute || out.State.Failures != 4 {
		t.Fatalf("after keep = %+v", out)
	}
}

func TestRemainingMinutes(t *testing.T) {
	tests := []struct {
		left time.Duration
		want int
	}{
		{left: 5 * time.Minute, want: 5},
		{left: 4*time.Minute + time.Second, want: 5},
		{left: time.Second, want: 1},
		{left: 0, want: 0},
		{left: -time.Minute, want: 0},
	}
	for _, tt := range tests {
		if got := RemainingMinutes(t0.Add(tt.left), t0); got != tt.want {
			t.Errorf("RemainingMinutes(%v) = %d, want %d", tt.left, got, tt.want)
		}
	}
}

func TestLoginLimiterWindowsAreIndependent(t *testing.T) {
	ctx := context.Background()
	now := t0
	counter := rate.NewMemoryCounter(func() time.Time { return now })
	l := NewLoginLimiter(counter, LoginConfig{
		LoginIP:             rate.Window{Max: 5, Window: 15 * time.Minute},
		FailedLoginIP:       rate.Window{Max: 10, Window: time.Hour},
		FailedLoginIdentity: rate.Window{Max: 3, Window: 5 * time.Minute},
	})

	for i := 0; i < 3; i++ {
		if err := l.RecordFailure(ctx, "10.0.0.1", "User@X.com"); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}

	var v *Violation
	err := l.CheckFailures(ctx, "10.0.0.1", "user@x.com")
	if !errors.As(err, &v) || v.Limiter != FailedLoginIdentity {
		t.Fatalf("CheckFailures err = %v, want identity violation", err)
	}
	if !errors.Is(err, rate.ErrRateLimited) {
		t.Fatal("violation does not wrap ErrRateLimited")
	}

	// A different identifier from the same IP is still under the IP budget.
	if err := l.CheckFailures(ctx, "10.0.0.1", "other@x.com"); err != nil {
		t.Fatalf("other identifier rejected: %v", err)
	}

	// Request volume is tracked separately.
	for i := 1; i <= 5; i++ {
		if err := l.HitRequest(ctx, "10.0.0.1"); err != nil {
			t.Fatalf("request %d rejected: %v", i, err)
		}
	}
	err = l.HitRequest(ctx, "10.0.0.1")
	if !errors.As(err, &v) || v.Limiter != LoginIP {
		t.Fatalf("6th request err = %v, want login_ip violation", err)
	}

	now = now.Add(5 * time.Minute)
	if err := l.CheckFailures(ctx, "10.0.0.1", "user@x.com"); err != nil {
		t.Fatalf("identity window did not close: %v", err)
	}
	if err := l.HitRequest(ctx, "10.0.0.1"); !errors.As(err, &v) {
		t.Fatal("login_ip window closed early")
	}
}

func TestIdentityKeyFallsBackToIP(t *testing.T) {
	if got := IdentityKey("  A@B.com ", "1.2.3.4"); got != "id:a@b.com" {
		t.Fatalf("IdentityKey = %q", got)
	}
	if got := IdentityKey("", "1.2.3.4"); got != "ip:1.2.3.4" {
		t.Fatalf("fallback = %q", got)
	}
	if got := IdentityKey("", ""); got != "" {
		t.Fatalf("empty = %q", got)
	}
}

func TestNilLoginLimiter(t *testing.T) {
	var l *LoginLimiter
	if err := l.HitRequest(context.Background(), "ip"); err != nil {
		t.Fatal(err)
	}
	if err := l.CheckFailures(context.Background(), "ip", "id"); err != nil {
		t.Fatal(err)
	}
}
