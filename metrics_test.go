package schoolGuard

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricLoginSuccess)

	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if snap := m.Snapshot(); len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestMetricsEnabledIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Add(MetricRevocationSwept, 7)

	if got := m.Value(MetricLoginSuccess); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	if got := m.Value(MetricRevocationSwept); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricLoginFailure)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricLoginFailure); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		5 * time.Millisecond,
		10 * time.Millisecond,
		25 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		250 * time.Millisecond,
		500 * time.Millisecond,
		700 * time.Millisecond,
	}
	for _, d := range observations {
		m.Observe(MetricAuthenticateLatency, d)
	}
	// Counters never carry a histogram.
	m.Observe(MetricLoginSuccess, time.Millisecond)

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricAuthenticateLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}
	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
	if _, ok := snap.Histograms[MetricLoginSuccess]; ok {
		t.Fatal("unexpected histogram for a counter")
	}
	if _, ok := snap.Counters[MetricAuthenticateLatency]; ok {
		t.Fatal("latency slot must not appear as a counter")
	}
}

func TestEngineCountsSecurityDecisions(t *testing.T) {
	env := newTestEnv(t, noLimitsConfig())
	ctx := ipContext("10.9.9.9")

	env.engine.Login(ctx, LoginRequest{Identifier: "parent@school.test", Secret: "bad"})
	env.engine.Login(ctx, LoginRequest{})
	env.engine.Login(ctx, LoginRequest{Identifier: "parent@school.test", Secret: "Parent#2026"})
	env.engine.CheckCSRF(context.Background(), CSRFCheck{Method: "POST"})

	snap := env.engine.MetricsSnapshot()
	checks := map[MetricID]uint64{
		MetricLoginFailure:   1,
		MetricLoginMalformed: 1,
		MetricLoginSuccess:   1,
		MetricCSRFFailure:    1,
	}
	for id, want := range checks {
		if got := snap.Counters[id]; got != want {
			t.Errorf("metric %d = %d, want %d", id, got, want)
		}
	}
}
