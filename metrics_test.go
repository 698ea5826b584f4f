package estateauth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/peanechestate/estateauth/session"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricLoginSuccess)

	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if snap := m.Snapshot(); len(snap.Counters) != 0 {
		t.Fatalf("expected empty snapshot, got %v", snap.Counters)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricLogout)
	m.Observe(MetricVerifyLatency, time.Millisecond)

	if m.Enabled() || m.Value(MetricLogout) != 0 {
		t.Fatal("nil metrics must record nothing")
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
				m.Inc(MetricSessionRecovered)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricSessionRecovered); got != want {
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
		50 * time.Millisecond,
		75 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		time.Second,
		2 * time.Second,
		3 * time.Second,
	}
	for _, d := range observations {
		m.Observe(MetricVerifyLatency, d)
	}

	buckets := m.Snapshot().Histograms[MetricVerifyLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}
	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
}

func TestMetricsObserveIgnoresCounters(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	m.Observe(MetricLoginSuccess, time.Millisecond)

	snap := m.Snapshot()
	if _, ok := snap.Histograms[MetricLoginSuccess]; ok {
		t.Fatal("counters must not carry a histogram")
	}
	if _, ok := snap.Counters[MetricVerifyLatency]; ok {
		t.Fatal("latency histogram must not appear as a counter")
	}
}

func TestEngineCountsTransitions(t *testing.T) {
	e := newRecoveredEngine(t, session.NewMemoryStore(), func(b *Builder) {
		b.WithLatencyHistograms(true)
	})
	ctx := context.Background()

	_ = e.Login(ctx, LoginCredentials{Email: "x@y.com", Password: seededPassword})
	_ = e.Login(ctx, LoginCredentials{Email: "admin@peanechestate.com", Password: seededPassword})
	_ = e.Register(ctx, RegisterData{Name: "Dup", Email: "admin@peanechestate.com", Password: "p", Role: RoleAdmin})
	_ = e.Register(ctx, RegisterData{Name: "New", Email: "new@example.com", Password: "p", Role: RoleAdmin})
	e.Logout(ctx)

	snap := e.MetricsSnapshot()
	want := map[MetricID]uint64{
		MetricSessionAbsent:   1,
		MetricLoginFailure:    1,
		MetricLoginSuccess:    1,
		MetricRegisterFailure: 1,
		MetricRegisterSuccess: 1,
		MetricLogout:          1,
	}
	for id, v := range want {
		if snap.Counters[id] != v {
			t.Fatalf("metric %d: expected %d, got %d", id, v, snap.Counters[id])
		}
	}

	var total uint64
	for _, v := range snap.Histograms[MetricVerifyLatency] {
		total += v
	}
	if total != 4 {
		t.Fatalf("expected 4 verifier observations, got %d", total)
	}
}

func TestEngineMetricsDisabled(t *testing.T) {
	e := newRecoveredEngine(t, session.NewMemoryStore(), func(b *Builder) {
		b.WithMetricsEnabled(false)
	})
	_ = e.Login(context.Background(), LoginCredentials{Email: "admin@peanechestate.com", Password: seededPassword})

	if n := len(e.MetricsSnapshot().Counters); n != 0 {
		t.Fatalf("expected no counters, got %d", n)
	}
}
