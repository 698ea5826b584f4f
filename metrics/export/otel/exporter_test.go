package otel

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/peanechestate/estateauth"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot estateauth.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() estateauth.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := estateauth.MetricsSnapshot{
		Counters:   make(map[estateauth.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[estateauth.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		out.Histograms[k] = append([]uint64(nil), buckets...)
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func newReader() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					out[m.Name] = dp.Value
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					out[m.Name] = dp.Value
				}
			}
		}
	}
	return out
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader, provider := newReader()

	src := &fakeSource{
		snapshot: estateauth.MetricsSnapshot{
			Counters: map[estateauth.MetricID]uint64{
				estateauth.MetricLoginSuccess: 3,
				estateauth.MetricLogout:       1,
			},
			Histograms: map[estateauth.MetricID][]uint64{
				estateauth.MetricVerifyLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped: 4,
	}

	exp, err := NewExporter(provider.Meter("estateauth-test"), src)
	require.NoError(t, err)
	defer func() { assert.NoError(t, exp.Close()) }()

	got := collect(t, reader)
	assert.Equal(t, int64(3), got["estateauth_login_success_total"])
	assert.Equal(t, int64(1), got["estateauth_logout_total"])
	assert.Equal(t, int64(4), got["estateauth_audit_dropped_total"])
	assert.Equal(t, int64(1), got["estateauth_verify_latency_seconds_bucket_le_0_01"])
	assert.Equal(t, int64(7), got["estateauth_verify_latency_seconds_bucket_le_2_5"])
	assert.Equal(t, int64(8), got["estateauth_verify_latency_seconds_bucket_le_inf"])
	assert.Equal(t, int64(8), got["estateauth_verify_latency_seconds_count"])
}

func TestExporterSkipsDisabledHistogram(t *testing.T) {
	reader, provider := newReader()

	src := &fakeSource{
		snapshot: estateauth.MetricsSnapshot{
			Counters:   map[estateauth.MetricID]uint64{},
			Histograms: map[estateauth.MetricID][]uint64{},
		},
	}

	exp, err := NewExporter(provider.Meter("estateauth-test"), src)
	require.NoError(t, err)
	defer exp.Close()

	got := collect(t, reader)
	_, present := got["estateauth_verify_latency_seconds_count"]
	assert.False(t, present)
}

func TestExporterRejectsNilArguments(t *testing.T) {
	_, provider := newReader()

	_, err := NewExporter(provider.Meter("estateauth-test"), nil)
	assert.ErrorIs(t, err, ErrNilSource)

	_, err = NewExporter(nil, &fakeSource{})
	assert.ErrorIs(t, err, ErrNilMeter)
}

func TestExporterCloseStopsReporting(t *testing.T) {
	reader, provider := newReader()

	src := &fakeSource{
		snapshot: estateauth.MetricsSnapshot{
			Counters: map[estateauth.MetricID]uint64{estateauth.MetricLoginSuccess: 2},
		},
	}

	exp, err := NewExporter(provider.Meter("estateauth-test"), src)
	require.NoError(t, err)
	require.NoError(t, exp.Close())

	got := collect(t, reader)
	assert.Empty(t, got)
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader, provider := newReader()

	src := &fakeSource{
		snapshot: estateauth.MetricsSnapshot{
			Counters: map[estateauth.MetricID]uint64{
				estateauth.MetricLoginSuccess: 1,
			},
			Histograms: map[estateauth.MetricID][]uint64{
				estateauth.MetricVerifyLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := NewExporter(provider.Meter("estateauth-test"), src)
	require.NoError(t, err)
	defer exp.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[estateauth.MetricLoginSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
