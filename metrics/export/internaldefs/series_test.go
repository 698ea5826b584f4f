package internaldefs

import (
	"testing"

	"github.com/peanechestate/estateauth"
)

func TestFlatSamplesAlignWithSeries(t *testing.T) {
	series := FlatSeries()
	samples := FlatSamples(estateauth.MetricsSnapshot{
		Counters: map[estateauth.MetricID]uint64{estateauth.MetricLogout: 4},
		Histograms: map[estateauth.MetricID][]uint64{
			estateauth.MetricVerifyLatency: {1, 1, 1, 1, 1, 1, 1, 1},
		},
	}, 9)

	if len(series) != len(samples) {
		t.Fatalf("series/sample length mismatch: %d vs %d", len(series), len(samples))
	}

	byName := make(map[string]Sample, len(series))
	for i, s := range series {
		byName[s.Name] = samples[i]
	}

	if v := byName["estateauth_logout_total"]; !v.Present || v.Value != 4 {
		t.Fatalf("unexpected logout sample %+v", v)
	}
	if v := byName["estateauth_verify_latency_seconds_bucket_le_0_01"]; v.Value != 1 {
		t.Fatalf("expected first bucket 1, got %+v", v)
	}
	if v := byName["estateauth_verify_latency_seconds_bucket_le_inf"]; v.Value != 8 {
		t.Fatalf("expected +Inf bucket 8, got %+v", v)
	}
	if v := byName["estateauth_verify_latency_seconds_count"]; v.Value != 8 {
		t.Fatalf("expected count 8, got %+v", v)
	}
	if v := byName[AuditDroppedName]; !v.Present || v.Value != 9 {
		t.Fatalf("unexpected audit dropped sample %+v", v)
	}
}

func TestFlatSamplesMarkAbsentHistogram(t *testing.T) {
	series := FlatSeries()
	samples := FlatSamples(estateauth.MetricsSnapshot{}, 0)

	for i, s := range series {
		if s.Kind == SeriesGauge && samples[i].Present {
			t.Fatalf("histogram series %s reported without data", s.Name)
		}
		if s.Kind == SeriesCounter && !samples[i].Present {
			t.Fatalf("counter series %s missing", s.Name)
		}
	}
}
