package internaldefs

import "github.com/peanechestate/estateauth"

// AuditDroppedHelp describes the audit drop counter in every exporter.
const AuditDroppedHelp = "Audit events dropped under dispatcher backpressure."

// SeriesKind says whether a flat series only grows or may be rewritten.
type SeriesKind uint8

const (
	SeriesCounter SeriesKind = iota
	SeriesGauge
)

// Series is one scalar metric for exporters without a native histogram
// type. Each histogram expands into one cumulative gauge per bucket, named
// <name>_bucket_le_<bound>, plus <name>_count.
type Series struct {
	Name string
	Help string
	Kind SeriesKind
}

// Sample is the value of the Series at the same index. Present is false
// for histogram series missing from the snapshot.
type Sample struct {
	Value   uint64
	Present bool
}

// FlatSeries lists counters, then expanded histograms, then the audit drop
// counter. [FlatSamples] returns values in the same order.
func FlatSeries() []Series {
	out := make([]Series, 0, len(CounterDefs)+len(HistogramDefs)*(bucketCount+1)+1)
	for _, def := range CounterDefs {
		out = append(out, Series{Name: def.Name, Help: def.Help, Kind: SeriesCounter})
	}
	for _, def := range HistogramDefs {
		for _, suffix := range HistogramBoundSuffix {
			out = append(out, Series{
				Name: def.Name + "_bucket_le_" + suffix,
				Help: "Cumulative histogram bucket count.",
				Kind: SeriesGauge,
			})
		}
		out = append(out, Series{Name: def.Name + "_count", Help: "Histogram total sample count.", Kind: SeriesGauge})
	}
	return append(out, Series{Name: AuditDroppedName, Help: AuditDroppedHelp, Kind: SeriesCounter})
}

// FlatSamples reads snapshot and dropped in [FlatSeries] order.
func FlatSamples(snapshot estateauth.MetricsSnapshot, dropped uint64) []Sample {
	out := make([]Sample, 0, len(CounterDefs)+len(HistogramDefs)*(bucketCount+1)+1)
	for _, def := range CounterDefs {
		out = append(out, Sample{Value: snapshot.Counters[def.ID], Present: true})
	}
	for _, def := range HistogramDefs {
		raw, ok := snapshot.Histograms[def.ID]
		cumulative := CumulativeBuckets(NormalizeBuckets(raw))
		for _, v := range cumulative {
			out = append(out, Sample{Value: v, Present: ok})
		}
		out = append(out, Sample{Value: cumulative[bucketCount-1], Present: ok})
	}
	return append(out, Sample{Value: dropped, Present: true})
}
