package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/peanechestate/estateauth"
	"github.com/peanechestate/estateauth/metrics/export/internaldefs"
)

// MetricsSource is the read side the exporter needs. *estateauth.Engine
// satisfies it.
type MetricsSource interface {
	MetricsSnapshot() estateauth.MetricsSnapshot
	AuditDropped() uint64
}

// Collector exposes engine counters as a prometheus.Collector. Values are
// read from a fresh snapshot on every scrape.
type Collector struct {
	source     MetricsSource
	counters   map[estateauth.MetricID]*prometheus.Desc
	histograms map[estateauth.MetricID]*prometheus.Desc
	dropped    *prometheus.Desc
}

// NewCollector builds a collector over source. Register it with a
// registry of the caller's choosing.
func NewCollector(source MetricsSource) *Collector {
	c := &Collector{
		source:     source,
		counters:   make(map[estateauth.MetricID]*prometheus.Desc, len(internaldefs.CounterDefs)),
		histograms: make(map[estateauth.MetricID]*prometheus.Desc, len(internaldefs.HistogramDefs)),
		dropped: prometheus.NewDesc(
			internaldefs.AuditDroppedName,
			internaldefs.AuditDroppedHelp,
			nil, nil,
		),
	}

	for _, def := range internaldefs.CounterDefs {
		c.counters[def.ID] = prometheus.NewDesc(def.Name, def.Help, nil, nil)
	}
	for _, def := range internaldefs.HistogramDefs {
		c.histograms[def.ID] = prometheus.NewDesc(def.Name, def.Help, nil, nil)
	}

	return c
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, def := range internaldefs.CounterDefs {
		ch <- c.counters[def.ID]
	}
	for _, def := range internaldefs.HistogramDefs {
		ch <- c.histograms[def.ID]
	}
	ch <- c.dropped
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.source == nil {
		return
	}

	snapshot := c.source.MetricsSnapshot()

	for _, def := range internaldefs.CounterDefs {
		ch <- prometheus.MustNewConstMetric(c.counters[def.ID], prometheus.CounterValue, float64(snapshot.Counters[def.ID]))
	}

	for _, def := range internaldefs.HistogramDefs {
		raw, ok := snapshot.Histograms[def.ID]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		buckets := make(map[float64]uint64, len(internaldefs.HistogramBounds))
		for i, bound := range internaldefs.HistogramBounds {
			buckets[bound] = cumulative[i]
		}
		count := cumulative[len(cumulative)-1]
		// Snapshots carry no sum.
		ch <- prometheus.MustNewConstHistogram(c.histograms[def.ID], count, 0, buckets)
	}

	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(c.source.AuditDropped()))
}

// Exporter bundles a Collector with its own registry and HTTP handler.
type Exporter struct {
	registry *prometheus.Registry
}

// NewExporter registers a collector for source in a private registry.
func NewExporter(source MetricsSource) (*Exporter, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(NewCollector(source)); err != nil {
		return nil, err
	}
	return &Exporter{registry: reg}, nil
}

// Registry exposes the private registry so callers can add their own
// collectors next to the engine's.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
