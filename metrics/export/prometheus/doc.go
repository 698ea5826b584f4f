// Package prometheus exposes engine metrics through client_golang.
//
// [Collector] turns each scrape into const metrics read from
// estateauth.Engine.MetricsSnapshot. Counters are named estateauth_*_total;
// the single histogram is estateauth_verify_latency_seconds.
//
// Nothing here touches the global default registry. [NewExporter] builds a
// private one and serves it.
package prometheus
