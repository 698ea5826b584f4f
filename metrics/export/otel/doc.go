// Package otel publishes estateauth counters through OpenTelemetry
// observable instruments.
//
// [NewExporter] registers an Int64ObservableCounter per engine counter and,
// for the verifier latency histogram, one cumulative Int64ObservableGauge per
// bucket plus a count gauge. A single callback reads
// estateauth.Engine.MetricsSnapshot on each collection cycle.
//
// The caller supplies the Meter and owns its MeterProvider.
package otel
