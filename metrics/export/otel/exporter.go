package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	"github.com/peanechestate/estateauth"
	"github.com/peanechestate/estateauth/metrics/export/internaldefs"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// MetricsSource is the read side the exporter needs. *estateauth.Engine
// satisfies it.
type MetricsSource interface {
	MetricsSnapshot() estateauth.MetricsSnapshot
	AuditDropped() uint64
}

// Exporter publishes engine metrics through observable OTel instruments.
// The caller owns the MeterProvider.
type Exporter struct {
	source       MetricsSource
	instruments  []metric.Int64Observable
	registration metric.Registration
}

// NewExporter creates one instrument per flat series and a single callback
// that reads source once per collection.
func NewExporter(meter metric.Meter, source MetricsSource) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	series := internaldefs.FlatSeries()
	e := &Exporter{
		source:      source,
		instruments: make([]metric.Int64Observable, 0, len(series)),
	}

	observables := make([]metric.Observable, 0, len(series))
	for _, s := range series {
		ins, err := newInstrument(meter, s)
		if err != nil {
			return nil, fmt.Errorf("create instrument %s: %w", s.Name, err)
		}
		e.instruments = append(e.instruments, ins)
		observables = append(observables, ins)
	}

	registration, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = registration
	return e, nil
}

func newInstrument(meter metric.Meter, s internaldefs.Series) (metric.Int64Observable, error) {
	if s.Kind == internaldefs.SeriesCounter {
		return meter.Int64ObservableCounter(s.Name, metric.WithDescription(s.Help))
	}
	return meter.Int64ObservableGauge(s.Name, metric.WithDescription(s.Help))
}

func (e *Exporter) observe(_ context.Context, observer metric.Observer) error {
	samples := internaldefs.FlatSamples(e.source.MetricsSnapshot(), e.source.AuditDropped())
	for i, sample := range samples {
		if sample.Present {
			observer.ObserveInt64(e.instruments[i], int64(sample.Value))
		}
	}
	return nil
}

// Close unregisters the callback. Instruments stay on the meter but stop
// reporting.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
