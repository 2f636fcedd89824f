package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/deviceauth"
	"github.com/MrEthical07/deviceauth/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type bucketGauges struct {
	buckets [8]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// Exporter publishes deviceauth counters, latency buckets and device lockout
// state through observable OTel instruments. Every collection cycle runs one
// scrape of the source.
type Exporter struct {
	source       internaldefs.Source
	registration metric.Registration
	counters     map[string]metric.Int64ObservableCounter
	gauges       map[string]metric.Int64ObservableGauge
	histograms   map[string]bucketGauges
}

func NewExporter(meter metric.Meter, engine *deviceauth.Engine) (*Exporter, error) {
	return NewExporterFromSource(meter, engine)
}

func NewExporterFromSource(meter metric.Meter, source internaldefs.Source) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &Exporter{
		source:     source,
		counters:   make(map[string]metric.Int64ObservableCounter),
		gauges:     make(map[string]metric.Int64ObservableGauge),
		histograms: make(map[string]bucketGauges),
	}
	var observables []metric.Observable

	counter := func(name, help string) error {
		ins, err := meter.Int64ObservableCounter(name, metric.WithDescription(help))
		if err != nil {
			return fmt.Errorf("create observable counter %s: %w", name, err)
		}
		e.counters[name] = ins
		observables = append(observables, ins)
		return nil
	}
	gauge := func(name, help string) (metric.Int64ObservableGauge, error) {
		ins, err := meter.Int64ObservableGauge(name, metric.WithDescription(help))
		if err != nil {
			return nil, fmt.Errorf("create observable gauge %s: %w", name, err)
		}
		observables = append(observables, ins)
		return ins, nil
	}

	for _, def := range internaldefs.CounterDefs {
		if err := counter(def.Name, def.Help); err != nil {
			return nil, err
		}
	}
	for _, def := range internaldefs.AuditCounterDefs {
		if err := counter(def.Name, def.Help); err != nil {
			return nil, err
		}
	}
	for _, def := range internaldefs.GaugeDefs {
		ins, err := gauge(def.Name, def.Help)
		if err != nil {
			return nil, err
		}
		e.gauges[def.Name] = ins
	}
	for _, def := range internaldefs.HistogramDefs {
		var h bucketGauges
		for i, suffix := range internaldefs.HistogramBoundSuffix {
			ins, err := gauge(def.Name+"_bucket_le_"+suffix, "Cumulative histogram bucket count.")
			if err != nil {
				return nil, err
			}
			h.buckets[i] = ins
		}
		ins, err := gauge(def.Name+"_count", "Histogram total sample count.")
		if err != nil {
			return nil, err
		}
		h.count = ins
		e.histograms[def.Name] = h
	}

	registration, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = registration
	return e, nil
}

func (e *Exporter) observe(ctx context.Context, o metric.Observer) error {
	sample := internaldefs.Collect(ctx, e.source)
	if !sample.Enabled {
		return nil
	}
	for _, p := range sample.Counters {
		if ins, ok := e.counters[p.Name]; ok {
			o.ObserveInt64(ins, p.Value)
		}
	}
	for _, p := range sample.Gauges {
		if ins, ok := e.gauges[p.Name]; ok {
			o.ObserveInt64(ins, p.Value)
		}
	}
	for _, h := range sample.Histograms {
		g, ok := e.histograms[h.Name]
		if !ok {
			continue
		}
		for i, n := range h.Cumulative {
			o.ObserveInt64(g.buckets[i], int64(n))
		}
		o.ObserveInt64(g.count, int64(h.Cumulative[len(h.Cumulative)-1]))
	}
	return nil
}

func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
