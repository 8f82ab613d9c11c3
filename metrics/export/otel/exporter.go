package otel

import (
	"context"
	"errors"
	"fmt"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() goAccount.MetricsSnapshot
	AuditDropped() uint64
}

// series binds one engine counter to its family instrument and label.
type series struct {
	id         goAccount.MetricID
	instrument metric.Int64ObservableCounter
	attrs      metric.MeasurementOption
}

// OTelExporter observes engine metrics through one registered callback.
// Each counter family is one instrument with an outcome (or backend)
// attribute; the latency histogram is a bucket gauge keyed by "le" plus a
// count gauge.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration

	series       []series
	latencyLE    metric.Int64ObservableGauge
	latencyCount metric.Int64ObservableGauge
	leAttrs      [8]metric.MeasurementOption
	auditDropped metric.Int64ObservableCounter
}

func NewOTelExporter(meter metric.Meter, engine *goAccount.Engine) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, engine)
}

func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	var observables []metric.Observable

	for _, f := range internaldefs.CounterFamilies {
		ins, err := meter.Int64ObservableCounter(f.Name, metric.WithDescription(f.Help))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", f.Name, err)
		}
		observables = append(observables, ins)
		for _, s := range f.Series {
			e.series = append(e.series, series{
				id:         s.ID,
				instrument: ins,
				attrs:      metric.WithAttributes(attribute.String(f.Label, s.Value)),
			})
		}
	}

	h := internaldefs.FederatedLatency
	var err error
	if e.latencyLE, err = meter.Int64ObservableGauge(h.Name+"_bucket",
		metric.WithDescription(h.Help+" Cumulative count per upper bound."),
		metric.WithUnit("{login}"),
	); err != nil {
		return nil, fmt.Errorf("create %s_bucket: %w", h.Name, err)
	}
	if e.latencyCount, err = meter.Int64ObservableGauge(h.Name+"_count",
		metric.WithDescription(h.Help+" Total samples."),
		metric.WithUnit("{login}"),
	); err != nil {
		return nil, fmt.Errorf("create %s_count: %w", h.Name, err)
	}
	for i, le := range internaldefs.HistogramBounds {
		e.leAttrs[i] = metric.WithAttributes(attribute.String("le", le))
	}

	if e.auditDropped, err = meter.Int64ObservableCounter(internaldefs.AuditDroppedName,
		metric.WithDescription(internaldefs.AuditDroppedHelp),
	); err != nil {
		return nil, fmt.Errorf("create %s: %w", internaldefs.AuditDroppedName, err)
	}
	observables = append(observables, e.latencyLE, e.latencyCount, e.auditDropped)

	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snap := e.source.MetricsSnapshot()
	for _, s := range e.series {
		o.ObserveInt64(s.instrument, int64(snap.Counters[s.id]), s.attrs)
	}

	buckets := internaldefs.Cumulative(snap.Histograms[internaldefs.FederatedLatency.ID])
	for i, v := range buckets {
		o.ObserveInt64(e.latencyLE, int64(v), e.leAttrs[i])
	}
	o.ObserveInt64(e.latencyCount, int64(buckets[len(buckets)-1]))

	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the callback. The meter stays usable.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
