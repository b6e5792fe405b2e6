package engine

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/roach88/fascicolo/internal/store"
	"github.com/roach88/fascicolo/internal/workflow"
)

// MeterName is the instrumentation scope of engine metrics.
const MeterName = "github.com/roach88/fascicolo/engine"

// metrics holds the engine's instruments. Creation errors fall back to
// no-op instruments from the same meter.
type metrics struct {
	dispatches metric.Int64Counter
	duration   metric.Float64Histogram
	failures   metric.Int64Counter
	cases      metric.Int64UpDownCounter
}

func newMetrics(m metric.Meter) *metrics {
	if m == nil {
		m = otel.Meter(MeterName)
	}
	dispatches, _ := m.Int64Counter("fascicolo.dispatch.count",
		metric.WithDescription("Dispatched commands by action and outcome"),
	)
	duration, _ := m.Float64Histogram("fascicolo.dispatch.duration",
		metric.WithDescription("Time spent processing one command in the Run loop"),
		metric.WithUnit("ms"),
	)
	failures, _ := m.Int64Counter("fascicolo.persist.failures",
		metric.WithDescription("Store writes that failed during dispatch or create"),
	)
	cases, _ := m.Int64UpDownCounter("fascicolo.cases",
		metric.WithDescription("Cases held by the engine"),
	)
	return &metrics{
		dispatches: dispatches,
		duration:   duration,
		failures:   failures,
		cases:      cases,
	}
}

func (m *metrics) recordDispatch(ctx context.Context, action workflow.Action, outcome store.Outcome, start time.Time) {
	attrs := metric.WithAttributes(
		attribute.String("action", string(action)),
		attribute.String("outcome", string(outcome)),
	)
	m.dispatches.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
}

func (m *metrics) recordFailure(ctx context.Context, op string) {
	m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}
