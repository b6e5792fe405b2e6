// Package telemetry installs the OpenTelemetry meter provider used by the
// engine's dispatch metrics.
//
// Metrics are off by default and cost nothing: a no-op provider is
// installed. When enabled, readings are written as JSON to the given
// writer by the stdout exporter on every interval and once more on
// shutdown.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// DefaultInterval is how often readings are exported while running.
const DefaultInterval = 30 * time.Second

// Shutdown flushes pending readings and releases the provider.
type Shutdown func(context.Context) error

// Options configures Init.
type Options struct {
	Enabled  bool
	Writer   io.Writer
	Interval time.Duration
}

// Init builds a meter provider, installs it as the global provider and
// returns it with its shutdown function.
func Init(opts Options) (metric.MeterProvider, Shutdown, error) {
	if !opts.Enabled {
		mp := metricnoop.NewMeterProvider()
		otel.SetMeterProvider(mp)
		return mp, func(context.Context) error { return nil }, nil
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	expOpts := []stdoutmetric.Option{}
	if opts.Writer != nil {
		expOpts = append(expOpts, stdoutmetric.WithWriter(opts.Writer))
	}
	exp, err := stdoutmetric.New(expOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("telemetry: stdout exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(mp)
	return mp, mp.Shutdown, nil
}
