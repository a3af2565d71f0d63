package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records listener lifecycle metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordAttach records a physical listener attachment.
	RecordAttach(ctx context.Context, eventType string)

	// RecordDetach records a physical listener detachment.
	RecordDetach(ctx context.Context, eventType string)

	// RecordSweep records a removal sweep with the number of listeners released.
	RecordSweep(ctx context.Context, listeners int64)

	// RecordChainRun records a chain execution with its duration and outcome.
	RecordChainRun(ctx context.Context, chainID string, success bool, duration time.Duration)

	// RecordStageError records a chain stage failure.
	RecordStageError(ctx context.Context, chainID string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	attaches     metric.Int64Counter
	detaches     metric.Int64Counter
	sweeps       metric.Int64Counter
	chainRuns    metric.Int64Counter
	chainLatency metric.Float64Histogram
	stageErrors  metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("treewire")

	attaches, err := meter.Int64Counter("treewire.listener.attaches",
		metric.WithDescription("Number of physical listener attachments"),
	)
	if err != nil {
		return nil, err
	}

	detaches, err := meter.Int64Counter("treewire.listener.detaches",
		metric.WithDescription("Number of physical listener detachments"),
	)
	if err != nil {
		return nil, err
	}

	sweeps, err := meter.Int64Counter("treewire.sweep.listeners_released",
		metric.WithDescription("Number of listeners released by removal sweeps"),
	)
	if err != nil {
		return nil, err
	}

	chainRuns, err := meter.Int64Counter("treewire.chain.runs",
		metric.WithDescription("Number of chain executions"),
	)
	if err != nil {
		return nil, err
	}

	chainLatency, err := meter.Float64Histogram("treewire.chain.latency_ms",
		metric.WithDescription("Chain execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	stageErrors, err := meter.Int64Counter("treewire.chain.stage_errors",
		metric.WithDescription("Number of chain stage failures"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		attaches:     attaches,
		detaches:     detaches,
		sweeps:       sweeps,
		chainRuns:    chainRuns,
		chainLatency: chainLatency,
		stageErrors:  stageErrors,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordAttach records a physical listener attachment.
func (m *otelMetrics) RecordAttach(ctx context.Context, eventType string) {
	m.attaches.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
	))
}

// RecordDetach records a physical listener detachment.
func (m *otelMetrics) RecordDetach(ctx context.Context, eventType string) {
	m.detaches.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
	))
}

// RecordSweep records a removal sweep.
func (m *otelMetrics) RecordSweep(ctx context.Context, listeners int64) {
	m.sweeps.Add(ctx, listeners)
}

// RecordChainRun records a chain execution.
func (m *otelMetrics) RecordChainRun(ctx context.Context, chainID string, success bool, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("chain_id", chainID),
		attribute.Bool("success", success),
	}
	m.chainRuns.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.chainLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordStageError records a chain stage failure.
func (m *otelMetrics) RecordStageError(ctx context.Context, chainID string) {
	m.stageErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("chain_id", chainID),
	))
}
