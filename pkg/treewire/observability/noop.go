package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
// Use when metrics are disabled to avoid overhead.
type NoopMetrics struct{}

// Compile-time interface check.
var _ MetricsRecorder = NoopMetrics{}

// RecordAttach does nothing.
func (NoopMetrics) RecordAttach(_ context.Context, _ string) {}

// RecordDetach does nothing.
func (NoopMetrics) RecordDetach(_ context.Context, _ string) {}

// RecordSweep does nothing.
func (NoopMetrics) RecordSweep(_ context.Context, _ int64) {}

// RecordChainRun does nothing.
func (NoopMetrics) RecordChainRun(_ context.Context, _ string, _ bool, _ time.Duration) {}

// RecordStageError does nothing.
func (NoopMetrics) RecordStageError(_ context.Context, _ string) {}

// NoopSpanManager is a SpanManager that does nothing.
// Use when tracing is disabled to avoid overhead.
type NoopSpanManager struct{}

// Compile-time interface check.
var _ SpanManager = NoopSpanManager{}

// noopSpan is a span that does nothing.
// We use the OTel noop package for a proper no-op span implementation.
var noopSpan = noop.Span{}

// StartChainSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartChainSpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartStageSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartStageSpan(ctx context.Context, _ int) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(_ trace.Span, _ error) {}

// AddSpanEvent does nothing.
func (NoopSpanManager) AddSpanEvent(_ context.Context, _ string, _ ...attribute.KeyValue) {}
