package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the treewire tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("treewire")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartChainSpan starts a span for one chain execution.
	// Returns the context with span and the span itself.
	StartChainSpan(ctx context.Context, chainID, runID string) (context.Context, trace.Span)

	// StartStageSpan starts a span for one stage of a chain execution.
	// The stage span should be a child of the chain span.
	StartStageSpan(ctx context.Context, stage int) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartChainSpan starts a span for one chain execution.
func (m *otelSpanManager) StartChainSpan(ctx context.Context, chainID, runID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "treewire.chain",
		trace.WithAttributes(
			attribute.String("chain.id", chainID),
			attribute.String("run.id", runID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartStageSpan starts a span for one stage.
func (m *otelSpanManager) StartStageSpan(ctx context.Context, stage int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "treewire.chain.stage",
		trace.WithAttributes(
			attribute.Int("stage.index", stage),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span in context.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
