package operations

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "ridership/internal/errors"
	"ridership/internal/infrastructure"
)

const (
	TracerName = "ridership.operation"
)

// OperationTracer provides OpenTelemetry instrumentation for station jobs
type OperationTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewOperationTracer creates a tracer bound to providers. With nil providers
// spans go to the global tracer and no metrics are recorded.
func NewOperationTracer(providers *infrastructure.OTelProviders) *OperationTracer {
	if providers == nil || providers.Tracer == nil {
		return &OperationTracer{tracer: otel.Tracer(TracerName)}
	}
	return &OperationTracer{
		tracer:  providers.Tracer,
		metrics: providers.Metrics,
	}
}

// TraceRun creates the root span of a run
func (t *OperationTracer) TraceRun(ctx context.Context, runID string, stations int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "operation.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("run.stations", stations),
		),
	)
}

// TraceStation creates a span for one station job
func (t *OperationTracer) TraceStation(ctx context.Context, station string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "operation.station",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("station", station)),
	)
}

// TraceStep creates a span for one step of a station job
func (t *OperationTracer) TraceStep(ctx context.Context, station, stepID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "operation.step."+stepID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("station", station),
			attribute.String("step.id", stepID),
		),
	)
}

// RecordStepCompletion ends the bookkeeping of a step: span status, error
// event and the step duration histogram.
func (t *OperationTracer) RecordStepCompletion(ctx context.Context, span trace.Span, station, stepID string, duration time.Duration, err error) {
	span.SetAttributes(attribute.Float64("step.duration_seconds", duration.Seconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errType := apperrors.TypeOf(err); errType != "" {
			span.SetAttributes(attribute.String("error.type", string(errType)))
		}
	} else {
		span.SetStatus(codes.Ok, "")
	}
	infrastructure.RecordStepMetrics(ctx, t.metrics, station, stepID, duration, err == nil)
}

// RecordStationCompletion counts a finished station and, on success,
// publishes its fit quality.
func (t *OperationTracer) RecordStationCompletion(ctx context.Context, span trace.Span, state *StationState) {
	station := state.Station.Name
	span.SetAttributes(
		attribute.String("station.status", string(state.Status)),
		attribute.Float64("station.duration_seconds", state.Duration().Seconds()),
	)

	status := "success"
	if state.Status != StationStatusCompleted {
		status = "failed"
		if state.Error != nil {
			span.SetStatus(codes.Error, state.Error.Error())
		}
	}
	infrastructure.RecordStationOutcome(ctx, t.metrics, station, status)

	if state.Result != nil {
		m := state.Result.Metrics
		span.SetAttributes(
			attribute.Float64("fit.r2", m.R2),
			attribute.Float64("fit.mse", m.MSE),
			attribute.Int("fit.rows", m.Rows),
		)
		infrastructure.RecordFit(ctx, t.metrics, station, m.R2, m.R2Event, m.MSE)
	}
}
