package operations

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tafa1618/Copilot-Process/internal/infrastructure"
	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

const (
	TracerName = "copilot-process.pipeline"
)

// RunTracer instruments pipeline runs with spans and metrics.
type RunTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewRunTracer creates a tracer over the given providers. With nil providers
// spans go to the global tracer and metrics are not recorded.
func NewRunTracer(providers *infrastructure.OTelProviders) (*RunTracer, error) {
	rt := &RunTracer{tracer: otel.Tracer(TracerName)}
	if providers == nil {
		return rt, nil
	}
	if providers.Tracer != nil {
		rt.tracer = providers.Tracer
	}
	if providers.Meter != nil {
		m, err := infrastructure.CreatePipelineMetrics(providers.Meter)
		if err != nil {
			return nil, err
		}
		rt.metrics = m
	}
	return rt, nil
}

// Metrics returns the pipeline instruments, nil when metrics are off.
func (rt *RunTracer) Metrics() *infrastructure.PipelineMetrics {
	return rt.metrics
}

// StartRun opens the span of a whole run.
func (rt *RunTracer) StartRun(ctx context.Context, state *RunState) (context.Context, trace.Span) {
	sources := make([]string, 0, len(state.Raw))
	for _, kind := range domain.SourceKinds() {
		if _, ok := state.Raw[kind]; ok {
			sources = append(sources, string(kind))
		}
	}
	return rt.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", state.ID),
			attribute.StringSlice("run.sources", sources),
			attribute.String("run.month", state.Params.Month),
			attribute.String("run.quarter", state.Params.Quarter.String()),
		),
	)
}

// StartStage opens the span of one stage.
func (rt *RunTracer) StartStage(ctx context.Context, runID, stageID string) (context.Context, trace.Span) {
	return rt.tracer.Start(ctx, "pipeline.stage."+stageID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("stage.id", stageID),
		),
	)
}

// EndStage closes a stage span and records its duration.
func (rt *RunTracer) EndStage(ctx context.Context, span trace.Span, stageID string, duration time.Duration, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
	rt.metrics.RecordStage(ctx, stageID, duration)
}

// EndRun closes the run span and records the outcome and the audit counters.
func (rt *RunTracer) EndRun(ctx context.Context, span trace.Span, state *RunState) {
	defer span.End()

	success := state.Err == nil
	span.SetAttributes(
		attribute.Float64("run.duration_seconds", state.Duration().Seconds()),
		attribute.Int("run.failures", len(state.Result.Failures)),
	)
	if success {
		span.SetStatus(codes.Ok, "")
	} else {
		span.RecordError(state.Err)
		span.SetStatus(codes.Error, state.Err.Error())
	}

	rt.metrics.RecordRun(ctx, state.Duration(), success)
	for _, f := range state.Result.Failures {
		rt.metrics.RecordDatasetFailure(ctx, string(f.Source))
	}
	for source, a := range state.Result.Audit {
		rt.metrics.RecordAudit(ctx, string(source), a.Dropped, a.Excluded)
	}
}
