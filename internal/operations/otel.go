package operations

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "ecompulse.pipeline"
	meterName  = "ecompulse.pipeline"
)

// tracer resolves through the global provider, so spans are recorded once
// the binary installs the SDK and are no-ops in tests.
var tracer = otel.Tracer(tracerName)

// pipelineMetrics holds the pipeline instruments. The Prometheus exporter
// bridge installed by the infrastructure package exposes them on /metrics.
// A nil receiver disables recording.
type pipelineMetrics struct {
	runsTotal    metric.Int64Counter
	runDuration  metric.Float64Histogram
	stepsTotal   metric.Int64Counter
	stepDuration metric.Float64Histogram
	activeRuns   metric.Int64UpDownCounter
}

func newPipelineMetrics() (*pipelineMetrics, error) {
	meter := otel.Meter(meterName)

	runsTotal, err := meter.Int64Counter(
		"pipeline_runs_total",
		metric.WithDescription("Finished pipeline runs by status"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram(
		"pipeline_run_duration_seconds",
		metric.WithDescription("Pipeline run duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stepsTotal, err := meter.Int64Counter(
		"pipeline_steps_total",
		metric.WithDescription("Executed pipeline steps by stage and status"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"pipeline_step_duration_seconds",
		metric.WithDescription("Pipeline step duration in seconds by stage"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	activeRuns, err := meter.Int64UpDownCounter(
		"pipeline_active_runs",
		metric.WithDescription("Number of pipeline runs currently executing"),
	)
	if err != nil {
		return nil, err
	}

	return &pipelineMetrics{
		runsTotal:    runsTotal,
		runDuration:  runDuration,
		stepsTotal:   stepsTotal,
		stepDuration: stepDuration,
		activeRuns:   activeRuns,
	}, nil
}

func (pm *pipelineMetrics) runStarted(ctx context.Context) {
	if pm == nil {
		return
	}
	pm.activeRuns.Add(ctx, 1)
}

func (pm *pipelineMetrics) runFinished(ctx context.Context, status RunStatus, duration time.Duration) {
	if pm == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", string(status)))
	pm.runsTotal.Add(ctx, 1, attrs)
	pm.runDuration.Record(ctx, duration.Seconds(), attrs)
	pm.activeRuns.Add(ctx, -1)
}

func (pm *pipelineMetrics) stepFinished(ctx context.Context, stepID string, status StepStatus, duration time.Duration) {
	if pm == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("step", stepID),
		attribute.String("status", string(status)),
	)
	pm.stepsTotal.Add(ctx, 1, attrs)
	pm.stepDuration.Record(ctx, duration.Seconds(), attrs)
}

// startRunSpan opens the span covering a whole run.
func startRunSpan(ctx context.Context, runID string, stepIDs []string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.StringSlice("run.steps", stepIDs),
		),
	)
}

// startStepSpan opens the span covering one step execution.
func startStepSpan(ctx context.Context, runID, stepID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "pipeline.step/"+stepID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("step.id", stepID),
		),
	)
}
