package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"loanmerge/internal/infrastructure"
)

// TracerName is the instrumentation scope of pipeline spans
const TracerName = "loanmerge.pipeline"

// Pipeline runs registered steps in order. The first failing step aborts the
// run; later steps are never started.
type Pipeline struct {
	registry *Registry
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *infrastructure.PipelineMetrics
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the pipeline logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithTelemetry attaches a tracer and the pipeline instruments
func WithTelemetry(tracer trace.Tracer, metrics *infrastructure.PipelineMetrics) Option {
	return func(p *Pipeline) {
		if tracer != nil {
			p.tracer = tracer
		}
		p.metrics = metrics
	}
}

// NewPipeline creates a pipeline over registry
func NewPipeline(registry *Registry, opts ...Option) *Pipeline {
	if registry == nil {
		registry = NewRegistry()
	}
	p := &Pipeline{
		registry: registry,
		logger:   slog.Default(),
		tracer:   infrastructure.NoopTracer(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes every registered step against state.
func (p *Pipeline) Run(ctx context.Context, state *RunState) error {
	if state.ID == "" {
		state.ID = infrastructure.GenerateRunID()
	}
	ctx = infrastructure.WithRunID(ctx, state.ID)

	ctx, span := p.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("run.id", state.ID)),
	)
	defer span.End()

	steps := p.registry.List()
	for _, step := range steps {
		state.SetStep(NewStepState(step.ID(), step.Name()))
	}

	state.Start()
	p.logger.InfoContext(ctx, "pipeline started", slog.Int("steps", len(steps)))

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return p.finish(ctx, span, state, err)
		}
		if err := p.runStep(ctx, state, step); err != nil {
			return p.finish(ctx, span, state, err)
		}
	}
	return p.finish(ctx, span, state, nil)
}

// runStep executes one step inside its own span
func (p *Pipeline) runStep(ctx context.Context, state *RunState, step Step) error {
	st := state.GetStep(step.ID())

	ctx, span := p.tracer.Start(ctx, "pipeline.step."+step.ID(),
		trace.WithAttributes(
			attribute.String("step.id", step.ID()),
			attribute.String("step.name", step.Name()),
		),
	)
	defer span.End()

	st.Start()
	p.logger.InfoContext(ctx, "step started", slog.String("step", step.ID()))

	err := step.Execute(ctx, state)
	if reason, ok := IsSkip(err); ok {
		st.Skip(reason)
		span.SetAttributes(attribute.String("step.status", string(StepStatusSkipped)))
		p.metrics.RecordStep(ctx, step.ID(), string(StepStatusSkipped), st.Duration(), 0)
		p.logger.InfoContext(ctx, "step skipped",
			slog.String("step", step.ID()),
			slog.String("reason", reason),
		)
		return nil
	}
	if err != nil {
		st.Fail(err)
		infrastructure.RecordError(ctx, err, attribute.String("step.id", step.ID()))
		p.metrics.RecordStep(ctx, step.ID(), string(StepStatusFailed), st.Duration(), 0)
		p.logger.ErrorContext(ctx, "step failed",
			slog.String("step", step.ID()),
			slog.String("error", err.Error()),
			slog.Duration("duration", st.Duration()),
		)
		return &StepError{Step: step.ID(), Cause: err}
	}

	st.Complete()
	span.SetAttributes(
		attribute.String("step.status", string(StepStatusCompleted)),
		attribute.Int("step.rows", st.GetRows()),
	)
	p.metrics.RecordStep(ctx, step.ID(), string(StepStatusCompleted), st.Duration(), st.GetRows())
	p.logger.InfoContext(ctx, "step completed",
		slog.String("step", step.ID()),
		slog.Int("rows", st.GetRows()),
		slog.Duration("duration", st.Duration()),
	)
	return nil
}

// finish records the terminal run status
func (p *Pipeline) finish(ctx context.Context, span trace.Span, state *RunState, err error) error {
	switch {
	case err == nil:
		state.Complete()
		span.SetStatus(codes.Ok, "pipeline completed")
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		state.Cancel(err)
		span.SetStatus(codes.Error, "pipeline cancelled")
	default:
		state.Fail(err)
		span.SetStatus(codes.Error, err.Error())
	}

	status := string(state.GetStatus())
	span.SetAttributes(attribute.String("run.status", status))
	p.metrics.RecordRun(ctx, status)

	if err != nil {
		p.logger.ErrorContext(ctx, "pipeline finished",
			slog.String("status", status),
			slog.String("error", err.Error()),
			slog.Duration("duration", state.Duration()),
		)
		if _, ok := err.(*StepError); ok {
			return err
		}
		return fmt.Errorf("pipeline %s: %w", status, err)
	}

	p.logger.InfoContext(ctx, "pipeline finished",
		slog.String("status", status),
		slog.Duration("duration", state.Duration()),
	)
	return nil
}
