// Package engine evaluates the conclusion of a workflow run: it collects the
// job outcomes, folds in the additional conclusions and reduces the set.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/dwsmith1983/workflow-conclusion/internal/collector"
	"github.com/dwsmith1983/workflow-conclusion/internal/conclusion"
	"github.com/dwsmith1983/workflow-conclusion/internal/metrics"
	"github.com/dwsmith1983/workflow-conclusion/pkg/types"
)

// ErrInvalidRequest is returned for requests that cannot be evaluated.
var ErrInvalidRequest = errors.New("invalid evaluation request")

const tracerName = "github.com/dwsmith1983/workflow-conclusion/internal/engine"

// Request describes one evaluation.
type Request struct {
	Repository               string
	RunID                    int64
	Fallback                 types.Conclusion
	Additional               []types.AdditionalConclusion
	SuppressFallbackWarnings bool
}

// Engine evaluates workflow runs. It holds no per-run state and is safe for
// concurrent use.
type Engine struct {
	lister  collector.JobLister
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *metrics.Recorder
	newID   func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithTracer sets the tracer used for evaluation spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithMetrics sets the counter recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithIDGenerator replaces the ULID invocation id generator.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// New creates an Engine listing jobs through lister.
func New(lister collector.JobLister, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		lister: lister,
		logger: logger,
		newID:  func() string { return ulid.Make().String() },
	}
	for _, o := range opts {
		o(e)
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	if e.metrics == nil {
		e.metrics = newRecorder(otel.Meter(tracerName), logger)
	}
	return e
}

// newRecorder registers the counters on meter, falling back to a recorder
// that records nothing when registration fails.
func newRecorder(meter metric.Meter, logger *slog.Logger) *metrics.Recorder {
	m, err := metrics.New(meter)
	if err == nil {
		return m
	}
	logger.Warn("metrics disabled", "error", err)
	m, _ = metrics.New(nil)
	return m
}

// Evaluate runs one evaluation. A job listing failure is logged and recorded
// in Result.CollectError; evaluation continues with no job outcomes. Only an
// invalid request returns an error.
func (e *Engine) Evaluate(ctx context.Context, req Request) (types.Result, error) {
	fallback := req.Fallback
	if fallback == "" {
		fallback = types.DefaultFallback
	}
	if !fallback.Valid() {
		return types.Result{}, fmt.Errorf("%w: fallback %q is not one of %v", ErrInvalidRequest, req.Fallback, types.Conclusions)
	}

	id := e.newID()
	logger := e.logger.With("invocation", id)
	result := types.Result{
		InvocationID: id,
		Repository:   req.Repository,
		RunID:        req.RunID,
		Fallback:     fallback,
	}

	ctx, span := e.tracer.Start(ctx, "evaluate", trace.WithAttributes(
		attribute.String("invocation", id),
		attribute.String("repository", req.Repository),
		attribute.Int64("run_id", req.RunID),
	))
	defer span.End()

	start := time.Now()
	jobOutcomes, err := e.collect(ctx, req.RunID, logger)
	if err != nil {
		result.CollectError = err.Error()
		e.metrics.CollectError(ctx)
	}
	result.JobOutcomes = jobOutcomes

	outcome := e.aggregate(ctx, jobOutcomes, req, fallback, logger)
	result.Conclusion = outcome.Conclusion
	result.AdditionalOutcomes = outcome.Additional

	e.metrics.Outcomes(ctx, types.SourceJob, result.JobOutcomes)
	e.metrics.Outcomes(ctx, types.SourceAdditional, result.AdditionalOutcomes)
	e.metrics.Result(ctx, result.Conclusion)

	span.SetAttributes(attribute.String("conclusion", string(result.Conclusion)))
	logger.DebugContext(ctx, "evaluation complete",
		"conclusion", string(result.Conclusion),
		"jobs", len(result.JobOutcomes),
		"additional", len(result.AdditionalOutcomes),
		"elapsed", time.Since(start),
	)
	return result, nil
}

func (e *Engine) collect(ctx context.Context, runID int64, logger *slog.Logger) ([]types.Conclusion, error) {
	ctx, span := e.tracer.Start(ctx, "collect")
	defer span.End()

	if e.lister == nil {
		return []types.Conclusion{}, nil
	}
	outcomes, err := collector.Collect(ctx, e.lister, runID, logger)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "listing jobs")
		return []types.Conclusion{}, err
	}
	span.SetAttributes(attribute.Int("outcomes", len(outcomes)))
	if outcomes == nil {
		outcomes = []types.Conclusion{}
	}
	return outcomes, nil
}

func (e *Engine) aggregate(ctx context.Context, jobOutcomes []types.Conclusion, req Request, fallback types.Conclusion, logger *slog.Logger) conclusion.Outcome {
	ctx, span := e.tracer.Start(ctx, "aggregate", trace.WithAttributes(
		attribute.Int("additional", len(req.Additional)),
	))
	defer span.End()

	out := conclusion.NewAggregator(logger).Aggregate(ctx, jobOutcomes, req.Additional, conclusion.ClassifyOptions{
		Fallback:                 fallback,
		SuppressFallbackWarnings: req.SuppressFallbackWarnings,
	})
	if out.Additional == nil {
		out.Additional = []types.Conclusion{}
	}
	span.SetAttributes(attribute.String("conclusion", string(out.Conclusion)))
	return out
}
