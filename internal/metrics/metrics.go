// Package metrics records evaluation counters through an OpenTelemetry meter.
package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/dwsmith1983/workflow-conclusion/pkg/types"
)

// Instrument names.
const (
	OutcomesName      = "conclusion.outcomes"
	ResultsName       = "conclusion.results"
	CollectErrorsName = "conclusion.collect_errors"
)

// Recorder holds the evaluation counters.
type Recorder struct {
	outcomes      metric.Int64Counter
	results       metric.Int64Counter
	collectErrors metric.Int64Counter
}

// New registers the counters on meter. A nil meter records nothing.
func New(meter metric.Meter) (*Recorder, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("")
	}

	outcomes, err := meter.Int64Counter(OutcomesName,
		metric.WithDescription("Outcomes that took part in a reduction, by source and conclusion."))
	if err != nil {
		return nil, fmt.Errorf("registering %s: %w", OutcomesName, err)
	}
	results, err := meter.Int64Counter(ResultsName,
		metric.WithDescription("Final workflow conclusions."))
	if err != nil {
		return nil, fmt.Errorf("registering %s: %w", ResultsName, err)
	}
	collectErrors, err := meter.Int64Counter(CollectErrorsName,
		metric.WithDescription("Job listing failures."))
	if err != nil {
		return nil, fmt.Errorf("registering %s: %w", CollectErrorsName, err)
	}

	return &Recorder{outcomes: outcomes, results: results, collectErrors: collectErrors}, nil
}

// Outcomes counts each outcome under source.
func (r *Recorder) Outcomes(ctx context.Context, source types.OutcomeSource, outcomes []types.Conclusion) {
	counts := make(map[types.Conclusion]int64, len(outcomes))
	for _, o := range outcomes {
		counts[o]++
	}
	for c, n := range counts {
		r.outcomes.Add(ctx, n, metric.WithAttributes(
			attribute.String("source", string(source)),
			attribute.String("conclusion", string(c)),
		))
	}
}

// Result counts one final conclusion.
func (r *Recorder) Result(ctx context.Context, c types.Conclusion) {
	r.results.Add(ctx, 1, metric.WithAttributes(attribute.String("conclusion", string(c))))
}

// CollectError counts one failed job listing.
func (r *Recorder) CollectError(ctx context.Context) {
	r.collectErrors.Add(ctx, 1)
}
