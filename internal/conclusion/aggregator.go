package conclusion

import (
	"context"
	"log/slog"

	"github.com/dwsmith1983/workflow-conclusion/pkg/types"
)

// Aggregator classifies additional conclusions, reduces the combined outcome
// set and reports each step through its logger.
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator creates an Aggregator. A nil logger uses slog.Default().
func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger}
}

// Outcome is what an aggregation pass produced.
type Outcome struct {
	Conclusion      types.Conclusion
	Additional      []types.Conclusion
	Classifications []Classification
}

// ClassifyAndLog classifies records and logs one line per record in input
// order. Empty input is a no-op.
func (a *Aggregator) ClassifyAndLog(ctx context.Context, records []types.AdditionalConclusion, opts ClassifyOptions) []Classification {
	if len(records) == 0 {
		return nil
	}

	a.logger.InfoContext(ctx, "Additional Conclusions:")
	classifications := Classify(records, opts)
	for _, c := range classifications {
		a.logger.Log(ctx, c.Level, c.Message,
			"name", c.Name,
			"label", c.Label,
			"kind", c.Kind.String(),
		)
	}
	return classifications
}

// Aggregate combines the job outcomes with the classified additional
// conclusions and reduces them to one conclusion.
func (a *Aggregator) Aggregate(ctx context.Context, jobOutcomes []types.Conclusion, records []types.AdditionalConclusion, opts ClassifyOptions) Outcome {
	classifications := a.ClassifyAndLog(ctx, records, opts)
	additional := Outcomes(classifications)

	all := make([]types.Conclusion, 0, len(jobOutcomes)+len(additional))
	all = append(all, jobOutcomes...)
	all = append(all, additional...)

	result := Reduce(all, opts.Fallback)
	a.logger.InfoContext(ctx, "The workflow outcome to this point is: "+string(result),
		"conclusion", string(result),
		"outcomes", len(all),
	)

	return Outcome{
		Conclusion:      result,
		Additional:      additional,
		Classifications: classifications,
	}
}
