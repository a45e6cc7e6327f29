package conclusion

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/workflow-conclusion/internal/testutil"
	"github.com/dwsmith1983/workflow-conclusion/pkg/types"
)

func TestAggregate_LogsInInputOrder(t *testing.T) {
	rec, logger := testutil.NewLogRecorder()
	agg := NewAggregator(logger)

	records := []types.AdditionalConclusion{
		{Name: "third", Conclusion: "failed"},
		{Name: "first", Conclusion: "passed"},
		{Name: "second", Conclusion: "what"},
	}
	out := agg.Aggregate(context.Background(), nil, records, ClassifyOptions{Fallback: types.Skipped})

	assert.Equal(t, types.Failure, out.Conclusion)
	assert.Equal(t, []string{
		"Additional Conclusions:",
		"\tthird: failed => failure",
		"\tfirst: passed => success",
		"second has an unknown option (what).  This conclusion will not contribute to the final workflow conclusion.",
		"The workflow outcome to this point is: failure",
	}, rec.Messages())
}

func TestAggregate_NoAdditionalIsNoop(t *testing.T) {
	rec, logger := testutil.NewLogRecorder()
	agg := NewAggregator(logger)

	out := agg.Aggregate(context.Background(), []types.Conclusion{types.Success}, nil, ClassifyOptions{Fallback: types.Skipped})

	assert.Equal(t, types.Success, out.Conclusion)
	assert.Empty(t, out.Additional)
	assert.Equal(t, []string{"The workflow outcome to this point is: success"}, rec.Messages())
}

func TestAggregate_DoesNotAliasJobOutcomes(t *testing.T) {
	_, logger := testutil.NewLogRecorder()
	agg := NewAggregator(logger)

	jobs := make([]types.Conclusion, 1, 8)
	jobs[0] = types.Success
	out := agg.Aggregate(context.Background(), jobs, []types.AdditionalConclusion{{Name: "gate", Conclusion: "cancelled"}}, ClassifyOptions{Fallback: types.Skipped})

	assert.Equal(t, types.Cancelled, out.Conclusion)
	assert.Equal(t, []types.Conclusion{types.Success}, jobs)
	assert.Equal(t, types.Conclusion(""), jobs[:2][1], "spare capacity of the caller's slice must stay untouched")
	assert.Equal(t, []types.Conclusion{types.Cancelled}, out.Additional)
}

func TestAggregate_Scenarios(t *testing.T) {
	tests := []struct {
		name       string
		jobs       []types.Conclusion
		additional []types.AdditionalConclusion
		fallback   types.Conclusion
		want       types.Conclusion
	}{
		{"build success test failure", []types.Conclusion{types.Success, types.Failure}, nil, types.Skipped, types.Failure},
		{"gate cancelled", []types.Conclusion{types.Success}, []types.AdditionalConclusion{{Name: "gate", Conclusion: "cancelled"}}, types.Skipped, types.Cancelled},
		{"no jobs", nil, nil, types.Skipped, types.Skipped},
		{"unknown label excluded", []types.Conclusion{types.Success}, []types.AdditionalConclusion{{Name: "manual", Conclusion: "weird-value"}}, types.Failure, types.Success},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, logger := testutil.NewLogRecorder()
			out := NewAggregator(logger).Aggregate(context.Background(), tt.jobs, tt.additional, ClassifyOptions{Fallback: tt.fallback})
			assert.Equal(t, tt.want, out.Conclusion)

			if tt.name == "unknown label excluded" {
				e, ok := rec.Find("unknown option")
				require.True(t, ok)
				assert.Equal(t, slog.LevelWarn, e.Level)
			}
		})
	}
}

func TestAggregate_AttributesOnClassificationLines(t *testing.T) {
	rec, logger := testutil.NewLogRecorder()
	NewAggregator(logger).Aggregate(context.Background(), nil,
		[]types.AdditionalConclusion{{Name: "gate", Conclusion: " Skip "}},
		ClassifyOptions{Fallback: types.Skipped, SuppressFallbackWarnings: true})

	e, ok := rec.Find("gate:")
	require.True(t, ok)
	assert.Equal(t, "gate", e.Attrs["name"])
	assert.Equal(t, "skip", e.Attrs["label"])
	assert.Equal(t, "mapped", e.Attrs["kind"])
	assert.Equal(t, slog.LevelWarn, e.Level)
}
