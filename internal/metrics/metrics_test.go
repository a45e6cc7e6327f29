package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/dwsmith1983/workflow-conclusion/pkg/types"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string][]metricdata.DataPoint[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string][]metricdata.DataPoint[int64]{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, m.Name)
			out[m.Name] = append(out[m.Name], sum.DataPoints...)
		}
	}
	return out
}

func value(points []metricdata.DataPoint[int64], attrs ...attribute.KeyValue) int64 {
	want := attribute.NewSet(attrs...)
	for _, p := range points {
		if p.Attributes.Equals(&want) {
			return p.Value
		}
	}
	return 0
}

func TestRecorder(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	r, err := New(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	r.Outcomes(ctx, types.SourceJob, []types.Conclusion{types.Success, types.Success, types.Failure})
	r.Outcomes(ctx, types.SourceAdditional, []types.Conclusion{types.Cancelled})
	r.Result(ctx, types.Cancelled)
	r.CollectError(ctx)

	got := collect(t, reader)
	assert.Equal(t, int64(2), value(got[OutcomesName],
		attribute.String("source", "job"), attribute.String("conclusion", "success")))
	assert.Equal(t, int64(1), value(got[OutcomesName],
		attribute.String("source", "job"), attribute.String("conclusion", "failure")))
	assert.Equal(t, int64(1), value(got[OutcomesName],
		attribute.String("source", "additional"), attribute.String("conclusion", "cancelled")))
	assert.Equal(t, int64(1), value(got[ResultsName], attribute.String("conclusion", "cancelled")))
	assert.Equal(t, int64(1), value(got[CollectErrorsName]))
}

func TestNew_NilMeter(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)
	r.Result(context.Background(), types.Success)
	r.Outcomes(context.Background(), types.SourceJob, nil)
}
