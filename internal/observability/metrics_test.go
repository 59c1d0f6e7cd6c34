package observability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/refactor/internal/observability"
)

func setupTestMeter(t *testing.T) (*observability.OpMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	om, err := observability.NewOpMetrics(mp.Meter("test"))
	require.NoError(t, err)

	return om, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func TestOpMetrics_RecordOperation(t *testing.T) {
	t.Parallel()

	om, reader := setupTestMeter(t)

	om.RecordOperation(context.Background(), "rewrite_expr", observability.StatusOK, 100*time.Millisecond)

	rm := collectMetrics(t, reader)

	require.NotNil(t, findMetric(rm, "refactor.operations.total"))
	require.NotNil(t, findMetric(rm, "refactor.operation.duration.seconds"))
	assert.Nil(t, findMetric(rm, "refactor.errors.total"))
}

func TestOpMetrics_RecordOperationError(t *testing.T) {
	t.Parallel()

	om, reader := setupTestMeter(t)

	om.RecordOperation(context.Background(), "script", observability.Status(errors.New("boom")), time.Second)

	rm := collectMetrics(t, reader)

	require.NotNil(t, findMetric(rm, "refactor.errors.total"))
}

func TestOpMetrics_RecordRewrites(t *testing.T) {
	t.Parallel()

	om, reader := setupTestMeter(t)
	ctx := context.Background()

	om.RecordRewrites(ctx, "rewrite_expr", 3)
	om.RecordRewrites(ctx, "rewrite_expr", 0)

	rm := collectMetrics(t, reader)

	m := findMetric(rm, "refactor.rewrites.total")
	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)
}

func TestOpMetrics_TrackInflight(t *testing.T) {
	t.Parallel()

	om, reader := setupTestMeter(t)

	done := om.TrackInflight(context.Background(), "parse")
	require.NotNil(t, findMetric(collectMetrics(t, reader), "refactor.inflight.operations"))

	done()
}

func TestOpMetrics_HistogramBuckets(t *testing.T) {
	t.Parallel()

	om, reader := setupTestMeter(t)

	om.RecordOperation(context.Background(), "cfg", observability.StatusOK, time.Second)

	m := findMetric(collectMetrics(t, reader), "refactor.operation.duration.seconds")
	require.NotNil(t, m)

	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.NotEmpty(t, hist.DataPoints)

	want := []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}
	assert.Equal(t, want, hist.DataPoints[0].Bounds)
}

func TestOpMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var om *observability.OpMetrics

	om.RecordOperation(context.Background(), "x", observability.StatusOK, time.Millisecond)
	om.RecordRewrites(context.Background(), "x", 1)
	om.TrackInflight(context.Background(), "x")()
}
