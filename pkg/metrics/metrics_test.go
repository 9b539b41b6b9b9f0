package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"meterocr/pkg/ocr"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumFor(t *testing.T, m metricdata.Metrics, key, value string) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is %T", m.Name, m.Data)
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			return dp.Value
		}
	}
	return 0
}

func TestRecorder(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	r, err := NewRecorder(mp)
	require.NoError(t, err)

	ctx := context.Background()
	r.ObserveValidation(ctx, ocr.TierAccept, 120*time.Millisecond)
	r.ObserveValidation(ctx, ocr.TierAccept, 80*time.Millisecond)
	r.ObserveValidation(ctx, ocr.TierReject, 50*time.Millisecond)
	r.ObserveFailure(ctx, ocr.FailureRecognition)

	got := collect(t, reader)
	require.Contains(t, got, MetricValidations)
	assert.EqualValues(t, 2, sumFor(t, got[MetricValidations], "tier", "ACCEPT"))
	assert.EqualValues(t, 1, sumFor(t, got[MetricValidations], "tier", "REJECT"))
	assert.EqualValues(t, 0, sumFor(t, got[MetricValidations], "tier", "PARTIAL"))
	assert.EqualValues(t, 1, sumFor(t, got[MetricFailures], "kind", ocr.FailureRecognition))

	hist, ok := got[MetricDuration].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	var total float64
	for _, dp := range hist.DataPoints {
		count += dp.Count
		total += dp.Sum
	}
	assert.EqualValues(t, 3, count)
	assert.InDelta(t, 250.0, total, 1e-9)
}

func TestStartWithoutEndpoint(t *testing.T) {
	r, shutdown, err := Start(context.Background(), "", "test", 0)
	require.NoError(t, err)
	require.NotNil(t, r)
	r.ObserveFailure(context.Background(), ocr.FailureInvalidImage)
	assert.NoError(t, shutdown(context.Background()))
}
