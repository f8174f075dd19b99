package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				sums[m.Name] += dp.Value
			}
		}
	}
	return sums
}

func TestMetrics_RecordAPICall(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m := NewMetrics(mp.Meter("test"))

	ctx := context.Background()
	m.RecordAPICall(ctx, "AllStudies", "query", 10*time.Millisecond, nil)
	m.RecordAPICall(ctx, "VolumeCreate", "mutation", 20*time.Millisecond, errors.New("boom"))
	m.RecordResultReceived(ctx, 2048)
	m.RecordResultWritten(ctx, 2100)

	sums := collectSums(t, reader)
	assert.Equal(t, int64(2), sums["dewrangle.api.calls.total"])
	assert.Equal(t, int64(1), sums["dewrangle.api.calls.errors.total"])
	assert.Equal(t, int64(1), sums["dewrangle.api.mutations.total"])
	assert.Equal(t, int64(2048), sums["dewrangle.results.received.bytes"])
	assert.Equal(t, int64(2100), sums["dewrangle.results.written.bytes"])
}

func TestEnabled(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	assert.False(t, Enabled())

	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4317")
	assert.True(t, Enabled())
}

func TestNewResource(t *testing.T) {
	t.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment=test")

	res, err := newResource(context.Background(), "dewrangle", "1.2.3")
	require.NoError(t, err)

	attrs := map[string]string{}
	for _, kv := range res.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}

	assert.Equal(t, "dewrangle", attrs["service.name"])
	assert.Equal(t, "1.2.3", attrs["service.version"])
	assert.Equal(t, "test", attrs["deployment.environment"])
}
