package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/dewrangle"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// API call metrics
	APICallsTotal       metric.Int64Counter
	APICallErrorsTotal  metric.Int64Counter
	APICallDuration     metric.Float64Histogram
	MutationsTotal      metric.Int64Counter
	ResultBytesReceived metric.Int64Counter
	ResultBytesWritten  metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	return NewMetrics(otel.GetMeterProvider().Meter(meterName))
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) *Metrics {
	m := &Metrics{}

	m.APICallsTotal, _ = meter.Int64Counter(
		"dewrangle.api.calls.total",
		metric.WithDescription("Total number of GraphQL operations executed"),
		metric.WithUnit("{call}"),
	)

	m.APICallErrorsTotal, _ = meter.Int64Counter(
		"dewrangle.api.calls.errors.total",
		metric.WithDescription("Total number of GraphQL operations that failed"),
		metric.WithUnit("{error}"),
	)

	m.APICallDuration, _ = meter.Float64Histogram(
		"dewrangle.api.calls.duration",
		metric.WithDescription("Duration of GraphQL operations including retries"),
		metric.WithUnit("ms"),
	)

	m.MutationsTotal, _ = meter.Int64Counter(
		"dewrangle.api.mutations.total",
		metric.WithDescription("Total number of mutations issued"),
		metric.WithUnit("{mutation}"),
	)

	m.ResultBytesReceived, _ = meter.Int64Counter(
		"dewrangle.results.received.bytes",
		metric.WithDescription("Bytes of job results downloaded"),
		metric.WithUnit("By"),
	)

	m.ResultBytesWritten, _ = meter.Int64Counter(
		"dewrangle.results.written.bytes",
		metric.WithDescription("Bytes of job result CSV written to disk"),
		metric.WithUnit("By"),
	)

	return m
}

// RecordAPICall records one GraphQL operation.
func (m *Metrics) RecordAPICall(ctx context.Context, operation, kind string, elapsed time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("type", kind),
	)

	m.APICallsTotal.Add(ctx, 1, attrs)
	m.APICallDuration.Record(ctx, float64(elapsed.Milliseconds()), attrs)

	if kind == "mutation" {
		m.MutationsTotal.Add(ctx, 1, attrs)
	}

	if err != nil {
		m.APICallErrorsTotal.Add(ctx, 1, attrs)
	}
}

// RecordResultReceived records the size of a downloaded job result body.
func (m *Metrics) RecordResultReceived(ctx context.Context, n int64) {
	m.ResultBytesReceived.Add(ctx, n)
}

// RecordResultWritten records the size of a result file written to disk.
func (m *Metrics) RecordResultWritten(ctx context.Context, n int64) {
	m.ResultBytesWritten.Add(ctx, n)
}
