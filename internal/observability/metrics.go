package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricOperationsTotal   = "refactor.operations.total"
	metricOperationDuration = "refactor.operation.duration.seconds"
	metricErrorsTotal       = "refactor.errors.total"
	metricRewritesTotal     = "refactor.rewrites.total"
	metricInflight          = "refactor.inflight.operations"

	attrOp     = "op"
	attrStatus = "status"

	// StatusOK marks a completed operation.
	StatusOK = "ok"
	// StatusError marks a failed operation.
	StatusError = "error"
)

// durationBucketBoundaries spans single-node rewrites (about a millisecond)
// up to whole-tree scripts.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// OpMetrics holds rate, error and duration instruments for refactoring
// operations, plus a counter of applied rewrites.
type OpMetrics struct {
	operationsTotal   metric.Int64Counter
	operationDuration metric.Float64Histogram
	errorsTotal       metric.Int64Counter
	rewritesTotal     metric.Int64Counter
	inflight          metric.Int64UpDownCounter
}

// NewOpMetrics creates the instruments from the given meter.
func NewOpMetrics(mt metric.Meter) (*OpMetrics, error) {
	b := newMetricBuilder(mt)

	om := &OpMetrics{
		operationsTotal:   b.counter(metricOperationsTotal, "Total refactoring operations", "{operation}"),
		operationDuration: b.histogram(metricOperationDuration, "Operation duration in seconds", "s", durationBucketBoundaries...),
		errorsTotal:       b.counter(metricErrorsTotal, "Total failed operations", "{error}"),
		rewritesTotal:     b.counter(metricRewritesTotal, "Total nodes replaced by rewrites", "{node}"),
		inflight:          b.upDownCounter(metricInflight, "Operations in progress", "{operation}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return om, nil
}

// RecordOperation records a finished operation. A nil receiver is a no-op.
func (om *OpMetrics) RecordOperation(ctx context.Context, op, status string, duration time.Duration) {
	if om == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	om.operationsTotal.Add(ctx, 1, attrs)
	om.operationDuration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusError {
		om.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOp, op)))
	}
}

// RecordRewrites adds n replaced nodes to op's counter.
func (om *OpMetrics) RecordRewrites(ctx context.Context, op string, n int) {
	if om == nil || n <= 0 {
		return
	}

	om.rewritesTotal.Add(ctx, int64(n), metric.WithAttributes(attribute.String(attrOp, op)))
}

// TrackInflight increments the in-flight counter and returns its decrement.
func (om *OpMetrics) TrackInflight(ctx context.Context, op string) func() {
	if om == nil {
		return func() {}
	}

	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	om.inflight.Add(ctx, 1, attrs)

	return func() {
		om.inflight.Add(ctx, -1, attrs)
	}
}

// Status maps an error to StatusOK or StatusError.
func Status(err error) string {
	if err != nil {
		return StatusError
	}

	return StatusOK
}
