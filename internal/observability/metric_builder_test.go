package observability

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
)

var (
	errFirst  = errors.New("first")
	errSecond = errors.New("second")
)

func TestMetricBuilder_Instruments(t *testing.T) {
	t.Parallel()

	b := newMetricBuilder(noopmetric.NewMeterProvider().Meter("test"))

	assert.NotNil(t, b.counter("test.count", "count", "{item}"))
	assert.NotNil(t, b.histogram("test.hist", "hist", "s", durationBucketBoundaries...))
	assert.NotNil(t, b.histogram("test.plain", "hist", "s"))
	assert.NotNil(t, b.upDownCounter("test.updown", "updown", "{item}"))
	require.NoError(t, b.err)
}

func TestMetricBuilder_KeepsFirstError(t *testing.T) {
	t.Parallel()

	b := newMetricBuilder(noopmetric.NewMeterProvider().Meter("test"))

	b.setErr("a", nil)
	b.setErr("b", errFirst)
	b.setErr("c", errSecond)

	require.ErrorIs(t, b.err, errFirst)
	assert.Contains(t, b.err.Error(), "create b")
}
