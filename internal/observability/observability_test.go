package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestRecordLending(t *testing.T) {
	before := testutil.ToFloat64(LendingOperations.WithLabelValues("lend", "unavailable"))
	RecordLending("lend", "unavailable")
	RecordLending("lend", "unavailable")
	after := testutil.ToFloat64(LendingOperations.WithLabelValues("lend", "unavailable"))
	assert.Equal(t, before+2, after)
}

func TestRecordAuthEvent(t *testing.T) {
	before := testutil.ToFloat64(AuthEvents.WithLabelValues("refresh", "invalid"))
	RecordAuthEvent("refresh", "invalid")
	assert.Equal(t, before+1, testutil.ToFloat64(AuthEvents.WithLabelValues("refresh", "invalid")))
}

func TestTrackLending(t *testing.T) {
	done := TrackLending("return")
	done()
	assert.Equal(t, 1, testutil.CollectAndCount(LendingTransactionLatency))
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "librarium-test"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))

	ctx, span := StartSpan(context.Background(), "lending", "lend", attribute.Int("book.id", 1))
	assert.NotNil(t, ctx)
	EndSpan(span, errors.New("boom"))
}
