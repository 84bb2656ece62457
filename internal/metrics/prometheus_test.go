package metrics_test

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"weaksource/internal/metrics"
)

func TestObserveScan(t *testing.T) {
	anomalyBefore := testutil.ToFloat64(metrics.ScansProcessed.WithLabelValues("test", "anomaly"))
	cleanBefore := testutil.ToFloat64(metrics.ScansProcessed.WithLabelValues("test", "clean"))
	pointsBefore := testutil.ToFloat64(metrics.AnomalousPoints)

	metrics.ObserveScan("test", 43.2, 69.12, 18, 0.0001)
	metrics.ObserveScan("test", 50, 80, 0, 0.0001)

	assert.InDelta(t, anomalyBefore+1, testutil.ToFloat64(metrics.ScansProcessed.WithLabelValues("test", "anomaly")), 1e-9)
	assert.InDelta(t, cleanBefore+1, testutil.ToFloat64(metrics.ScansProcessed.WithLabelValues("test", "clean")), 1e-9)
	assert.InDelta(t, pointsBefore+18, testutil.ToFloat64(metrics.AnomalousPoints), 1e-9)
	assert.InDelta(t, 50.0, testutil.ToFloat64(metrics.BackgroundLevel), 1e-9)
	assert.InDelta(t, 80.0, testutil.ToFloat64(metrics.AlarmThreshold), 1e-9)
}

func TestObserveScanError(t *testing.T) {
	before := testutil.ToFloat64(metrics.ScansProcessed.WithLabelValues("test-error", "error"))
	metrics.ObserveScanError("test-error")
	assert.InDelta(t, before+1, testutil.ToFloat64(metrics.ScansProcessed.WithLabelValues("test-error", "error")), 1e-9)
}

func TestRedisStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "success", metrics.RedisStatus(nil))
	assert.Equal(t, "error", metrics.RedisStatus(errors.New("boom")))
}
