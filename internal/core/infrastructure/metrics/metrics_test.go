package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordTask(t *testing.T) {
	before := testutil.ToFloat64(tasksTotal.WithLabelValues("chunk", "success"))
	RecordTask("chunk", "success")
	RecordTask("chunk", "success")
	assert.Equal(t, before+2, testutil.ToFloat64(tasksTotal.WithLabelValues("chunk", "success")))
}

func TestWorkerGauge(t *testing.T) {
	base := testutil.ToFloat64(busyWorkers)
	WorkerBusy()
	assert.Equal(t, base+1, testutil.ToFloat64(busyWorkers))
	WorkerIdle()
	assert.Equal(t, base, testutil.ToFloat64(busyWorkers))
}

func TestObserveStage(t *testing.T) {
	ObserveStage("prove", 1500*time.Millisecond)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(stageDuration), 1)
}
