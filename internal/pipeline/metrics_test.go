package pipeline

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics()

	m.Record(Result{Success: true, Duration: 2 * time.Second, ProcessedCount: 3, SkippedCount: 1})
	m.Record(Result{Success: false, Duration: time.Second, Err: fmt.Errorf("boom")})
	m.Record(Result{Success: true, CacheHit: true, Duration: 3 * time.Second, ProcessedCount: 3})

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalBuilds)
	assert.Equal(t, int64(2), snap.SuccessfulBuilds)
	assert.Equal(t, int64(1), snap.FailedBuilds)
	assert.Equal(t, int64(1), snap.CacheHits)
	assert.Equal(t, int64(6), snap.ProcessedIcons)
	assert.Equal(t, int64(1), snap.SkippedIcons)
	assert.Equal(t, 6*time.Second, snap.TotalDuration)
	assert.Equal(t, 2*time.Second, snap.AverageDuration)
}

func TestMetricsEmptySnapshot(t *testing.T) {
	snap := NewMetrics().Snapshot()
	assert.Zero(t, snap.TotalBuilds)
	assert.Zero(t, snap.AverageDuration)
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()
	m.Record(Result{Success: true, Duration: time.Second, ProcessedCount: 2})
	m.Reset()

	snap := m.Snapshot()
	assert.Zero(t, snap.TotalBuilds)
	assert.Zero(t, snap.TotalDuration)
	assert.Zero(t, snap.ProcessedIcons)

	// The accumulator stays usable after a reset.
	m.Record(Result{Success: true, Duration: time.Second})
	assert.Equal(t, int64(1), m.Snapshot().TotalBuilds)
}

func TestMetricsConcurrent(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				m.Record(Result{
					Success:        g%2 == 0,
					Duration:       time.Millisecond,
					ProcessedCount: 1,
				})
			}
		}(g)
	}
	wg.Wait()

	snap := m.Snapshot()
	assert.Equal(t, int64(500), snap.TotalBuilds)
	assert.Equal(t, int64(250), snap.SuccessfulBuilds)
	assert.Equal(t, int64(250), snap.FailedBuilds)
	assert.Equal(t, int64(500), snap.ProcessedIcons)
	assert.Equal(t, 500*time.Millisecond, snap.TotalDuration)
	assert.Equal(t, time.Millisecond, snap.AverageDuration)
}
