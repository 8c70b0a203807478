package pipeline

import (
	"sync"
	"time"
)

// Metrics accumulates build statistics across the pipelines sharing it.
type Metrics struct {
	mutex            sync.Mutex
	totalBuilds      int64
	successfulBuilds int64
	failedBuilds     int64
	cacheHits        int64
	processedIcons   int64
	skippedIcons     int64
	totalDuration    time.Duration
}

// MetricsSnapshot is a point-in-time copy of the counters, safe to pass
// around by value.
type MetricsSnapshot struct {
	TotalBuilds      int64
	SuccessfulBuilds int64
	FailedBuilds     int64
	CacheHits        int64
	ProcessedIcons   int64
	SkippedIcons     int64
	TotalDuration    time.Duration
	AverageDuration  time.Duration
}

// NewMetrics creates an empty metrics accumulator.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Record folds one build result into the counters. Cache hits count as
// successful builds; their replayed icon counts accumulate like fresh ones.
func (m *Metrics) Record(res Result) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.totalBuilds++
	m.totalDuration += res.Duration
	m.processedIcons += int64(res.ProcessedCount)
	m.skippedIcons += int64(res.SkippedCount)

	if res.CacheHit {
		m.cacheHits++
	}
	if res.Success {
		m.successfulBuilds++
	} else {
		m.failedBuilds++
	}
}

// Snapshot returns a copy of the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	snap := MetricsSnapshot{
		TotalBuilds:      m.totalBuilds,
		SuccessfulBuilds: m.successfulBuilds,
		FailedBuilds:     m.failedBuilds,
		CacheHits:        m.cacheHits,
		ProcessedIcons:   m.processedIcons,
		SkippedIcons:     m.skippedIcons,
		TotalDuration:    m.totalDuration,
	}
	if m.totalBuilds > 0 {
		snap.AverageDuration = m.totalDuration / time.Duration(m.totalBuilds)
	}
	return snap
}

// Reset zeroes all counters.
func (m *Metrics) Reset() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.totalBuilds = 0
	m.successfulBuilds = 0
	m.failedBuilds = 0
	m.cacheHits = 0
	m.processedIcons = 0
	m.skippedIcons = 0
	m.totalDuration = 0
}
