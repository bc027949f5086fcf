package service

import (
	"sync"
	"time"
)

// OperationMetrics is the aggregate for one operation name.
type OperationMetrics struct {
	Count       int64   `json:"count"`
	TotalTimeMs float64 `json:"total_time_ms"`
	AvgTimeMs   float64 `json:"avg_time_ms"`
}

// MetricsCollector accumulates per-operation call counts and latencies.
type MetricsCollector struct {
	mu      sync.Mutex
	counts  map[string]int64
	totals  map[string]time.Duration
	started time.Time
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counts:  make(map[string]int64),
		totals:  make(map[string]time.Duration),
		started: time.Now(),
	}
}

// Record adds one observation for the named operation.
func (m *MetricsCollector) Record(operation string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[operation]++
	m.totals[operation] += d
}

// Snapshot returns a copy of the aggregates keyed by operation name.
func (m *MetricsCollector) Snapshot() map[string]OperationMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[string]OperationMetrics, len(m.counts))
	for op, count := range m.counts {
		totalMs := float64(m.totals[op]) / float64(time.Millisecond)
		snapshot[op] = OperationMetrics{
			Count:       count,
			TotalTimeMs: totalMs,
			AvgTimeMs:   totalMs / float64(count),
		}
	}
	return snapshot
}

// Uptime reports how long the collector has been running.
func (m *MetricsCollector) Uptime() time.Duration {
	return time.Since(m.started)
}
