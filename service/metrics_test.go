package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsCollectorAggregates(t *testing.T) {
	m := NewMetricsCollector()
	m.Record("encrypt", 10*time.Millisecond)
	m.Record("encrypt", 20*time.Millisecond)
	m.Record("add", 5*time.Millisecond)

	snapshot := m.Snapshot()
	assert.Equal(t, int64(2), snapshot["encrypt"].Count)
	assert.InDelta(t, 30.0, snapshot["encrypt"].TotalTimeMs, 0.001)
	assert.InDelta(t, 15.0, snapshot["encrypt"].AvgTimeMs, 0.001)
	assert.Equal(t, int64(1), snapshot["add"].Count)
}

func TestMetricsCollectorEmptySnapshot(t *testing.T) {
	m := NewMetricsCollector()
	assert.Empty(t, m.Snapshot())
	assert.GreaterOrEqual(t, m.Uptime(), time.Duration(0))
}
