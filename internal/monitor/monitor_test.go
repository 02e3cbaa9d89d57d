package monitor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heapguard/analyzer/internal/monitor"
)

func TestRuntimeMonitorReportsUsage(t *testing.T) {
	m := monitor.NewRuntime()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	defer m.Stop()

	require.Eventually(t, func() bool {
		return m.HeapUsage().Used > 0
	}, time.Second, 10*time.Millisecond)

	stats := m.Statistics()
	assert.GreaterOrEqual(t, stats.CollectionCount, int64(0))
}

func TestRuntimeMonitorPoolUsagesBreaksDownByPool(t *testing.T) {
	m := monitor.NewRuntime()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	defer m.Stop()

	require.Eventually(t, func() bool {
		return len(m.PoolUsages()) > 0
	}, time.Second, 10*time.Millisecond)

	pools := m.PoolUsages()
	assert.Contains(t, pools, "heap")
	assert.Contains(t, pools, "stack")
	assert.Greater(t, pools["heap"].Used, int64(0))
}
