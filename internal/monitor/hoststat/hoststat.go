// Package hoststat implements the GC/Memory monitor alternative backed by
// host and process memory statistics, for environments where the target
// runtime does not expose its own collector counters.
package hoststat

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"

	"github.com/heapguard/analyzer/internal/metrics"
	"github.com/heapguard/analyzer/internal/monitor"
)

// Monitor polls host and process memory via gopsutil on the same cadence
// as the default runtime monitor. It never reports a negative reading and
// always reports zero collections/pauses: there is no GC concept at the
// host level, so callers of Statistics() degrade gracefully instead of
// erroring.
type Monitor struct {
	logger *zap.Logger
	proc   *process.Process

	mu     sync.RWMutex
	usage  monitor.HeapUsage
	pools  map[string]monitor.HeapUsage
	cancel context.CancelFunc
}

// New builds a host-stat Monitor for the current process.
func New(logger *zap.Logger) (*Monitor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &Monitor{logger: logger, proc: proc}, nil
}

func (m *Monitor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	go m.poll(ctx)
}

func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *Monitor) poll(ctx context.Context) {
	ticker := time.NewTicker(monitor.PollInterval)
	defer ticker.Stop()
	m.sample()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

func (m *Monitor) sample() {
	var used int64
	if info, err := m.proc.MemoryInfo(); err == nil && info != nil {
		used = int64(info.RSS)
	} else if err != nil {
		m.logger.Warn("failed to read process memory info", zap.Error(err))
	}

	var total int64
	var pools map[string]monitor.HeapUsage
	if vm, err := mem.VirtualMemory(); err == nil && vm != nil {
		total = int64(vm.Total)
		pools = map[string]monitor.HeapUsage{
			"used":    {Used: int64(vm.Used), Committed: int64(vm.Used), Max: total},
			"cached":  {Used: int64(vm.Cached), Committed: int64(vm.Cached), Max: total},
			"buffers": {Used: int64(vm.Buffers), Committed: int64(vm.Buffers), Max: total},
			"free":    {Used: int64(vm.Free), Committed: int64(vm.Free), Max: total},
		}
	} else if err != nil {
		m.logger.Warn("failed to read host memory info", zap.Error(err))
	}

	if used < 0 {
		used = 0
	}
	if total < 0 {
		total = 0
	}

	m.mu.Lock()
	m.usage = monitor.HeapUsage{Used: used, Committed: used, Max: total}
	m.pools = pools
	m.mu.Unlock()
	metrics.HeapUsedBytes.Set(float64(used))
}

func (m *Monitor) HeapUsage() monitor.HeapUsage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.usage
}

// Statistics always reports zero collections: host memory has no GC
// concept to sample.
func (m *Monitor) Statistics() monitor.Statistics {
	return monitor.Statistics{}
}

// PoolUsages breaks host virtual memory into used/cached/buffers/free
// pools, the closest host-level analogue to a per-MemoryPoolMXBean
// breakdown available without a managed-heap runtime to query.
func (m *Monitor) PoolUsages() map[string]monitor.HeapUsage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]monitor.HeapUsage, len(m.pools))
	for name, usage := range m.pools {
		out[name] = usage
	}
	return out
}
