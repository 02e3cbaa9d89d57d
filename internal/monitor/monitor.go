// Package monitor implements the GC/Memory-usage monitor: a periodic
// poller of heap totals and collection counters, with a runtime-backed
// default and a host-stat-backed alternative sharing one interface.
package monitor

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/heapguard/analyzer/internal/metrics"
)

// HeapUsage mirrors the snapshot package's usage shape so the facade can
// pass a Monitor's reading straight into a Snapshot.
type HeapUsage struct {
	Used      int64
	Committed int64
	Max       int64
}

// Statistics is the derived GC/Memory monitor reading.
type Statistics struct {
	CollectionCount      int64
	CollectionTimeMS     int64
	LastCollectionTimeMS int64
	AvgPauseMS           float64
}

// Monitor polls heap usage and collector statistics at a fixed cadence.
// Both the default runtime-backed implementation and the hoststat
// alternative satisfy this interface, so the facade is agnostic to which
// one is wired in.
type Monitor interface {
	Start(ctx context.Context)
	Stop()
	HeapUsage() HeapUsage
	Statistics() Statistics
	PoolUsages() map[string]HeapUsage
}

// PollInterval is the documented 500ms monitor cadence.
const PollInterval = 500 * time.Millisecond

// RuntimeMonitor polls Go's own runtime.MemStats for heap totals and
// cumulative GC pause counters.
type RuntimeMonitor struct {
	mu        sync.RWMutex
	usage     HeapUsage
	stats     Statistics
	pools     map[string]HeapUsage
	cancel    context.CancelFunc
	lastNumGC uint32
}

// NewRuntime returns a RuntimeMonitor. Start must be called to begin
// polling.
func NewRuntime() *RuntimeMonitor {
	return &RuntimeMonitor{}
}

func (m *RuntimeMonitor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	go m.poll(ctx)
}

func (m *RuntimeMonitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *RuntimeMonitor) poll(ctx context.Context) {
	ticker := time.NewTicker(PollInterval)
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

func (m *RuntimeMonitor) sample() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.usage = HeapUsage{
		Used:      int64(ms.HeapAlloc),
		Committed: int64(ms.HeapSys),
		Max:       int64(ms.HeapSys),
	}

	totalPauseNS := ms.PauseTotalNs
	count := int64(ms.NumGC)
	var avgPauseMS float64
	if count > 0 {
		avgPauseMS = float64(totalPauseNS) / float64(count) / 1e6
	}
	var lastMS int64
	if ms.NumGC > 0 {
		lastMS = int64(ms.PauseNs[(ms.NumGC+255)%256] / 1e6)
	}

	m.stats = Statistics{
		CollectionCount:      count,
		CollectionTimeMS:     int64(totalPauseNS / 1e6),
		LastCollectionTimeMS: lastMS,
		AvgPauseMS:           avgPauseMS,
	}
	m.lastNumGC = ms.NumGC
	m.pools = map[string]HeapUsage{
		"heap":   {Used: int64(ms.HeapAlloc), Committed: int64(ms.HeapInuse), Max: int64(ms.HeapSys)},
		"stack":  {Used: int64(ms.StackInuse), Committed: int64(ms.StackInuse), Max: int64(ms.StackSys)},
		"mspan":  {Used: int64(ms.MSpanInuse), Committed: int64(ms.MSpanInuse), Max: int64(ms.MSpanSys)},
		"mcache": {Used: int64(ms.MCacheInuse), Committed: int64(ms.MCacheInuse), Max: int64(ms.MCacheSys)},
		"other":  {Used: int64(ms.OtherSys), Committed: int64(ms.OtherSys), Max: int64(ms.OtherSys)},
	}
	metrics.HeapUsedBytes.Set(float64(m.usage.Used))
}

func (m *RuntimeMonitor) HeapUsage() HeapUsage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.usage
}

func (m *RuntimeMonitor) Statistics() Statistics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

// PoolUsages breaks the runtime's managed memory into its constituent
// sub-allocators, mirroring the JVM's per-MemoryPoolMXBean breakdown
// (eden/survivor/old generation) with Go's own pool boundaries: the
// scannable heap plus goroutine stacks, span/cache bookkeeping, and other
// runtime-reserved memory.
func (m *RuntimeMonitor) PoolUsages() map[string]HeapUsage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]HeapUsage, len(m.pools))
	for name, usage := range m.pools {
		out[name] = usage
	}
	return out
}
