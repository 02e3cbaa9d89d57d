// Package analyzer implements the Heap Analyzer facade: it owns the
// event queue, object registry, counters, snapshot history, sliding
// window, and leak detector, and exposes the public start/stop,
// record/query/detect operations the rest of the process calls.
package analyzer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/heapguard/analyzer/internal/config"
	"github.com/heapguard/analyzer/internal/counter"
	"github.com/heapguard/analyzer/internal/event"
	"github.com/heapguard/analyzer/internal/leak"
	"github.com/heapguard/analyzer/internal/metrics"
	"github.com/heapguard/analyzer/internal/monitor"
	"github.com/heapguard/analyzer/internal/registry"
	"github.com/heapguard/analyzer/internal/snapshot"
	"github.com/heapguard/analyzer/internal/window"
)

// recentRing is a bounded FIFO of recently recorded allocations, keyed by
// object id so a snapshot's Allocations map can be built directly from
// it.
type recentRing struct {
	mu       sync.Mutex
	order    []uint64
	byID     map[uint64]event.Record
	capacity int
}

func newRecentRing(capacity int) *recentRing {
	return &recentRing{byID: make(map[uint64]event.Record), capacity: capacity}
}

func (r *recentRing) add(rec event.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[rec.ObjectID]; !exists {
		r.order = append(r.order, rec.ObjectID)
	}
	r.byID[rec.ObjectID] = rec
	for len(r.order) > r.capacity {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.byID, oldest)
	}
}

func (r *recentRing) snapshot() map[uint64]event.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uint64]event.Record, len(r.byID))
	for k, v := range r.byID {
		out[k] = v
	}
	return out
}

func (r *recentRing) recent(limit int) []event.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.order)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]event.Record, 0, n)
	for i := len(r.order) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, r.byID[r.order[i]])
	}
	return out
}

func (r *recentRing) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = nil
	r.byID = make(map[uint64]event.Record)
}

// Analyzer is the Heap Analyzer facade.
type Analyzer struct {
	cfg    config.Config
	logger *zap.Logger

	queue    *event.Queue
	registry *registry.Registry
	window   *window.Analyzer
	detector *leak.Detector
	monitor  monitor.Monitor
	siteCfg  event.SiteConfig

	recent      *recentRing
	classBytes  *counter.Map
	threadBytes *counter.Map

	snapMu   sync.Mutex
	snaps    []snapshot.Snapshot
	snapByID map[int64]snapshot.Snapshot

	analyzing atomic.Bool
	startedAt atomic.Int64

	cancel     context.CancelFunc
	workerDone sync.WaitGroup
}

// New builds an Analyzer wired from cfg. It does not start any worker
// until StartAnalysis is called.
func New(cfg config.Config, mon monitor.Monitor, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := registry.New(cfg.ShardCount, cfg.MaxTrackedObjects, logger)
	win := window.New(int(cfg.WindowSize))
	det := leak.New(
		leakRegistryAdapter{reg},
		win,
		leak.Thresholds{AgeThresholdMS: cfg.AgeThreshold.Milliseconds(), GrowthThreshold: int64(cfg.GrowthThreshold)},
		int(cfg.ReportHistoryCap),
		logger,
	)

	return &Analyzer{
		cfg:         cfg,
		logger:      logger,
		queue:       event.NewQueue(event.DefaultCapacity),
		registry:    reg,
		window:      win,
		detector:    det,
		monitor:     mon,
		siteCfg:     event.DefaultSiteConfig(),
		recent:      newRecentRing(int(cfg.RecentAllocationsCap)),
		classBytes:  counter.NewMap(),
		threadBytes: counter.NewMap(),
		snapByID:    make(map[int64]snapshot.Snapshot),
	}
}

// leakRegistryAdapter adapts *registry.Registry to leak.RegistrySource
// without exposing registry's full surface to the leak package.
type leakRegistryAdapter struct{ r *registry.Registry }

func (a leakRegistryAdapter) ClassStatistics() map[string]registry.ClassStats {
	return a.r.ClassStatistics()
}
func (a leakRegistryAdapter) GetByClass(class string) []event.Record { return a.r.GetByClass(class) }
func (a leakRegistryAdapter) GetOlderThan(nowMS, ageMS int64) []event.Record {
	return a.r.GetOlderThan(nowMS, ageMS)
}

// StartAnalysis is idempotent: starting an already-running analyzer is a
// no-op.
func (a *Analyzer) StartAnalysis() {
	if !a.analyzing.CompareAndSwap(false, true) {
		return
	}
	a.startedAt.Store(time.Now().UnixMilli())

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.monitor != nil {
		a.monitor.Start(ctx)
	}

	a.workerDone.Add(2)
	go func() {
		defer a.workerDone.Done()
		a.registry.RunCleanup(ctx, a.cfg.CleanupInterval)
	}()
	go func() {
		defer a.workerDone.Done()
		a.runEventLoop(ctx)
	}()

	a.detector.StartDetecting()
}

// StopAnalysis is idempotent.
func (a *Analyzer) StopAnalysis() {
	if !a.analyzing.CompareAndSwap(true, false) {
		return
	}
	if a.cancel != nil {
		a.cancel()
	}
	if a.monitor != nil {
		a.monitor.Stop()
	}
	a.detector.StopDetecting()

	done := make(chan struct{})
	go func() {
		a.workerDone.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		a.logger.Warn("analyzer workers did not stop within bound")
	}
}

// IsAnalyzing reports the current state-machine flag.
func (a *Analyzer) IsAnalyzing() bool {
	return a.analyzing.Load()
}

func (a *Analyzer) runEventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		ev, ok := a.queue.Pop()
		metrics.QueueDepth.Set(float64(a.queue.Len()))
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-time.After(100 * time.Microsecond):
			}
			continue
		}
		a.dispatch(ev)
	}
}

func (a *Analyzer) dispatch(ev event.Event) {
	switch ev.Kind {
	case event.KindAlloc:
		rec := event.NewRecord(ev, a.siteCfg)
		a.RecordAllocation(rec)
	case event.KindFree:
		a.registry.Untrack(ev.Tag)
	case event.KindGCStart, event.KindGCFinish:
		// GC markers are informational only; the monitor polls its own
		// collector counters independently.
	}
}

// Queue exposes the intake queue so a Source can push events into it.
func (a *Analyzer) Queue() *event.Queue { return a.queue }

// RecordAllocation records rec regardless of analyzing state: ingest is
// decoupled from the start/stop flag.
func (a *Analyzer) RecordAllocation(rec event.Record) {
	a.recent.add(rec)
	a.classBytes.Add(rec.ClassName, rec.SizeBytes)
	a.threadBytes.Add(rec.ThreadName, rec.SizeBytes)
	a.registry.Track(rec)
}

// TakeSnapshot builds and retains a new Snapshot from current state.
func (a *Analyzer) TakeSnapshot() snapshot.Snapshot {
	a.snapMu.Lock()
	defer a.snapMu.Unlock()

	var usage monitor.HeapUsage
	if a.monitor != nil {
		usage = a.monitor.HeapUsage()
	}

	snap := snapshot.New(
		time.Now().UnixMilli(),
		snapshot.HeapUsage{Used: usage.Used, Committed: usage.Committed, Max: usage.Max},
		a.registry.ClassStatistics(),
		a.recent.snapshot(),
	)

	a.snaps = append(a.snaps, snap)
	if len(a.snaps) > int(a.cfg.SnapshotHistoryCap) {
		evicted := a.snaps[0]
		delete(a.snapByID, evicted.ID)
		a.snaps = a.snaps[1:]
	}
	a.snapByID[snap.ID] = snap

	classSamples := make(map[string]window.Sample, len(snap.ClassStats))
	for class, s := range snap.ClassStats {
		classSamples[class] = window.Sample{InstanceCount: s.InstanceCount, TotalSize: s.TotalSize}
	}
	a.window.AddSnapshot(classSamples)

	return snap
}

// Snapshots returns a copy of the retained snapshot history, oldest
// first.
func (a *Analyzer) Snapshots() []snapshot.Snapshot {
	a.snapMu.Lock()
	defer a.snapMu.Unlock()
	out := make([]snapshot.Snapshot, len(a.snaps))
	copy(out, a.snaps)
	return out
}

// LatestSnapshot returns the most recently taken snapshot, if any.
func (a *Analyzer) LatestSnapshot() (snapshot.Snapshot, bool) {
	a.snapMu.Lock()
	defer a.snapMu.Unlock()
	if len(a.snaps) == 0 {
		return snapshot.Snapshot{}, false
	}
	return a.snaps[len(a.snaps)-1], true
}

// CompareSnapshots diffs two retained snapshots by id.
func (a *Analyzer) CompareSnapshots(baseID, currentID int64) (snapshot.Diff, bool) {
	a.snapMu.Lock()
	base, baseOK := a.snapByID[baseID]
	current, currentOK := a.snapByID[currentID]
	a.snapMu.Unlock()
	if !baseOK || !currentOK {
		return snapshot.Diff{}, false
	}
	return snapshot.Compare(base, current), true
}

// HeapMemoryUsage returns the monitor's current heap usage reading.
func (a *Analyzer) HeapMemoryUsage() monitor.HeapUsage {
	if a.monitor == nil {
		return monitor.HeapUsage{}
	}
	return a.monitor.HeapUsage()
}

// GCStatistics returns the monitor's current collector statistics.
func (a *Analyzer) GCStatistics() monitor.Statistics {
	if a.monitor == nil {
		return monitor.Statistics{}
	}
	return a.monitor.Statistics()
}

// HeapPoolUsages returns the monitor's current per-pool usage breakdown,
// keyed by pool name. It is distinct from HeapMemoryUsage, which reports
// only the aggregate total.
func (a *Analyzer) HeapPoolUsages() map[string]monitor.HeapUsage {
	if a.monitor == nil {
		return map[string]monitor.HeapUsage{}
	}
	return a.monitor.PoolUsages()
}

// AllocationStats is the aggregate allocation-byte summary the facade
// exposes: total count/bytes plus top classes and threads by bytes.
type AllocationStats struct {
	Count      int64
	TotalBytes int64
	TopClasses []counter.KeyCounter
	TopThreads []counter.KeyCounter
}

// AllocationStats summarizes recorded allocation byte totals.
func (a *Analyzer) AllocationStats() AllocationStats {
	classes := a.classBytes.SortedBySum(0)
	threads := a.threadBytes.SortedBySum(10)

	var count, total int64
	for _, c := range classes {
		count += c.Count
		total += c.Sum
	}
	if len(classes) > 10 {
		classes = classes[:10]
	}
	return AllocationStats{Count: count, TotalBytes: total, TopClasses: classes, TopThreads: threads}
}

// RecentAllocations returns up to limit recently recorded records, newest
// first.
func (a *Analyzer) RecentAllocations(limit int) []event.Record {
	return a.recent.recent(limit)
}

// Detect runs the leak detector. See leak.Detector.Detect for semantics.
func (a *Analyzer) Detect() (leak.Report, bool) {
	return a.detector.Detect(time.Now().UnixMilli())
}

// AddLeakListener registers a leak-report listener.
func (a *Analyzer) AddLeakListener(l leak.Listener) {
	a.detector.AddListener(l)
}

// ReportHistory returns the retained leak report history.
func (a *Analyzer) ReportHistory() []leak.Report {
	return a.detector.History()
}

// TopClasses delegates to the registry's top-N-by-size query.
func (a *Analyzer) TopClasses(limit int) []registry.ClassSummary {
	return a.registry.TopClasses(limit)
}

// TopSites delegates to the registry's top-N-by-size query.
func (a *Analyzer) TopSites(limit int) []registry.SiteSummary {
	return a.registry.TopSites(limit)
}

// Clear empties the registry, counters, recent-allocations ring, and
// snapshot history. It is legal at any time, including while analyzing.
func (a *Analyzer) Clear() {
	a.registry.Clear()
	a.classBytes.Clear()
	a.threadBytes.Clear()
	a.recent.clear()

	a.snapMu.Lock()
	a.snaps = nil
	a.snapByID = make(map[int64]snapshot.Snapshot)
	a.snapMu.Unlock()
}
