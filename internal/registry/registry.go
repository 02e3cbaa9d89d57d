// Package registry implements the live object registry: a sharded
// concurrent map from object id to allocation record, with derived
// per-class and per-allocation-site aggregates and a background cleanup
// worker enforcing a size cap.
package registry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/heapguard/analyzer/internal/event"
	"github.com/heapguard/analyzer/internal/helper"
	"github.com/heapguard/analyzer/internal/metrics"
)

// ClassStats is the derived aggregate for one class.
type ClassStats struct {
	InstanceCount int64
	TotalSize     int64
}

// AvgSize returns TotalSize/InstanceCount, or 0 when count is 0.
func (s ClassStats) AvgSize() float64 {
	if s.InstanceCount == 0 {
		return 0
	}
	return float64(s.TotalSize) / float64(s.InstanceCount)
}

// SiteStats is the derived aggregate for one allocation site. It is
// append-only: it never decrements when an object is freed or evicted.
type SiteStats struct {
	AllocationCount int64
	TotalSize       int64
}

func (s SiteStats) AvgSize() float64 {
	if s.AllocationCount == 0 {
		return 0
	}
	return float64(s.TotalSize) / float64(s.AllocationCount)
}

type classAgg struct {
	instanceCount int64
	totalSize     int64
}

type siteAgg struct {
	allocationCount int64
	totalSize       int64
}

type shard struct {
	mu      sync.Mutex
	objects map[uint64]event.Record
}

// Registry is the concurrent object tracker described by the component
// design: sharded by a hash of the object id for writer concurrency, with
// class/site aggregates held separately from the shards so a class's
// aggregate is not scattered across shard locks it doesn't otherwise need.
type Registry struct {
	shards    []shard
	shardMask uint64

	classMu    sync.RWMutex
	classStats map[string]*classAgg

	siteMu    sync.RWMutex
	siteStats map[string]*siteAgg

	trackedCount atomic.Int64
	totalTracked atomic.Int64
	totalFreed   atomic.Int64
	evictedCount atomic.Int64

	maxTracked uint32
	logger     *zap.Logger
}

// New builds a Registry with the given shard count (rounded up to a power
// of two) and eviction cap.
func New(shardCount int, maxTracked uint32, logger *zap.Logger) *Registry {
	if shardCount < 1 {
		shardCount = 1
	}
	n := 1
	for n < shardCount {
		n <<= 1
	}
	shards := make([]shard, n)
	for i := range shards {
		shards[i].objects = make(map[uint64]event.Record)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		shards:     shards,
		shardMask:  uint64(n - 1),
		classStats: make(map[string]*classAgg),
		siteStats:  make(map[string]*siteAgg),
		maxTracked: maxTracked,
		logger:     logger,
	}
}

func (r *Registry) shardFor(id uint64) *shard {
	h := xxhash.Sum64(uint64ToBytes(id))
	return &r.shards[h&r.shardMask]
}

func uint64ToBytes(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}

// Track inserts record if its ObjectID is not already present. A repeat
// track of a live id is a no-op.
func (r *Registry) Track(rec event.Record) {
	s := r.shardFor(rec.ObjectID)
	s.mu.Lock()
	if _, exists := s.objects[rec.ObjectID]; exists {
		s.mu.Unlock()
		return
	}
	s.objects[rec.ObjectID] = rec
	s.mu.Unlock()

	r.bumpClass(rec.ClassName, 1, rec.SizeBytes)
	r.bumpSite(rec.AllocationSite, rec.SizeBytes)
	r.trackedCount.Add(1)
	r.totalTracked.Add(1)
	metrics.RegistryTrackedObjects.Set(float64(r.trackedCount.Load()))
}

// Untrack removes an object if present, decrementing its class aggregate.
// Site aggregates are never decremented.
func (r *Registry) Untrack(objectID uint64) {
	s := r.shardFor(objectID)
	s.mu.Lock()
	rec, exists := s.objects[objectID]
	if !exists {
		s.mu.Unlock()
		return
	}
	delete(s.objects, objectID)
	s.mu.Unlock()

	r.bumpClass(rec.ClassName, -1, -rec.SizeBytes)
	r.trackedCount.Add(-1)
	r.totalFreed.Add(1)
	metrics.RegistryTrackedObjects.Set(float64(r.trackedCount.Load()))
}

func (r *Registry) bumpClass(class string, deltaCount int, deltaSize int64) {
	r.classMu.Lock()
	agg, ok := r.classStats[class]
	if !ok {
		if deltaCount <= 0 {
			r.classMu.Unlock()
			return
		}
		agg = &classAgg{}
		r.classStats[class] = agg
	}
	agg.instanceCount += int64(deltaCount)
	agg.totalSize += deltaSize
	drop := agg.instanceCount <= 0
	if drop {
		delete(r.classStats, class)
	}
	r.classMu.Unlock()
}

func (r *Registry) bumpSite(site string, size int64) {
	r.siteMu.Lock()
	agg, ok := r.siteStats[site]
	if !ok {
		agg = &siteAgg{}
		r.siteStats[site] = agg
	}
	agg.allocationCount++
	agg.totalSize += size
	r.siteMu.Unlock()
}

// Get returns the record for id, if tracked.
func (r *Registry) Get(id uint64) (event.Record, bool) {
	s := r.shardFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.objects[id]
	return rec, ok
}

// IsTracked reports whether id is currently live.
func (r *Registry) IsTracked(id uint64) bool {
	_, ok := r.Get(id)
	return ok
}

// GetAll returns every currently tracked record.
func (r *Registry) GetAll() []event.Record {
	out := make([]event.Record, 0, r.trackedCount.Load())
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.Lock()
		for _, rec := range s.objects {
			out = append(out, rec)
		}
		s.mu.Unlock()
	}
	return out
}

// GetByClass returns every currently tracked record for the given class.
func (r *Registry) GetByClass(class string) []event.Record {
	var out []event.Record
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.Lock()
		for _, rec := range s.objects {
			if rec.ClassName == class {
				out = append(out, rec)
			}
		}
		s.mu.Unlock()
	}
	return out
}

// GetAfter returns every currently tracked record with TimestampMS >= ts.
func (r *Registry) GetAfter(ts int64) []event.Record {
	var out []event.Record
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.Lock()
		for _, rec := range s.objects {
			if rec.TimestampMS >= ts {
				out = append(out, rec)
			}
		}
		s.mu.Unlock()
	}
	return out
}

// GetOlderThan returns every currently tracked record older than ageMS,
// measured against nowMS.
func (r *Registry) GetOlderThan(nowMS, ageMS int64) []event.Record {
	cutoff := nowMS - ageMS
	var out []event.Record
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.Lock()
		for _, rec := range s.objects {
			if rec.TimestampMS <= cutoff {
				out = append(out, rec)
			}
		}
		s.mu.Unlock()
	}
	return out
}

// ClassStatistics returns a point-in-time copy of the per-class aggregates.
func (r *Registry) ClassStatistics() map[string]ClassStats {
	r.classMu.RLock()
	defer r.classMu.RUnlock()
	out := make(map[string]ClassStats, len(r.classStats))
	for k, v := range r.classStats {
		out[k] = ClassStats{InstanceCount: v.instanceCount, TotalSize: v.totalSize}
	}
	return out
}

// SiteStatistics returns a point-in-time copy of the per-site aggregates.
func (r *Registry) SiteStatistics() map[string]SiteStats {
	r.siteMu.RLock()
	defer r.siteMu.RUnlock()
	out := make(map[string]SiteStats, len(r.siteStats))
	for k, v := range r.siteStats {
		out[k] = SiteStats{AllocationCount: v.allocationCount, TotalSize: v.totalSize}
	}
	return out
}

// ClassSummary names a class alongside its stats, for top-N results.
type ClassSummary struct {
	ClassName string
	ClassStats
}

// SiteSummary names a site alongside its stats, for top-N results.
type SiteSummary struct {
	Site string
	SiteStats
}

// TopClasses returns up to limit classes ordered by TotalSize descending.
func (r *Registry) TopClasses(limit int) []ClassSummary {
	stats := r.ClassStatistics()
	top := helper.NewTopNSorter[int64, ClassSummary](limit)
	for name, s := range stats {
		top.InsertAscending(s.TotalSize, ClassSummary{ClassName: name, ClassStats: s})
	}
	return top.ValuesDescending()
}

// TopSites returns up to limit sites ordered by TotalSize descending.
func (r *Registry) TopSites(limit int) []SiteSummary {
	stats := r.SiteStatistics()
	top := helper.NewTopNSorter[int64, SiteSummary](limit)
	for site, s := range stats {
		top.InsertAscending(s.TotalSize, SiteSummary{Site: site, SiteStats: s})
	}
	return top.ValuesDescending()
}

// TrackedCount returns the number of currently live entries.
func (r *Registry) TrackedCount() int64 { return r.trackedCount.Load() }

// TotalTracked returns the cumulative number of inserts.
func (r *Registry) TotalTracked() int64 { return r.totalTracked.Load() }

// TotalFreed returns the cumulative number of removes.
func (r *Registry) TotalFreed() int64 { return r.totalFreed.Load() }

// EvictedCount returns the cumulative number of cleanup-driven evictions.
func (r *Registry) EvictedCount() int64 { return r.evictedCount.Load() }

// Clear empties the registry entirely: objects, class stats, and site
// stats.
func (r *Registry) Clear() {
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.Lock()
		s.objects = make(map[uint64]event.Record)
		s.mu.Unlock()
	}
	r.classMu.Lock()
	r.classStats = make(map[string]*classAgg)
	r.classMu.Unlock()
	r.siteMu.Lock()
	r.siteStats = make(map[string]*siteAgg)
	r.siteMu.Unlock()
	r.trackedCount.Store(0)
	r.totalTracked.Store(0)
	r.totalFreed.Store(0)
	r.evictedCount.Store(0)
}

// evictOldest finds and removes the single oldest-timestamp live entry.
// Returns false if the registry is empty.
func (r *Registry) evictOldest() bool {
	var oldestID uint64
	var oldestTS int64
	found := false

	for i := range r.shards {
		s := &r.shards[i]
		s.mu.Lock()
		for id, rec := range s.objects {
			if !found || rec.TimestampMS < oldestTS {
				oldestID, oldestTS = id, rec.TimestampMS
				found = true
			}
		}
		s.mu.Unlock()
	}
	if !found {
		return false
	}

	s := r.shardFor(oldestID)
	s.mu.Lock()
	rec, exists := s.objects[oldestID]
	if exists {
		delete(s.objects, oldestID)
	}
	s.mu.Unlock()
	if !exists {
		return true
	}

	r.bumpClass(rec.ClassName, -1, -rec.SizeBytes)
	r.trackedCount.Add(-1)
	r.evictedCount.Add(1)
	metrics.RegistryTrackedObjects.Set(float64(r.trackedCount.Load()))
	metrics.RegistryEvictedTotal.Inc()
	return true
}

// RunCleanup blocks, evicting the oldest entry whenever tracked_count
// exceeds max_tracked_objects, until ctx is cancelled. It is meant to run
// in its own goroutine, woken by interval.
func (r *Registry) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.performCleanup()
		}
	}
}

func (r *Registry) performCleanup() {
	for uint32(r.trackedCount.Load()) > r.maxTracked {
		if !r.evictOldest() {
			return
		}
	}
}

