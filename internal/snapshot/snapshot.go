// Package snapshot implements the immutable point-in-time heap view and
// its diff against another snapshot.
package snapshot

import (
	"sort"
	"sync/atomic"

	"github.com/heapguard/analyzer/internal/event"
	"github.com/heapguard/analyzer/internal/registry"
)

var idGenerator atomic.Int64

// HeapUsage is the runtime-reported heap usage at capture time.
type HeapUsage struct {
	Used      int64
	Committed int64
	Max       int64
}

// Snapshot is an immutable point-in-time view of heap totals, per-class
// aggregates, and a bounded copy of recent allocations.
type Snapshot struct {
	ID          int64
	TimestampMS int64
	Heap        HeapUsage
	ClassStats  map[string]registry.ClassStats
	Allocations map[uint64]event.Record
}

// New constructs a fully-populated Snapshot. The returned value is shared
// by read-only reference; callers must not mutate its maps.
func New(timestampMS int64, heap HeapUsage, classStats map[string]registry.ClassStats, allocations map[uint64]event.Record) Snapshot {
	return Snapshot{
		ID:          idGenerator.Add(1),
		TimestampMS: timestampMS,
		Heap:        heap,
		ClassStats:  classStats,
		Allocations: allocations,
	}
}

// ClassDiff is the per-class delta between a base and a current snapshot.
type ClassDiff struct {
	InstanceDelta int64
	SizeDelta     int64
}

// Diff is the result of comparing a base snapshot against a later current
// snapshot.
type Diff struct {
	TimeDeltaMS      int64
	HeapDelta        int64
	ClassDiffs       map[string]ClassDiff
	NewAllocations   map[uint64]event.Record
	FreedAllocations map[uint64]event.Record
}

// Compare computes the Diff of current relative to base (base is older).
func Compare(base, current Snapshot) Diff {
	classDiffs := make(map[string]ClassDiff, len(current.ClassStats))
	for class, cur := range current.ClassStats {
		b := base.ClassStats[class]
		classDiffs[class] = ClassDiff{
			InstanceDelta: cur.InstanceCount - b.InstanceCount,
			SizeDelta:     cur.TotalSize - b.TotalSize,
		}
	}
	for class, b := range base.ClassStats {
		if _, ok := current.ClassStats[class]; ok {
			continue
		}
		classDiffs[class] = ClassDiff{
			InstanceDelta: -b.InstanceCount,
			SizeDelta:     -b.TotalSize,
		}
	}

	newAllocs := make(map[uint64]event.Record)
	for id, rec := range current.Allocations {
		if _, ok := base.Allocations[id]; !ok {
			newAllocs[id] = rec
		}
	}
	freedAllocs := make(map[uint64]event.Record)
	for id, rec := range base.Allocations {
		if _, ok := current.Allocations[id]; !ok {
			freedAllocs[id] = rec
		}
	}

	return Diff{
		TimeDeltaMS:      current.TimestampMS - base.TimestampMS,
		HeapDelta:        current.Heap.Used - base.Heap.Used,
		ClassDiffs:       classDiffs,
		NewAllocations:   newAllocs,
		FreedAllocations: freedAllocs,
	}
}

// LeakCandidateClass names a class diff that grew by at least minGrowth
// instances.
type LeakCandidateClass struct {
	ClassName string
	ClassDiff
}

// PotentialLeaks filters a Diff's class deltas to those whose
// InstanceDelta is at least minGrowth, sorted descending by InstanceDelta.
func (d Diff) PotentialLeaks(minGrowth int64) []LeakCandidateClass {
	var out []LeakCandidateClass
	for class, cd := range d.ClassDiffs {
		if cd.InstanceDelta >= minGrowth {
			out = append(out, LeakCandidateClass{ClassName: class, ClassDiff: cd})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InstanceDelta > out[j].InstanceDelta })
	return out
}
