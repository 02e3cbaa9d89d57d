package snapshot_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heapguard/analyzer/internal/event"
	"github.com/heapguard/analyzer/internal/registry"
	"github.com/heapguard/analyzer/internal/snapshot"
)

func TestSnapshotIDsIncreaseMonotonically(t *testing.T) {
	s1 := snapshot.New(1000, snapshot.HeapUsage{}, nil, nil)
	s2 := snapshot.New(2000, snapshot.HeapUsage{}, nil, nil)
	assert.Less(t, s1.ID, s2.ID)
}

func TestSnapshotDiffScenario(t *testing.T) {
	base := snapshot.New(1000, snapshot.HeapUsage{Used: 1000}, map[string]registry.ClassStats{}, map[uint64]event.Record{})

	classStats := map[string]registry.ClassStats{
		"Leaky": {InstanceCount: 50, TotalSize: 50 * 1024},
	}
	allocs := make(map[uint64]event.Record, 50)
	for i := uint64(1); i <= 50; i++ {
		allocs[i] = event.Record{ObjectID: i, ClassName: "Leaky", SizeBytes: 1024}
	}
	current := snapshot.New(2000, snapshot.HeapUsage{Used: 1000 + 50*1024}, classStats, allocs)

	diff := snapshot.Compare(base, current)
	require.Contains(t, diff.ClassDiffs, "Leaky")
	assert.Equal(t, int64(50), diff.ClassDiffs["Leaky"].InstanceDelta)
	assert.Equal(t, int64(51200), diff.ClassDiffs["Leaky"].SizeDelta)
	assert.Len(t, diff.NewAllocations, 50)
	assert.Len(t, diff.FreedAllocations, 0)
	assert.Equal(t, int64(1000), diff.TimeDeltaMS)
}

func TestSnapshotDiffFreedAllocations(t *testing.T) {
	base := snapshot.New(1000, snapshot.HeapUsage{}, map[string]registry.ClassStats{}, map[uint64]event.Record{
		1: {ObjectID: 1, ClassName: "C"},
	})
	current := snapshot.New(2000, snapshot.HeapUsage{}, map[string]registry.ClassStats{}, map[uint64]event.Record{})

	diff := snapshot.Compare(base, current)
	assert.Len(t, diff.FreedAllocations, 1)
	assert.Len(t, diff.NewAllocations, 0)
}

func TestPotentialLeaksFiltersAndSorts(t *testing.T) {
	diff := snapshot.Diff{
		ClassDiffs: map[string]snapshot.ClassDiff{
			"A": {InstanceDelta: 5},
			"B": {InstanceDelta: 50},
			"C": {InstanceDelta: 1},
		},
	}
	leaks := diff.PotentialLeaks(5)
	require.Len(t, leaks, 2)
	assert.Equal(t, "B", leaks[0].ClassName)
	assert.Equal(t, "A", leaks[1].ClassName)
}

func TestToProfileOneSamplePerClass(t *testing.T) {
	s := snapshot.New(1000, snapshot.HeapUsage{}, map[string]registry.ClassStats{
		"A": {InstanceCount: 3, TotalSize: 300},
		"B": {InstanceCount: 7, TotalSize: 700},
	}, nil)

	p := s.ToProfile()
	require.Len(t, p.Sample, 2)
	total := int64(0)
	for _, sample := range p.Sample {
		total += sample.Value[0]
	}
	assert.Equal(t, int64(10), total)
}
