package analyzer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heapguard/analyzer/internal/analyzer"
	"github.com/heapguard/analyzer/internal/config"
	"github.com/heapguard/analyzer/internal/event"
	"github.com/heapguard/analyzer/internal/leak"
	"github.com/heapguard/analyzer/internal/monitor"
)

func rec(id uint64, class string, size, tsMS int64) event.Record {
	return event.Record{ObjectID: id, ClassName: class, SizeBytes: size, TimestampMS: tsMS, AllocationSite: "unknown"}
}

func newTestAnalyzer(t *testing.T) *analyzer.Analyzer {
	t.Helper()
	cfg := config.New(
		config.WithMaxTrackedObjects(1000),
		config.WithCleanupInterval(10*time.Millisecond),
		config.WithShardCount(4),
		config.WithWindowSize(5),
	)
	return analyzer.New(cfg, monitor.NewRuntime(), nil)
}

func TestRecordAllocationUpdatesRegistryAndCounters(t *testing.T) {
	a := newTestAnalyzer(t)

	a.RecordAllocation(rec(1, "Widget", 100, 1000))
	a.RecordAllocation(rec(2, "Widget", 200, 1000))

	top := a.TopClasses(10)
	require.Len(t, top, 1)
	assert.Equal(t, "Widget", top[0].ClassName)
	assert.Equal(t, int64(2), top[0].InstanceCount)
	assert.Equal(t, int64(300), top[0].TotalSize)

	stats := a.AllocationStats()
	assert.Equal(t, int64(2), stats.Count)
	assert.Equal(t, int64(300), stats.TotalBytes)
}

func TestTakeSnapshotAndCompare(t *testing.T) {
	a := newTestAnalyzer(t)

	a.RecordAllocation(rec(1, "Leaky", 1024, 1000))
	base := a.TakeSnapshot()

	a.RecordAllocation(rec(2, "Leaky", 1024, 2000))
	a.RecordAllocation(rec(3, "Leaky", 1024, 2000))
	current := a.TakeSnapshot()

	diff, ok := a.CompareSnapshots(base.ID, current.ID)
	require.True(t, ok)
	assert.Equal(t, int64(2), diff.ClassDiffs["Leaky"].InstanceDelta)

	leaks := diff.PotentialLeaks(1)
	require.Len(t, leaks, 1)
	assert.Equal(t, "Leaky", leaks[0].ClassName)
}

func TestCompareSnapshotsUnknownIDFails(t *testing.T) {
	a := newTestAnalyzer(t)
	_, ok := a.CompareSnapshots(999, 1000)
	assert.False(t, ok)
}

func TestSnapshotHistoryEvictsOldest(t *testing.T) {
	cfg := config.New(config.WithSnapshotHistoryCap(2), config.WithShardCount(2))
	a := analyzer.New(cfg, monitor.NewRuntime(), nil)

	first := a.TakeSnapshot()
	a.TakeSnapshot()
	a.TakeSnapshot()

	snaps := a.Snapshots()
	require.Len(t, snaps, 2)
	for _, s := range snaps {
		assert.NotEqual(t, first.ID, s.ID)
	}
}

func TestStartStopAnalysisIsIdempotentAndTogglesFlag(t *testing.T) {
	a := newTestAnalyzer(t)
	assert.False(t, a.IsAnalyzing())

	a.StartAnalysis()
	a.StartAnalysis()
	assert.True(t, a.IsAnalyzing())

	a.StopAnalysis()
	a.StopAnalysis()
	assert.False(t, a.IsAnalyzing())
}

func TestRecordAllocationWorksWhileNotAnalyzing(t *testing.T) {
	a := newTestAnalyzer(t)
	require.False(t, a.IsAnalyzing())

	a.RecordAllocation(rec(1, "Widget", 64, 1000))
	assert.Len(t, a.RecentAllocations(10), 1)
}

func TestClearEmptiesEverything(t *testing.T) {
	a := newTestAnalyzer(t)
	a.RecordAllocation(rec(1, "Widget", 64, 1000))
	a.TakeSnapshot()

	a.Clear()

	assert.Empty(t, a.TopClasses(10))
	assert.Empty(t, a.RecentAllocations(10))
	assert.Empty(t, a.Snapshots())
}

func TestLeakListenerFiresViaDetect(t *testing.T) {
	cfg := config.New(
		config.WithShardCount(4),
		config.WithGrowthThreshold(10),
		config.WithAgeThreshold(time.Millisecond),
	)
	a := analyzer.New(cfg, monitor.NewRuntime(), nil)
	a.StartAnalysis()
	defer a.StopAnalysis()

	for i := 0; i < 20; i++ {
		a.RecordAllocation(rec(uint64(i+1), "Leaky", 1024, -100_000))
	}

	fired := make(chan leak.Report, 1)
	a.AddLeakListener(func(report leak.Report) {
		select {
		case fired <- report:
		default:
		}
	})

	report, ok := a.Detect()
	require.True(t, ok)
	require.NotEmpty(t, report.Candidates)

	select {
	case got := <-fired:
		assert.NotEmpty(t, got.Candidates)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("listener did not fire")
	}
}

func TestHeapPoolUsagesReturnsRuntimePools(t *testing.T) {
	a := newTestAnalyzer(t)
	a.StartAnalysis()
	defer a.StopAnalysis()

	require.Eventually(t, func() bool {
		return len(a.HeapPoolUsages()) > 0
	}, time.Second, 10*time.Millisecond)

	pools := a.HeapPoolUsages()
	assert.Contains(t, pools, "heap")
	assert.NotContains(t, pools, "")
}

func TestSingletonRegisterOnce(t *testing.T) {
	analyzer.Reset()
	defer analyzer.Reset()

	a1 := newTestAnalyzer(t)
	a2 := newTestAnalyzer(t)

	assert.True(t, analyzer.Register(a1))
	assert.False(t, analyzer.Register(a2))

	got, ok := analyzer.Current()
	require.True(t, ok)
	assert.Same(t, a1, got)
}
