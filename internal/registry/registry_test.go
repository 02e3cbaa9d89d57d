package registry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heapguard/analyzer/internal/event"
	"github.com/heapguard/analyzer/internal/registry"
)

func rec(id uint64, class string, size, ts int64, site string) event.Record {
	return event.Record{
		ObjectID:       id,
		ClassName:      class,
		SizeBytes:      size,
		TimestampMS:    ts,
		AllocationSite: site,
	}
}

func TestBasicRoundTrip(t *testing.T) {
	r := registry.New(4, 100_000, nil)

	r.Track(rec(1, "C", 100, 1000, "C.f(C.java:10)"))
	assert.Equal(t, int64(1), r.TrackedCount())

	classes := r.ClassStatistics()
	require.Contains(t, classes, "C")
	assert.Equal(t, int64(1), classes["C"].InstanceCount)
	assert.Equal(t, int64(100), classes["C"].TotalSize)

	sites := r.SiteStatistics()
	require.Contains(t, sites, "C.f(C.java:10)")
	assert.Equal(t, int64(1), sites["C.f(C.java:10)"].AllocationCount)
	assert.Equal(t, int64(100), sites["C.f(C.java:10)"].TotalSize)

	r.Untrack(1)
	assert.Equal(t, int64(0), r.TrackedCount())
	classes = r.ClassStatistics()
	assert.NotContains(t, classes, "C")

	sites = r.SiteStatistics()
	assert.Equal(t, int64(1), sites["C.f(C.java:10)"].AllocationCount)
	assert.Equal(t, int64(100), sites["C.f(C.java:10)"].TotalSize)
}

func TestDuplicateTrackIsNoOp(t *testing.T) {
	r := registry.New(4, 100_000, nil)
	r.Track(rec(1, "C", 100, 1000, "site"))
	r.Track(rec(1, "C", 999, 2000, "other-site"))
	assert.Equal(t, int64(1), r.TrackedCount())
	classes := r.ClassStatistics()
	assert.Equal(t, int64(100), classes["C"].TotalSize)
}

func TestEvictionUnderCleanup(t *testing.T) {
	r := registry.New(4, 3, nil)
	for i, ts := range []int64{1000, 2000, 3000, 4000} {
		r.Track(rec(uint64(i+1), "C", 10, ts, "site"))
	}
	assert.Equal(t, int64(4), r.TrackedCount())

	ctx, cancel := context.WithCancel(context.Background())
	go r.RunCleanup(ctx, 10*time.Millisecond)
	defer cancel()

	require.Eventually(t, func() bool {
		return r.TrackedCount() == 3
	}, time.Second, 5*time.Millisecond)

	_, ok := r.Get(1)
	assert.False(t, ok)
	for _, id := range []uint64{2, 3, 4} {
		_, ok := r.Get(id)
		assert.True(t, ok)
	}
}

func TestTopClassesSortedByTotalSizeDesc(t *testing.T) {
	r := registry.New(4, 100_000, nil)
	r.Track(rec(1, "Small", 10, 1000, "s"))
	r.Track(rec(2, "Big", 1000, 1000, "s"))
	r.Track(rec(3, "Medium", 100, 1000, "s"))

	top := r.TopClasses(2)
	require.Len(t, top, 2)
	assert.Equal(t, "Big", top[0].ClassName)
	assert.Equal(t, "Medium", top[1].ClassName)
}

func TestGetOlderThan(t *testing.T) {
	r := registry.New(4, 100_000, nil)
	r.Track(rec(1, "Old", 10, 0, "s"))
	r.Track(rec(2, "New", 10, 9000, "s"))

	old := r.GetOlderThan(10000, 5000)
	require.Len(t, old, 1)
	assert.Equal(t, uint64(1), old[0].ObjectID)
}

func TestClearEmptiesEverything(t *testing.T) {
	r := registry.New(4, 100_000, nil)
	r.Track(rec(1, "C", 10, 1000, "s"))
	r.Clear()
	assert.Equal(t, int64(0), r.TrackedCount())
	assert.Empty(t, r.ClassStatistics())
	assert.Empty(t, r.SiteStatistics())
}
