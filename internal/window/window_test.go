package window_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heapguard/analyzer/internal/window"
)

func TestLessThanThreeSamplesEmitsNothing(t *testing.T) {
	a := window.New(5)
	a.AddSnapshot(map[string]window.Sample{"C": {InstanceCount: 1, TotalSize: 10}})
	a.AddSnapshot(map[string]window.Sample{"C": {InstanceCount: 2, TotalSize: 20}})

	stats := a.Analyze(nil)
	assert.NotContains(t, stats, "C")
}

func TestWindowBasedGrowthScenario(t *testing.T) {
	a := window.New(5)
	counts := []int64{10, 20, 30, 40, 50} // oldest to newest
	for _, c := range counts {
		a.AddSnapshot(map[string]window.Sample{"Grow": {InstanceCount: c, TotalSize: c * 1000}})
	}

	stats := a.Analyze(nil)
	require.Contains(t, stats, "Grow")
	s := stats["Grow"]

	assert.Equal(t, 4, s.GrowthCount)
	assert.True(t, s.IsConsistentGrowth)
	assert.Greater(t, s.Slope, 0.0)
	assert.Equal(t, int64(50), s.MaxInstanceCount)
	assert.Equal(t, int64(10), s.MinInstanceCount)
}

func TestSlopeZeroWhenSamplesIdentical(t *testing.T) {
	a := window.New(5)
	for i := 0; i < 5; i++ {
		a.AddSnapshot(map[string]window.Sample{"Flat": {InstanceCount: 7, TotalSize: 700}})
	}
	stats := a.Analyze(nil)
	require.Contains(t, stats, "Flat")
	assert.Equal(t, 0.0, stats["Flat"].Slope)
	assert.False(t, stats["Flat"].IsConsistentGrowth)
}

func TestRingBoundedAtWindowSize(t *testing.T) {
	a := window.New(3)
	for i := int64(1); i <= 10; i++ {
		a.AddSnapshot(map[string]window.Sample{"C": {InstanceCount: i, TotalSize: i}})
	}
	stats := a.Analyze(nil)
	require.Contains(t, stats, "C")
	assert.Equal(t, 3, stats["C"].SampleCount)
}
