package counter_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/heapguard/analyzer/internal/counter"
)

func TestCounterBasic(t *testing.T) {
	c := counter.NewCounter()
	c.Add(10)
	c.Add(20)
	c.Add(30)

	assert.Equal(t, int64(3), c.Count())
	assert.Equal(t, int64(60), c.Sum())
	assert.Equal(t, int64(10), c.Min())
	assert.Equal(t, int64(30), c.Max())
	assert.Equal(t, int64(10), c.First())
	assert.Equal(t, int64(30), c.Last())
	assert.InDelta(t, 20.0, c.Avg(), 1e-9)
}

func TestCounterStdDev(t *testing.T) {
	c := counter.NewCounter()
	for _, v := range []int64{2, 4, 4, 4, 5, 5, 7, 9} {
		c.Add(v)
	}
	assert.InDelta(t, 2.0, c.StdDev(), 1e-9)
}

func TestCounterResetIsZero(t *testing.T) {
	c := counter.NewCounter()
	c.Add(5)
	c.Reset()
	assert.Equal(t, int64(0), c.Count())
	assert.Equal(t, float64(0), c.Avg())
	assert.False(t, math.IsNaN(c.StdDev()))
}

func TestCounterMapSortedBySum(t *testing.T) {
	m := counter.NewMap()
	m.Add("a", 100)
	m.Add("b", 500)
	m.Add("c", 10)

	top := m.SortedBySum(2)
	assert.Len(t, top, 2)
	assert.Equal(t, "b", top[0].Key)
	assert.Equal(t, "a", top[1].Key)
}

func TestCounterMapCreateIfAbsent(t *testing.T) {
	m := counter.NewMap()
	c1 := m.Get("x")
	c1.Increment()
	c2 := m.Get("x")
	assert.Equal(t, int64(1), c2.Count())
}
