package event_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heapguard/analyzer/internal/event"
)

func TestQueueFIFO(t *testing.T) {
	q := event.NewQueue(8)
	for i := 0; i < 5; i++ {
		ok := q.Push(event.Event{Kind: event.KindAlloc, Tag: uint64(i)})
		require.True(t, ok)
	}
	for i := 0; i < 5; i++ {
		ev, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, uint64(i), ev.Tag)
	}
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestQueueDropsOnFull(t *testing.T) {
	q := event.NewQueue(4) // rounds to 4
	for i := 0; i < 4; i++ {
		require.True(t, q.Push(event.Event{Tag: uint64(i)}))
	}
	ok := q.Push(event.Event{Tag: 99})
	assert.False(t, ok)
	assert.Equal(t, uint64(1), q.Dropped())

	ev, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, uint64(0), ev.Tag)
}

func TestQueueCapacityRoundsToPowerOfTwo(t *testing.T) {
	q := event.NewQueue(10)
	assert.Equal(t, 16, q.Capacity())
}

func TestQueueLen(t *testing.T) {
	q := event.NewQueue(8)
	assert.Equal(t, 0, q.Len())
	q.Push(event.Event{Tag: 1})
	q.Push(event.Event{Tag: 2})
	assert.Equal(t, 2, q.Len())
	q.Pop()
	assert.Equal(t, 1, q.Len())
}
