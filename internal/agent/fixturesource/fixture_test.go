package fixturesource_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heapguard/analyzer/internal/agent/fixturesource"
	"github.com/heapguard/analyzer/internal/event"
)

type recordingSink struct {
	events []event.Event
}

func (r *recordingSink) Push(ev event.Event) bool {
	r.events = append(r.events, ev)
	return true
}

const validFixture = `{
  "events": [
    {"kind": "alloc", "tag": 1, "size": 100, "timestamp_ms": 1000, "class_name": "C"},
    {"kind": "free", "tag": 1, "timestamp_ms": 1100}
  ]
}`

func TestLoadValidFixture(t *testing.T) {
	src, err := fixturesource.Load([]byte(validFixture), time.Millisecond)
	require.NoError(t, err)

	sink := &recordingSink{}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err = src.Run(ctx, sink)
	require.NoError(t, err)

	require.Len(t, sink.events, 2)
	assert.Equal(t, event.KindAlloc, sink.events[0].Kind)
	assert.Equal(t, event.KindFree, sink.events[1].Kind)
}

func TestLoadRejectsMalformedFixture(t *testing.T) {
	_, err := fixturesource.Load([]byte(`{"events": [{"kind": "not-a-kind", "timestamp_ms": 1}]}`), time.Millisecond)
	assert.Error(t, err)
}

func TestLoadRejectsMissingRequiredField(t *testing.T) {
	_, err := fixturesource.Load([]byte(`{"events": [{"kind": "alloc"}]}`), time.Millisecond)
	assert.Error(t, err)
}
