package agent

import (
	"sync/atomic"

	"github.com/heapguard/analyzer/internal/event"
)

// SamplingSink wraps a Sink and admits only every Nth Alloc event,
// applying the sampling policy before the event reaches the shared
// queue. Free and GC events always pass through unsampled: dropping a
// Free for an object whose Alloc was itself sampled out is harmless (the
// registry's Untrack is a no-op on an untracked id), but Free/GC events
// have no sampling concept of their own and must not be thinned.
type SamplingSink struct {
	sink     Sink
	interval uint32
	counter  atomic.Uint64
}

// NewSamplingSink wraps sink with a sampling interval of n: at most 1 in
// n Alloc events is admitted. n == 0 or n == 1 disables sampling (every
// event is admitted).
func NewSamplingSink(sink Sink, n uint32) *SamplingSink {
	return &SamplingSink{sink: sink, interval: n}
}

// Push applies the sampling decision to Alloc events and forwards
// everything else unconditionally. A sampled-out Alloc reports true
// (admitted-by-policy, not by the queue) so it is never counted against
// the queue's dropped-events counter, which tracks queue overflow, not
// sampling decisions.
func (s *SamplingSink) Push(ev event.Event) bool {
	if ev.Kind != event.KindAlloc || s.interval <= 1 {
		return s.sink.Push(ev)
	}
	n := s.counter.Add(1)
	if n%uint64(s.interval) != 0 {
		return true
	}
	return s.sink.Push(ev)
}
