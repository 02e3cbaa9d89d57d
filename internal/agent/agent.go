// Package agent defines the Native Agent Contract: the capability set,
// event schema, and shutdown behavior any event source — native or
// alternative — must satisfy to feed the analyzer uniformly.
package agent

import (
	"context"

	"github.com/heapguard/analyzer/internal/event"
)

// Capabilities names what a source requests/guarantees on registration.
type Capabilities struct {
	TagObjects        bool
	AllocationSamples bool
	ObjectFree        bool
	GCEvents          bool
	MethodNames       bool
	SourceFileNames   bool
	LineNumbers       bool
}

// FullCapabilities is the capability set a complete native agent
// requests.
func FullCapabilities() Capabilities {
	return Capabilities{
		TagObjects:        true,
		AllocationSamples: true,
		ObjectFree:        true,
		GCEvents:          true,
		MethodNames:       true,
		SourceFileNames:   true,
		LineNumbers:       true,
	}
}

// Sink is the destination for events produced by a Source: the
// analyzer's intake queue, or anything shaped like it.
type Sink interface {
	Push(ev event.Event) bool
}

// Source is anything that can drive the Native Agent Contract: a real
// native agent's event stream, or an alternative (synthetic, fixture)
// implementation that calls into a Sink the same way.
type Source interface {
	// Capabilities reports what this source supports.
	Capabilities() Capabilities
	// Run drives events into sink until ctx is cancelled or the source
	// reaches end-of-stream, then returns.
	Run(ctx context.Context, sink Sink) error
}
