// Package syntheticsource stands in for a native agent when one is
// unavailable: it generates a controlled allocation/free/GC workload and
// drives it through the Native Agent Contract, directly analogous to a
// bytecode-instrumentation adapter that calls into the ingest path from
// application code that knows it is allocating.
package syntheticsource

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/heapguard/analyzer/internal/agent"
	"github.com/heapguard/analyzer/internal/event"
)

// ClassShape describes one synthetic allocation class: its name, typical
// object size, and how many live instances it should settle around
// (burstSize instances allocated before the corresponding frees begin).
type ClassShape struct {
	ClassName string
	SizeBytes int64
	BurstSize int
	// LeakRate, in [0,1], is the fraction of a burst's objects that are
	// never freed — 0 simulates a well-behaved class, close to 1
	// simulates a leaking one.
	LeakRate float64
}

// Config configures the workload.
type Config struct {
	Shapes       []ClassShape
	TickInterval time.Duration
	ThreadID     uint64
	ThreadName   string
}

// DefaultConfig returns a small mixed workload: one well-behaved class and
// one that leaks roughly 30% of what it allocates.
func DefaultConfig() Config {
	return Config{
		Shapes: []ClassShape{
			{ClassName: "com.example.Widget", SizeBytes: 256, BurstSize: 50, LeakRate: 0},
			{ClassName: "com.example.CacheEntry", SizeBytes: 1024, BurstSize: 50, LeakRate: 0.3},
		},
		TickInterval: 10 * time.Millisecond,
		ThreadID:     1,
		ThreadName:   "synthetic-loadgen",
	}
}

// Source is the synthetic implementation of agent.Source.
type Source struct {
	cfg Config
	tag atomic.Uint64
}

// New builds a Source from cfg.
func New(cfg Config) *Source {
	return &Source{cfg: cfg}
}

func (s *Source) Capabilities() agent.Capabilities {
	return agent.FullCapabilities()
}

// Run drives the workload until ctx is cancelled.
func (s *Source) Run(ctx context.Context, sink agent.Sink) error {
	for _, shape := range s.cfg.Shapes {
		go s.driveShape(ctx, sink, shape)
	}
	<-ctx.Done()
	return nil
}

func (s *Source) driveShape(ctx context.Context, sink agent.Sink, shape ClassShape) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	var live []uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tag := s.tag.Add(1)
			sink.Push(event.Event{
				Kind:        event.KindAlloc,
				Tag:         tag,
				Size:        shape.SizeBytes,
				TimestampMS: nowMS(),
				ClassName:   shape.ClassName,
				ThreadID:    s.cfg.ThreadID,
				ThreadName:  s.cfg.ThreadName,
				Frames: []event.Frame{
					{Class: shape.ClassName, Method: "<init>", File: classFile(shape.ClassName), Line: 1},
				},
			})
			live = append(live, tag)

			if len(live) >= shape.BurstSize {
				freeCount := int(float64(len(live)) * (1 - shape.LeakRate))
				for i := 0; i < freeCount; i++ {
					sink.Push(event.Event{Kind: event.KindFree, Tag: live[i], TimestampMS: nowMS(), ThreadID: s.cfg.ThreadID})
				}
				// The rest of the burst is dropped from live and never freed.
				live = live[:0]
			}
		}
	}
}

func classFile(className string) string {
	return className + ".java"
}

func nowMS() int64 {
	return time.Now().UnixMilli()
}
