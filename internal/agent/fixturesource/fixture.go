// Package fixturesource replays a JSON-described event stream through the
// Native Agent Contract, for deterministic unit and integration tests.
// Fixture documents are validated against a JSON Schema before any event
// reaches the queue, so a malformed fixture fails fast with a descriptive
// error instead of silently producing wrong aggregates.
package fixturesource

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/heapguard/analyzer/internal/agent"
	"github.com/heapguard/analyzer/internal/apperr"
	"github.com/heapguard/analyzer/internal/event"
)

type rawFrame struct {
	Class  string `json:"class"`
	Method string `json:"method"`
	File   string `json:"file"`
	Line   int    `json:"line"`
}

type rawEvent struct {
	Kind        string     `json:"kind"`
	Tag         uint64     `json:"tag"`
	Size        int64      `json:"size"`
	TimestampMS int64      `json:"timestamp_ms"`
	ClassName   string     `json:"class_name"`
	ThreadID    uint64     `json:"thread_id"`
	ThreadName  string     `json:"thread_name"`
	Frames      []rawFrame `json:"frames"`
}

type document struct {
	Events []rawEvent `json:"events"`
}

// Source replays a fixture document's events in order, at ReplayInterval
// spacing.
type Source struct {
	events         []rawEvent
	replayInterval time.Duration
}

// DefaultReplayInterval is used when the caller does not override the
// pacing between replayed events.
const DefaultReplayInterval = time.Millisecond

// Load parses and schema-validates raw, returning a Source ready to Run.
func Load(raw []byte, replayInterval time.Duration) (*Source, error) {
	schemaLoader := gojsonschema.NewStringLoader(eventSchema)
	docLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return nil, fmt.Errorf("validating fixture document: %w", err)
	}
	if !result.Valid() {
		msg := "fixture document invalid"
		if errs := result.Errors(); len(errs) > 0 {
			msg = errs[0].String()
		}
		return nil, fmt.Errorf("%s: %w", msg, apperr.ErrInvalidFixture)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding fixture document: %w", err)
	}

	if replayInterval <= 0 {
		replayInterval = DefaultReplayInterval
	}
	return &Source{events: doc.Events, replayInterval: replayInterval}, nil
}

func (s *Source) Capabilities() agent.Capabilities {
	return agent.FullCapabilities()
}

// Run replays every event in document order, pacing by replayInterval,
// until ctx is cancelled or the fixture is exhausted.
func (s *Source) Run(ctx context.Context, sink agent.Sink) error {
	ticker := time.NewTicker(s.replayInterval)
	defer ticker.Stop()

	for _, raw := range s.events {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			sink.Push(toEvent(raw))
		}
	}
	return nil
}

func toEvent(raw rawEvent) event.Event {
	frames := make([]event.Frame, len(raw.Frames))
	for i, f := range raw.Frames {
		frames[i] = event.Frame{Class: f.Class, Method: f.Method, File: f.File, Line: f.Line}
	}

	var kind event.Kind
	switch raw.Kind {
	case "alloc":
		kind = event.KindAlloc
	case "free":
		kind = event.KindFree
	case "gc_start":
		kind = event.KindGCStart
	case "gc_finish":
		kind = event.KindGCFinish
	}

	return event.Event{
		Kind:        kind,
		Tag:         raw.Tag,
		Size:        raw.Size,
		TimestampMS: raw.TimestampMS,
		ClassName:   raw.ClassName,
		ThreadID:    raw.ThreadID,
		ThreadName:  raw.ThreadName,
		Frames:      frames,
	}
}
