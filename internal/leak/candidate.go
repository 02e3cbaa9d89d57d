// Package leak implements the multi-strategy leak detector: age-based,
// growth-based, and window-based strategies over the object registry and
// sliding-window analyzer, and the severity/recommendation model of the
// resulting leak report.
package leak

import (
	"fmt"

	"github.com/heapguard/analyzer/internal/event"
)

// Type names the detection strategy that produced a Candidate.
type Type int

const (
	AgeBased Type = iota
	GrowthBased
	WindowBased
	ReferenceBased
)

func (t Type) String() string {
	switch t {
	case AgeBased:
		return "AGE_BASED"
	case GrowthBased:
		return "GROWTH_BASED"
	case WindowBased:
		return "WINDOW_BASED"
	case ReferenceBased:
		return "REFERENCE_BASED"
	default:
		return "UNKNOWN"
	}
}

// Candidate is a single suspected leak, one class, produced by one
// strategy.
type Candidate struct {
	ClassName      string
	InstanceCount  int64
	TotalSize      int64
	Type           Type
	AllocationSite string
	SampleRecords  []event.Record
	Description    string
	DetectedAtMS   int64
}

const maxSampleRecords = 10

func capSamples(records []event.Record) []event.Record {
	if len(records) <= maxSampleRecords {
		return records
	}
	return records[:maxSampleRecords]
}

// Severity derives the candidate's severity in [0,100] from a size
// bucket, a count bucket, and a type bucket.
func (c Candidate) Severity() int {
	score := sizeBucket(c.TotalSize) + countBucket(c.InstanceCount) + typeBucket(c.Type)
	if score > 100 {
		score = 100
	}
	return score
}

func sizeBucket(totalSize int64) int {
	const mb = 1024 * 1024
	switch {
	case totalSize > 100*mb:
		return 40
	case totalSize > 10*mb:
		return 30
	case totalSize > mb:
		return 20
	default:
		return 10
	}
}

func countBucket(count int64) int {
	switch {
	case count > 10_000:
		return 40
	case count > 1_000:
		return 30
	case count > 100:
		return 20
	default:
		return 10
	}
}

func typeBucket(t Type) int {
	switch t {
	case WindowBased:
		return 20
	case GrowthBased:
		return 15
	case AgeBased:
		return 10
	default:
		return 0
	}
}

func ageDescription(count int, ageSeconds int64) string {
	return fmt.Sprintf("Found %d objects older than %d seconds", count, ageSeconds)
}

func windowDescription(growthCount int, totalGrowth int64) string {
	return fmt.Sprintf("Consistent growth over %d windows (total growth: %d instances)", growthCount, totalGrowth)
}
