package leak

import (
	"fmt"
	"sort"
	"sync/atomic"
)

var reportIDGenerator atomic.Int64

// Summary aggregates a report's candidates by severity band.
type Summary struct {
	Total         int
	High          int
	Medium        int
	Low           int
	TotalSize     int64
	TotalInstances int64
}

// Report is a single detect() result: candidates sorted by total size
// descending at construction time.
type Report struct {
	ID              int64
	TimestampMS     int64
	Candidates      []Candidate
	DetectionSeqNum int64
}

// newReport sorts candidates by TotalSize descending and assigns a
// monotonic id.
func newReport(timestampMS int64, candidates []Candidate, seq int64) Report {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TotalSize > sorted[j].TotalSize })
	return Report{
		ID:              reportIDGenerator.Add(1),
		TimestampMS:     timestampMS,
		Candidates:      sorted,
		DetectionSeqNum: seq,
	}
}

// Summary computes the high/medium/low severity breakdown.
func (r Report) Summary() Summary {
	s := Summary{Total: len(r.Candidates)}
	for _, c := range r.Candidates {
		sev := c.Severity()
		switch {
		case sev >= 70:
			s.High++
		case sev >= 40:
			s.Medium++
		default:
			s.Low++
		}
		s.TotalSize += c.TotalSize
		s.TotalInstances += c.InstanceCount
	}
	return s
}

// Top returns up to limit candidates ordered by severity descending
// (independent of the report's own total-size ordering).
func (r Report) Top(limit int) []Candidate {
	sorted := make([]Candidate, len(r.Candidates))
	copy(sorted, r.Candidates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Severity() > sorted[j].Severity() })
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// BySeverity returns every candidate with severity at least minSeverity,
// ordered by severity descending.
func (r Report) BySeverity(minSeverity int) []Candidate {
	var out []Candidate
	for _, c := range r.Candidates {
		if c.Severity() >= minSeverity {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Severity() > out[j].Severity() })
	return out
}

// Recommendations produces the human-readable lines for this report.
func (r Report) Recommendations() []string {
	if len(r.Candidates) == 0 {
		return []string{"No potential leaks detected. Continue monitoring."}
	}

	var lines []string
	hasHigh := false
	typesSeen := map[Type]bool{}
	for _, c := range r.Candidates {
		if c.Severity() >= 70 {
			hasHigh = true
		}
		typesSeen[c.Type] = true
	}
	if hasHigh {
		lines = append(lines, "URGENT: one or more high-severity leak candidates detected.")
	}

	if typesSeen[AgeBased] {
		lines = append(lines, "Age-based candidates suggest static collections, caches, or unclosed resources.")
	}
	if typesSeen[GrowthBased] {
		lines = append(lines, "Growth-based candidates suggest unbounded collections, missing cleanup, or listener accumulation.")
	}
	if typesSeen[WindowBased] {
		lines = append(lines, "Window-based candidates strongly indicate a memory leak; review recent code changes.")
	}

	top := r.Top(1)[0]
	lines = append(lines, fmt.Sprintf("Top suspect: %s (%s)", top.ClassName, top.Type))
	return lines
}
