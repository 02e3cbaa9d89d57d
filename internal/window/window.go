// Package window implements the sliding-window analyzer: a bounded,
// per-class ring of recent (instance_count, total_size) samples, and the
// growth/slope computations the window-based leak strategy depends on.
package window

import "sync"

// Sample is one (instance_count, total_size) observation for a class at a
// snapshot.
type Sample struct {
	InstanceCount int64
	TotalSize     int64
}

// Stats is the result of analyzing one class's ring.
type Stats struct {
	GrowthCount        int
	TotalGrowth        int64
	MaxInstanceCount   int64
	MinInstanceCount   int64
	Slope              float64
	IsConsistentGrowth bool
	SampleCount        int
}

type ring struct {
	samples []Sample // index 0 = newest
}

func (r *ring) push(s Sample, capacity int) {
	r.samples = append([]Sample{s}, r.samples...)
	if len(r.samples) > capacity {
		r.samples = r.samples[:capacity]
	}
}

// Analyzer owns the bounded window history and per-class rings.
type Analyzer struct {
	mu         sync.Mutex
	windowSize int
	rings      map[string]*ring
}

// New builds an Analyzer with the given window size (minimum 1).
func New(windowSize int) *Analyzer {
	if windowSize < 1 {
		windowSize = 1
	}
	return &Analyzer{windowSize: windowSize, rings: make(map[string]*ring)}
}

// AddSnapshot folds one snapshot's class stats into every class's ring,
// prepending the newest sample and dropping anything beyond window size.
func (a *Analyzer) AddSnapshot(classStats map[string]Sample) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for class, sample := range classStats {
		r, ok := a.rings[class]
		if !ok {
			r = &ring{}
			a.rings[class] = r
		}
		r.push(sample, a.windowSize)
	}
}

// Analyze computes Stats for every class with at least 3 samples.
// currentClassStats is accepted for interface symmetry with the source
// design but the ring itself (already fed via AddSnapshot) is
// authoritative for the window's own samples.
func (a *Analyzer) Analyze(_ map[string]Sample) map[string]Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[string]Stats)
	for class, r := range a.rings {
		if len(r.samples) < 3 {
			continue
		}
		out[class] = computeStats(r.samples)
	}
	return out
}

func computeStats(samples []Sample) Stats {
	n := len(samples)

	growthCount := 0
	var totalGrowth int64
	maxCount := samples[0].InstanceCount
	minCount := samples[0].InstanceCount
	for i, s := range samples {
		if s.InstanceCount > maxCount {
			maxCount = s.InstanceCount
		}
		if s.InstanceCount < minCount {
			minCount = s.InstanceCount
		}
		if i+1 < n {
			delta := s.InstanceCount - samples[i+1].InstanceCount
			if delta > 0 {
				growthCount++
				totalGrowth += delta
			}
		}
	}

	slope := calculateSlope(samples)

	threshold := maxCount / 4
	if threshold < 1 {
		threshold = 1
	}
	consistent := totalGrowth >= threshold

	return Stats{
		GrowthCount:        growthCount,
		TotalGrowth:        totalGrowth,
		MaxInstanceCount:   maxCount,
		MinInstanceCount:   minCount,
		Slope:              slope,
		IsConsistentGrowth: consistent,
		SampleCount:        n,
	}
}

// calculateSlope computes the OLS slope of instance_count against sample
// index, where index 0 is the newest sample, and returns it negated so
// that growth over time is positive. Returns 0 when the denominator
// n*sumX2 - sumX*sumX is below 1e-4.
func calculateSlope(samples []Sample) float64 {
	n := float64(len(samples))
	var sumX, sumY, sumXY, sumX2 float64
	for i, s := range samples {
		x := float64(i)
		y := float64(s.InstanceCount)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}
	denominator := n*sumX2 - sumX*sumX
	if denominator < 0 {
		denominator = -denominator
	}
	if denominator < 1e-4 {
		return 0
	}
	// Sample index 0 is the newest sample, so the raw OLS slope against
	// index measures change per step INTO the past. Negate it so a
	// growing-over-time class (higher counts at lower, newer indices)
	// reports a positive slope, matching forward-time growth direction.
	return -(n*sumXY - sumX*sumY) / (n*sumX2 - sumX*sumX)
}
