package leak

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/heapguard/analyzer/internal/event"
	"github.com/heapguard/analyzer/internal/metrics"
	"github.com/heapguard/analyzer/internal/registry"
	"github.com/heapguard/analyzer/internal/window"
)

// RegistrySource is the subset of the Object Registry the detector reads.
type RegistrySource interface {
	ClassStatistics() map[string]registry.ClassStats
	GetByClass(class string) []event.Record
	GetOlderThan(nowMS, ageMS int64) []event.Record
}

// WindowSource is the subset of the Sliding-Window Analyzer the detector
// reads.
type WindowSource interface {
	Analyze(currentClassStats map[string]window.Sample) map[string]window.Stats
}

// Thresholds holds the detector's tunable defaults.
type Thresholds struct {
	AgeThresholdMS  int64
	GrowthThreshold int64
}

// DefaultThresholds matches the documented defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{AgeThresholdMS: 60_000, GrowthThreshold: 100}
}

// Listener is notified synchronously after a non-empty report is
// appended to history. Panics inside a Listener are recovered and
// discarded (fire-and-swallow).
type Listener func(Report)

// Detector runs the three strategies and maintains report history.
type Detector struct {
	registry RegistrySource
	window   WindowSource
	thr      Thresholds
	logger   *zap.Logger

	mu             sync.Mutex
	detecting      bool
	detectionCount int64
	history        []Report
	historyCap     int
	listeners      []Listener
	inDetect       atomic.Bool
	lastReport     Report
	hasLastReport  bool
}

// New builds a Detector reading from the given registry and window
// analyzer.
func New(reg RegistrySource, win WindowSource, thr Thresholds, historyCap int, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if historyCap <= 0 {
		historyCap = 50
	}
	return &Detector{registry: reg, window: win, thr: thr, historyCap: historyCap, logger: logger}
}

// StartDetecting flips the detecting flag on.
func (d *Detector) StartDetecting() {
	d.mu.Lock()
	d.detecting = true
	d.mu.Unlock()
}

// StopDetecting flips the detecting flag off.
func (d *Detector) StopDetecting() {
	d.mu.Lock()
	d.detecting = false
	d.mu.Unlock()
}

// IsDetecting reports the current flag value.
func (d *Detector) IsDetecting() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.detecting
}

// AddListener registers a callback invoked after every non-empty report.
func (d *Detector) AddListener(l Listener) {
	d.mu.Lock()
	d.listeners = append(d.listeners, l)
	d.mu.Unlock()
}

// Detect runs all three strategies and returns the resulting report. It
// is a no-op returning the zero Report and false when not detecting. A
// re-entrant call made from within a listener callback returns the last
// report unchanged rather than recursing.
func (d *Detector) Detect(nowMS int64) (Report, bool) {
	d.mu.Lock()
	if !d.detecting {
		d.mu.Unlock()
		return Report{}, false
	}
	d.mu.Unlock()

	if !d.inDetect.CompareAndSwap(false, true) {
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.lastReport, d.hasLastReport
	}
	defer d.inDetect.Store(false)

	var candidates []Candidate
	candidates = append(candidates, d.detectByAge(nowMS)...)
	candidates = append(candidates, d.detectByGrowth()...)
	candidates = append(candidates, d.detectByWindow()...)

	d.mu.Lock()
	seq := d.detectionCount
	if len(candidates) > 0 {
		d.detectionCount++
		seq = d.detectionCount
	}
	d.mu.Unlock()

	report := newReport(nowMS, candidates, seq)
	d.logger.Debug("leak detection pass complete",
		zap.Int("candidates", len(report.Candidates)),
		zap.Int64("sequence", seq))

	if len(report.Candidates) > 0 {
		d.mu.Lock()
		d.history = append(d.history, report)
		if len(d.history) > d.historyCap {
			d.history = d.history[len(d.history)-d.historyCap:]
		}
		d.lastReport = report
		d.hasLastReport = true
		listeners := append([]Listener(nil), d.listeners...)
		d.mu.Unlock()

		metrics.DetectionRunsTotal.Inc()
		for _, c := range report.Candidates {
			metrics.ReportCandidatesByType.WithLabelValues(c.Type.String()).Inc()
			metrics.ReportCandidatesBySeverity.WithLabelValues(metrics.SeverityBand(c.Severity())).Inc()
		}

		for _, l := range listeners {
			notify(l, report)
		}
	}

	return report, true
}

func notify(l Listener, report Report) {
	defer func() { _ = recover() }()
	l(report)
}

func (d *Detector) detectByAge(nowMS int64) []Candidate {
	old := d.registry.GetOlderThan(nowMS, d.thr.AgeThresholdMS)
	if len(old) == 0 {
		return nil
	}

	byClass := make(map[string][]event.Record)
	for _, rec := range old {
		byClass[rec.ClassName] = append(byClass[rec.ClassName], rec)
	}

	var out []Candidate
	for class, records := range byClass {
		if int64(len(records)) < d.thr.GrowthThreshold {
			continue
		}
		var totalSize int64
		for _, r := range records {
			totalSize += r.SizeBytes
		}
		out = append(out, Candidate{
			ClassName:      class,
			InstanceCount:  int64(len(records)),
			TotalSize:      totalSize,
			Type:           AgeBased,
			AllocationSite: records[0].AllocationSite,
			SampleRecords:  capSamples(records),
			Description:    ageDescription(len(records), d.thr.AgeThresholdMS/1000),
			DetectedAtMS:   nowMS,
		})
	}
	return out
}

func (d *Detector) detectByGrowth() []Candidate {
	stats := d.registry.ClassStatistics()
	var out []Candidate
	for class, s := range stats {
		if s.InstanceCount < 2*d.thr.GrowthThreshold {
			continue
		}
		records := d.registry.GetByClass(class)
		site := mostFrequentSite(records)
		out = append(out, Candidate{
			ClassName:      class,
			InstanceCount:  s.InstanceCount,
			TotalSize:      s.TotalSize,
			Type:           GrowthBased,
			AllocationSite: site,
			SampleRecords:  capSamples(records),
			Description:    "Instance count exceeds growth threshold",
		})
	}
	return out
}

func (d *Detector) detectByWindow() []Candidate {
	results := d.window.Analyze(nil)
	stats := d.registry.ClassStatistics()

	var out []Candidate
	for class, ws := range results {
		if !ws.IsConsistentGrowth || ws.GrowthCount < 3 {
			continue
		}
		cur, ok := stats[class]
		if !ok || cur.InstanceCount < d.thr.GrowthThreshold {
			continue
		}
		records := d.registry.GetByClass(class)
		site := mostFrequentSite(records)
		out = append(out, Candidate{
			ClassName:      class,
			InstanceCount:  cur.InstanceCount,
			TotalSize:      cur.TotalSize,
			Type:           WindowBased,
			AllocationSite: site,
			SampleRecords:  capSamples(records),
			Description:    windowDescription(ws.GrowthCount, ws.TotalGrowth),
		})
	}
	return out
}

// mostFrequentSite returns the most frequently occurring AllocationSite
// across records, breaking ties by first-encountered order.
func mostFrequentSite(records []event.Record) string {
	if len(records) == 0 {
		return "unknown"
	}
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, r := range records {
		if _, seen := counts[r.AllocationSite]; !seen {
			order = append(order, r.AllocationSite)
		}
		counts[r.AllocationSite]++
	}
	best := order[0]
	bestCount := counts[best]
	for _, site := range order[1:] {
		if counts[site] > bestCount {
			best = site
			bestCount = counts[site]
		}
	}
	return best
}

// History returns a copy of the retained report history, oldest first.
func (d *Detector) History() []Report {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Report, len(d.history))
	copy(out, d.history)
	return out
}

// DetectionCount returns the cumulative number of detect() invocations
// that produced a non-empty report.
func (d *Detector) DetectionCount() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.detectionCount
}
