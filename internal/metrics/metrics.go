// Package metrics registers the analyzer's Prometheus collectors: queue
// depth and drops, registry tracked/evicted counts, detection counts, and
// report severities by type.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "heapguard_event_queue_depth",
			Help: "Current number of events queued for ingest",
		},
	)

	QueueDropsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "heapguard_event_queue_drops_total",
			Help: "Total number of events dropped because the intake queue was full",
		},
	)

	RegistryTrackedObjects = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "heapguard_registry_tracked_objects",
			Help: "Current number of live tracked objects",
		},
	)

	RegistryEvictedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "heapguard_registry_evicted_total",
			Help: "Total number of objects evicted by the cleanup worker",
		},
	)

	DetectionRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "heapguard_leak_detection_runs_total",
			Help: "Total number of leak detection passes that produced a non-empty report",
		},
	)

	ReportCandidatesByType = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heapguard_leak_report_candidates_total",
			Help: "Total number of leak candidates emitted, by detection type",
		},
		[]string{"type"},
	)

	ReportCandidatesBySeverity = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heapguard_leak_report_severity_total",
			Help: "Total number of leak candidates emitted, by severity band",
		},
		[]string{"band"},
	)

	HeapUsedBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "heapguard_heap_used_bytes",
			Help: "Heap bytes in use as last polled by the GC/Memory monitor",
		},
	)

	WebsocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "heapguard_websocket_active_connections",
			Help: "Number of active leak-report WebSocket subscribers",
		},
	)
)

// SeverityBand buckets a severity score the same way leak.Report.Summary
// does, for metric labeling.
func SeverityBand(severity int) string {
	switch {
	case severity >= 70:
		return "high"
	case severity >= 40:
		return "medium"
	default:
		return "low"
	}
}
