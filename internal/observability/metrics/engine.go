package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics covers the classification pipeline and the scanner.
type EngineMetrics struct {
	classificationsTotal *prometheus.CounterVec
	classifierFallbacks  *prometheus.CounterVec
	batchFilesTotal      *prometheus.CounterVec
	scanDuration         *prometheus.HistogramVec
	scansTotal           *prometheus.CounterVec
}

func NewEngineMetrics() *EngineMetrics {
	return &EngineMetrics{
		classificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "catalog",
				Subsystem: "engine",
				Name:      "classifications_total",
				Help:      "Total classification decisions by source and category.",
			},
			[]string{"source", "category"},
		),
		classifierFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "catalog",
				Subsystem: "engine",
				Name:      "classifier_fallbacks_total",
				Help:      "Content classifier calls degraded to uncategorized.",
			},
			[]string{"reason"},
		),
		batchFilesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "catalog",
				Subsystem: "ingest",
				Name:      "batch_files_total",
				Help:      "Ingested batch files by outcome.",
			},
			[]string{"outcome"},
		),
		scanDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "catalog",
				Subsystem: "scanner",
				Name:      "scan_duration_seconds",
				Help:      "Directory scan duration in seconds by kind.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		scansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "catalog",
				Subsystem: "scanner",
				Name:      "scans_total",
				Help:      "Completed scans by kind and status.",
			},
			[]string{"kind", "status"},
		),
	}
}

func (m *EngineMetrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.classificationsTotal,
		m.classifierFallbacks,
		m.batchFilesTotal,
		m.scanDuration,
		m.scansTotal,
	}
}

func (m *EngineMetrics) RecordDecision(source, category string) {
	m.classificationsTotal.WithLabelValues(source, category).Inc()
}

func (m *EngineMetrics) RecordClassifierFallback(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	m.classifierFallbacks.WithLabelValues(reason).Inc()
}

func (m *EngineMetrics) RecordBatchFile(outcome string) {
	m.batchFilesTotal.WithLabelValues(outcome).Inc()
}

func (m *EngineMetrics) RecordScan(kind string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.scansTotal.WithLabelValues(kind, status).Inc()
	m.scanDuration.WithLabelValues(kind).Observe(duration.Seconds())
}
